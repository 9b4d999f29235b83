package pages

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	locks sync.Map
	pages map[uuid.UUID]*Page
}

// NewMemoryRepository constructs an in-memory page repository. Used by the
// embedded setup and the package tests.
func NewMemoryRepository() PageRepository {
	return &memoryRepository{
		pages: make(map[uuid.UUID]*Page),
	}
}

func (m *memoryRepository) Create(_ context.Context, page *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := clonePage(page)
	m.pages[cloned.ID] = cloned
	return clonePage(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.pages[id]
	if !ok {
		return nil, &PageNotFoundError{Key: id.String()}
	}
	return clonePage(record), nil
}

func (m *memoryRepository) GetByPath(_ context.Context, localeID uuid.UUID, path string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := NormalizePath(path)
	for _, record := range m.pages {
		if record.LocaleID == localeID && record.Path == normalized {
			return clonePage(record), nil
		}
	}
	return nil, &PageNotFoundError{Key: normalized}
}

func (m *memoryRepository) ListByLocale(_ context.Context, localeID uuid.UUID) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Page, 0)
	for _, record := range m.pages {
		if record.LocaleID == localeID {
			records = append(records, clonePage(record))
		}
	}
	sortSiblings(records)
	return records, nil
}

func (m *memoryRepository) ListChildren(_ context.Context, localeID uuid.UUID, parentID *uuid.UUID) ([]*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := parentKey(parentID)
	records := make([]*Page, 0)
	for _, record := range m.pages {
		if record.LocaleID != localeID {
			continue
		}
		if parentKey(record.ParentID) != key {
			continue
		}
		records = append(records, clonePage(record))
	}
	sortSiblings(records)
	return records, nil
}

func (m *memoryRepository) Update(_ context.Context, page *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pages[page.ID]; !ok {
		return nil, &PageNotFoundError{Key: page.ID.String()}
	}
	cloned := clonePage(page)
	m.pages[cloned.ID] = cloned
	return clonePage(cloned), nil
}

func (m *memoryRepository) BulkUpdateHierarchy(_ context.Context, pages []*Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, page := range pages {
		if _, ok := m.pages[page.ID]; !ok {
			return &PageNotFoundError{Key: page.ID.String()}
		}
	}
	for _, page := range pages {
		m.pages[page.ID] = clonePage(page)
	}
	return nil
}

func (m *memoryRepository) DeleteMany(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.pages[id]; !ok {
			return &PageNotFoundError{Key: id.String()}
		}
	}
	for _, id := range ids {
		delete(m.pages, id)
	}
	return nil
}

// LockHierarchy serializes structural rewrites per locale so a snapshot
// stays valid from load through flush.
func (m *memoryRepository) LockHierarchy(ctx context.Context, localeID uuid.UUID, fn func(ctx context.Context) error) error {
	value, _ := m.locks.LoadOrStore(localeID, &sync.Mutex{})
	lock := value.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

func clonePage(page *Page) *Page {
	if page == nil {
		return nil
	}
	cloned := *page
	if page.ParentID != nil {
		parent := *page.ParentID
		cloned.ParentID = &parent
	}
	cloned.PublishAt = cloneTime(page.PublishAt)
	cloned.UnpublishAt = cloneTime(page.UnpublishAt)
	cloned.PublishedAt = cloneTime(page.PublishedAt)
	return &cloned
}

func cloneTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	value := *ts
	return &value
}
