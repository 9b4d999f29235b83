package redirects

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu        sync.RWMutex
	redirects map[uuid.UUID]*Redirect
}

// NewMemoryRepository constructs an in-memory redirect repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		redirects: make(map[uuid.UUID]*Redirect),
	}
}

func (m *memoryRepository) Upsert(_ context.Context, redirect *Redirect) (*Redirect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.redirects {
		if existing.LocaleID == redirect.LocaleID && existing.FromPath == redirect.FromPath {
			redirect.ID = existing.ID
			break
		}
	}
	cloned := cloneRedirect(redirect)
	m.redirects[cloned.ID] = cloned
	return cloneRedirect(cloned), nil
}

func (m *memoryRepository) GetByFromPath(_ context.Context, localeID uuid.UUID, fromPath string) (*Redirect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.redirects {
		if record.LocaleID == localeID && record.FromPath == fromPath {
			return cloneRedirect(record), nil
		}
	}
	return nil, &NotFoundError{Path: fromPath}
}

func (m *memoryRepository) ListByLocale(_ context.Context, localeID uuid.UUID) ([]*Redirect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Redirect, 0)
	for _, record := range m.redirects {
		if record.LocaleID == localeID {
			records = append(records, cloneRedirect(record))
		}
	}
	return records, nil
}

func (m *memoryRepository) ListByToPath(_ context.Context, localeID uuid.UUID, toPath string) ([]*Redirect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Redirect, 0)
	for _, record := range m.redirects {
		if record.LocaleID == localeID && record.ToPath == toPath {
			records = append(records, cloneRedirect(record))
		}
	}
	return records, nil
}

func (m *memoryRepository) Update(_ context.Context, redirect *Redirect) (*Redirect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.redirects[redirect.ID]; !ok {
		return nil, &NotFoundError{Path: redirect.FromPath}
	}
	cloned := cloneRedirect(redirect)
	m.redirects[cloned.ID] = cloned
	return cloneRedirect(cloned), nil
}

func cloneRedirect(redirect *Redirect) *Redirect {
	if redirect == nil {
		return nil
	}
	cloned := *redirect
	return &cloned
}
