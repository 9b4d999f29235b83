package locales

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Locale
	byCode map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory locale repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[uuid.UUID]*Locale),
		byCode: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, locale *Locale) (*Locale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneLocale(locale)
	m.byID[cloned.ID] = cloned
	if cloned.Code != "" {
		m.byCode[normalizeCode(cloned.Code)] = cloned.ID
	}
	return cloneLocale(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	return cloneLocale(record), nil
}

func (m *memoryRepository) GetByCode(_ context.Context, code string) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byCode[normalizeCode(code)]
	if !ok {
		return nil, &NotFoundError{Key: code}
	}
	return cloneLocale(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context) ([]*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Locale, 0, len(m.byID))
	for _, record := range m.byID {
		records = append(records, cloneLocale(record))
	}
	return records, nil
}

func (m *memoryRepository) Default(_ context.Context) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.byID {
		if record.IsDefault {
			return cloneLocale(record), nil
		}
	}
	return nil, &NotFoundError{Key: "default"}
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func cloneLocale(locale *Locale) *Locale {
	if locale == nil {
		return nil
	}
	cloned := *locale
	if locale.NativeName != nil {
		name := *locale.NativeName
		cloned.NativeName = &name
	}
	if locale.DeletedAt != nil {
		ts := *locale.DeletedAt
		cloned.DeletedAt = &ts
	}
	return &cloned
}
