package pages

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// arena is a snapshot of one locale's tree loaded for a structural rewrite.
// Mutations happen against the snapshot and flush through
// BulkUpdateHierarchy in a single write.
type arena struct {
	byID       map[uuid.UUID]*Page
	childrenOf map[string][]*Page
}

func (s *service) loadArena(ctx context.Context, localeID uuid.UUID) (*arena, error) {
	records, err := s.repo.ListByLocale(ctx, localeID)
	if err != nil {
		return nil, err
	}

	a := &arena{
		byID:       make(map[uuid.UUID]*Page, len(records)),
		childrenOf: make(map[string][]*Page),
	}
	for _, record := range records {
		a.byID[record.ID] = record
		key := parentKey(record.ParentID)
		a.childrenOf[key] = append(a.childrenOf[key], record)
	}
	for key := range a.childrenOf {
		sortSiblings(a.childrenOf[key])
	}
	return a, nil
}

// isDescendant reports whether candidate sits below ancestor. The walk is
// bounded by tree size so corrupt parent links cannot loop forever.
func (a *arena) isDescendant(candidate, ancestor uuid.UUID) bool {
	current := a.byID[candidate]
	for steps := 0; current != nil && steps <= len(a.byID); steps++ {
		if current.ID == ancestor {
			return true
		}
		if current.ParentID == nil {
			return false
		}
		current = a.byID[*current.ParentID]
	}
	return false
}

// subtreeIDs collects root and every descendant, deepest first so cascading
// deletes remove leaves before their parents.
func (a *arena) subtreeIDs(root uuid.UUID) []uuid.UUID {
	ordered := make([]uuid.UUID, 0)
	visited := make(map[uuid.UUID]bool)

	var walk func(id uuid.UUID)
	walk = func(id uuid.UUID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, child := range a.childrenOf[parentKey(&id)] {
			walk(child.ID)
		}
		ordered = append(ordered, id)
	}
	walk(root)
	return ordered
}

// recomputeSubtree rewrites materialized paths for root and its descendants
// starting from parentPath. Changed pages land in dirty; the returned slice
// lists every rewrite in top-down order.
func (a *arena) recomputeSubtree(root *Page, parentPath string, now time.Time, actorID uuid.UUID, dirty *dirtySet) ([]PathChange, error) {
	subtree := make(map[uuid.UUID]bool)
	for _, id := range a.subtreeIDs(root.ID) {
		subtree[id] = true
	}

	// paths owned by pages outside the subtree stay fixed and must not be taken
	taken := make(map[string]uuid.UUID, len(a.byID))
	for id, page := range a.byID {
		if !subtree[id] {
			taken[page.Path] = id
		}
	}

	changes := make([]PathChange, 0)
	visited := make(map[uuid.UUID]bool)

	var walk func(page *Page, base string) error
	walk = func(page *Page, base string) error {
		if visited[page.ID] {
			return nil
		}
		visited[page.ID] = true

		newPath := RootPath
		if !page.IsHomepage {
			computed, err := ComputePath(base, page.Slug)
			if err != nil {
				return err
			}
			newPath = computed
		}
		if owner, exists := taken[newPath]; exists && owner != page.ID {
			return &PathConflictError{LocaleID: page.LocaleID, Path: newPath, PageID: owner}
		}

		if page.Path != newPath {
			changes = append(changes, PathChange{PageID: page.ID, OldPath: page.Path, NewPath: newPath})
			page.Path = newPath
			page.UpdatedAt = now
			if actorID != uuid.Nil {
				page.UpdatedBy = actorID
			}
			dirty.add(page)
		}

		for _, child := range a.childrenOf[parentKey(&page.ID)] {
			if err := walk(child, page.Path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, parentPath); err != nil {
		return nil, err
	}
	return changes, nil
}

// groupsInScope returns the sibling-group keys covered by a rebuild pass.
// The top-level group joins only for whole-locale runs.
func (a *arena) groupsInScope(roots []*Page, includeRootGroup bool) []string {
	keys := make([]string, 0)
	seen := make(map[string]bool)

	if includeRootGroup {
		keys = append(keys, parentKey(nil))
		seen[parentKey(nil)] = true
	}
	for _, root := range roots {
		for _, id := range a.subtreeIDs(root.ID) {
			node := id
			key := parentKey(&node)
			if seen[key] {
				continue
			}
			if len(a.childrenOf[key]) == 0 {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
