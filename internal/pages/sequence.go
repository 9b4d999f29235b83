package pages

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sortSiblings orders a sibling group by position with id as the stable
// tie-break, so equal positions resolve the same way on every run.
func sortSiblings(siblings []*Page) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].Position != siblings[j].Position {
			return siblings[i].Position < siblings[j].Position
		}
		return strings.Compare(siblings[i].ID.String(), siblings[j].ID.String()) < 0
	})
}

// resequence renumbers a sibling group to a dense 0..n-1 run in the order the
// caller hands in and returns the pages whose position actually changed.
// Groups loaded from storage arrive position-sorted; re-sorting here would
// undo an explicit insertion.
func resequence(siblings []*Page, now time.Time, actorID uuid.UUID) []*Page {
	dirty := make([]*Page, 0, len(siblings))
	for index, page := range siblings {
		if page.Position == index {
			continue
		}
		page.Position = index
		page.UpdatedAt = now
		if actorID != uuid.Nil {
			page.UpdatedBy = actorID
		}
		dirty = append(dirty, page)
	}
	return dirty
}

// clampInsertIndex bounds a requested position to a valid insertion slot.
// nil appends to the end.
func clampInsertIndex(desired *int, size int) int {
	if desired == nil {
		return size
	}
	index := *desired
	if index < 0 {
		index = 0
	}
	if index > size {
		index = size
	}
	return index
}

// insertSibling places page at index within the group, shifting later
// siblings right. The group keeps its existing order; the caller resequences
// afterwards.
func insertSibling(siblings []*Page, page *Page, index int) []*Page {
	if index < 0 {
		index = 0
	}
	if index > len(siblings) {
		index = len(siblings)
	}

	out := make([]*Page, 0, len(siblings)+1)
	out = append(out, siblings[:index]...)
	out = append(out, page)
	out = append(out, siblings[index:]...)
	return out
}

// removeSibling drops page id from the group, preserving order.
func removeSibling(siblings []*Page, id uuid.UUID) []*Page {
	out := make([]*Page, 0, len(siblings))
	for _, page := range siblings {
		if page.ID == id {
			continue
		}
		out = append(out, page)
	}
	return out
}
