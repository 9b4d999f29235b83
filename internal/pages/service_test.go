package pages_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/domain"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

type fixture struct {
	repo     pages.PageRepository
	queue    interfaces.TaskQueue
	svc      pages.Service
	localeID uuid.UUID
	actor    uuid.UUID
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	localeRepo := locales.NewMemoryRepository()
	localeID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	if _, err := localeRepo.Create(ctx, &locales.Locale{
		ID:        localeID,
		Code:      "en",
		Display:   "English",
		IsActive:  true,
		IsDefault: true,
	}); err != nil {
		t.Fatalf("seed locale: %v", err)
	}

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	counter := 0
	generator := func() uuid.UUID {
		counter++
		return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", counter))
	}

	repo := pages.NewMemoryRepository()
	queue := taskqueue.NewMemoryQueue(taskqueue.WithMemoryClock(clock))
	svc := pages.NewService(repo, localeRepo,
		pages.WithClock(clock),
		pages.WithIDGenerator(generator),
		pages.WithTaskQueue(queue),
	)

	return &fixture{
		repo:     repo,
		queue:    queue,
		svc:      svc,
		localeID: localeID,
		actor:    uuid.MustParse("99999999-9999-9999-9999-999999999999"),
		now:      now,
	}
}

func (f *fixture) mustCreate(t *testing.T, slug string, parentID *uuid.UUID) *pages.Page {
	t.Helper()
	page, err := f.svc.Create(context.Background(), pages.CreatePageRequest{
		LocaleID:  f.localeID,
		ParentID:  parentID,
		Slug:      slug,
		Title:     slug,
		CreatedBy: f.actor,
	})
	if err != nil {
		t.Fatalf("create %q: %v", slug, err)
	}
	return page
}

func TestCreateBuildsPathAndPosition(t *testing.T) {
	f := newFixture(t)

	products := f.mustCreate(t, "products", nil)
	about := f.mustCreate(t, "about", nil)
	widgets := f.mustCreate(t, "widgets", &products.ID)

	if products.Path != "/products" || products.Position != 0 {
		t.Fatalf("unexpected root page: path=%s position=%d", products.Path, products.Position)
	}
	if about.Position != 1 {
		t.Fatalf("expected second root at position 1, got %d", about.Position)
	}
	if widgets.Path != "/products/widgets" || widgets.Position != 0 {
		t.Fatalf("unexpected child page: path=%s position=%d", widgets.Path, widgets.Position)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{LocaleID: f.localeID, Slug: "bad/slug"}); !errors.Is(err, pages.ErrSlugInvalid) {
		t.Fatalf("expected ErrSlugInvalid, got %v", err)
	}
	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{LocaleID: f.localeID}); !errors.Is(err, pages.ErrSlugRequired) {
		t.Fatalf("expected ErrSlugRequired, got %v", err)
	}
	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{Slug: "x"}); !errors.Is(err, pages.ErrLocaleRequired) {
		t.Fatalf("expected ErrLocaleRequired, got %v", err)
	}
	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{LocaleID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Slug: "x"}); !errors.Is(err, pages.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}

	f.mustCreate(t, "products", nil)
	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{LocaleID: f.localeID, Slug: "products"}); !errors.Is(err, pages.ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
}

func TestCreateHomepage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	home, err := f.svc.Create(ctx, pages.CreatePageRequest{
		LocaleID:   f.localeID,
		IsHomepage: true,
		Title:      "Home",
		CreatedBy:  f.actor,
	})
	if err != nil {
		t.Fatalf("create homepage: %v", err)
	}
	if home.Path != "/" {
		t.Fatalf("expected homepage path /, got %s", home.Path)
	}

	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{LocaleID: f.localeID, IsHomepage: true}); !errors.Is(err, pages.ErrHomepageExists) {
		t.Fatalf("expected ErrHomepageExists, got %v", err)
	}
	if _, err := f.svc.Create(ctx, pages.CreatePageRequest{LocaleID: f.localeID, IsHomepage: true, ParentID: &home.ID}); !errors.Is(err, pages.ErrHomepageParent) {
		t.Fatalf("expected ErrHomepageParent, got %v", err)
	}

	child := f.mustCreate(t, "about", &home.ID)
	if child.Path != "/about" {
		t.Fatalf("expected homepage child at /about, got %s", child.Path)
	}
}

func TestCreateInsertsAtPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)

	position := 1
	c, err := f.svc.Create(ctx, pages.CreatePageRequest{
		LocaleID:  f.localeID,
		Slug:      "c",
		Position:  &position,
		CreatedBy: f.actor,
	})
	if err != nil {
		t.Fatalf("create at position: %v", err)
	}
	if c.Position != 1 {
		t.Fatalf("expected position 1, got %d", c.Position)
	}

	siblings, err := f.svc.Children(ctx, f.localeID, nil)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	want := []uuid.UUID{a.ID, c.ID, b.ID}
	for i, page := range siblings {
		if page.ID != want[i] {
			t.Fatalf("unexpected order at %d: %s", i, page.ID)
		}
		if page.Position != i {
			t.Fatalf("expected dense position %d, got %d", i, page.Position)
		}
	}
}

func TestGetByPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	products := f.mustCreate(t, "products", nil)
	widgets := f.mustCreate(t, "widgets", &products.ID)

	found, err := f.svc.GetByPath(ctx, f.localeID, "/products/widgets/")
	if err != nil {
		t.Fatalf("get by path: %v", err)
	}
	if found.ID != widgets.ID {
		t.Fatalf("expected %s, got %s", widgets.ID, found.ID)
	}

	if _, err := f.svc.GetByPath(ctx, f.localeID, "/missing"); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestMoveReparentsAndCascadesPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)
	c := f.mustCreate(t, "c", &a.ID)
	g := f.mustCreate(t, "g", &c.ID)

	result, err := f.svc.Move(ctx, pages.MovePageRequest{
		PageID:      c.ID,
		NewParentID: &b.ID,
		ActorID:     f.actor,
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if result.Page.Path != "/b/c" {
		t.Fatalf("expected /b/c, got %s", result.Page.Path)
	}
	if len(result.PathChanges) != 2 {
		t.Fatalf("expected 2 path changes, got %d", len(result.PathChanges))
	}

	moved, err := f.svc.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("get grandchild: %v", err)
	}
	if moved.Path != "/b/c/g" {
		t.Fatalf("expected /b/c/g, got %s", moved.Path)
	}

	oldSiblings, err := f.svc.Children(ctx, f.localeID, &a.ID)
	if err != nil {
		t.Fatalf("old siblings: %v", err)
	}
	if len(oldSiblings) != 0 {
		t.Fatalf("expected vacated group, got %d", len(oldSiblings))
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	c := f.mustCreate(t, "c", &a.ID)
	g := f.mustCreate(t, "g", &c.ID)

	if _, err := f.svc.Move(ctx, pages.MovePageRequest{PageID: a.ID, NewParentID: &g.ID}); !errors.Is(err, pages.ErrParentCycle) {
		t.Fatalf("expected ErrParentCycle moving under descendant, got %v", err)
	}
	if _, err := f.svc.Move(ctx, pages.MovePageRequest{PageID: a.ID, NewParentID: &a.ID}); !errors.Is(err, pages.ErrParentCycle) {
		t.Fatalf("expected ErrParentCycle moving under self, got %v", err)
	}
}

func TestMoveRejectsPathConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)
	f.mustCreate(t, "c", &b.ID)
	orphan := f.mustCreate(t, "c", &a.ID)

	if _, err := f.svc.Move(ctx, pages.MovePageRequest{PageID: orphan.ID, NewParentID: &b.ID}); !errors.Is(err, pages.ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}

	// failed move leaves the source untouched
	unchanged, err := f.svc.Get(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if unchanged.Path != "/a/c" {
		t.Fatalf("expected source path preserved, got %s", unchanged.Path)
	}
}

func TestMoveClampsPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)
	c := f.mustCreate(t, "c", &b.ID)

	position := 50
	result, err := f.svc.Move(ctx, pages.MovePageRequest{
		PageID:      a.ID,
		NewParentID: &b.ID,
		Position:    &position,
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if result.Page.Position != 1 {
		t.Fatalf("expected clamp to append after %s, got position %d", c.ID, result.Page.Position)
	}
}

func TestConcurrentMovesSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)
	c := f.mustCreate(t, "c", nil)

	// both interleavings converge on the same tree: b under a, c under b
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.svc.Move(ctx, pages.MovePageRequest{PageID: c.ID, NewParentID: &b.ID})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.svc.Move(ctx, pages.MovePageRequest{PageID: b.ID, NewParentID: &a.ID})
	}()
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	movedB, err := f.svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if movedB.ParentID == nil || *movedB.ParentID != a.ID || movedB.Path != "/a/b" {
		t.Fatalf("expected b under a at /a/b, got parent=%v path=%s", movedB.ParentID, movedB.Path)
	}

	movedC, err := f.svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get c: %v", err)
	}
	if movedC.ParentID == nil || *movedC.ParentID != b.ID {
		t.Fatalf("expected c under b, got parent=%v", movedC.ParentID)
	}
	if movedC.Path != "/a/b/c" {
		t.Fatalf("expected both rewrites applied to c, got path %s", movedC.Path)
	}

	roots, err := f.svc.Children(ctx, f.localeID, nil)
	if err != nil {
		t.Fatalf("list roots: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != a.ID || roots[0].Position != 0 {
		t.Fatalf("expected a alone at the root, got %d roots", len(roots))
	}
}

func TestRenameCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	products := f.mustCreate(t, "products", nil)
	widgets := f.mustCreate(t, "widgets", &products.ID)

	result, err := f.svc.Rename(ctx, pages.RenamePageRequest{
		PageID:  products.ID,
		Slug:    "catalog",
		ActorID: f.actor,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if result.Page.Path != "/catalog" {
		t.Fatalf("expected /catalog, got %s", result.Page.Path)
	}
	if len(result.PathChanges) != 2 {
		t.Fatalf("expected 2 path changes, got %d", len(result.PathChanges))
	}

	child, err := f.svc.Get(ctx, widgets.ID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if child.Path != "/catalog/widgets" {
		t.Fatalf("expected /catalog/widgets, got %s", child.Path)
	}
}

func TestReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)
	c := f.mustCreate(t, "c", nil)

	if _, err := f.svc.Reorder(ctx, pages.ReorderPageRequest{PageID: c.ID, Position: 0}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	siblings, err := f.svc.Children(ctx, f.localeID, nil)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	want := []uuid.UUID{c.ID, a.ID, b.ID}
	for i, page := range siblings {
		if page.ID != want[i] || page.Position != i {
			t.Fatalf("unexpected order at %d: id=%s position=%d", i, page.ID, page.Position)
		}
	}

	if _, err := f.svc.Reorder(ctx, pages.ReorderPageRequest{PageID: a.ID, Position: -1}); !errors.Is(err, pages.ErrPositionInvalid) {
		t.Fatalf("expected ErrPositionInvalid, got %v", err)
	}
}

func TestDeleteGuardsChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "a", nil)
	b := f.mustCreate(t, "b", nil)
	c := f.mustCreate(t, "c", &a.ID)
	f.mustCreate(t, "g", &c.ID)

	if err := f.svc.Delete(ctx, pages.DeletePageRequest{PageID: a.ID}); !errors.Is(err, pages.ErrPageHasChildren) {
		t.Fatalf("expected ErrPageHasChildren, got %v", err)
	}

	if err := f.svc.Delete(ctx, pages.DeletePageRequest{PageID: a.ID, Cascade: true}); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, c.ID); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected descendant removed, got %v", err)
	}

	remaining, err := f.svc.Children(ctx, f.localeID, nil)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != b.ID || remaining[0].Position != 0 {
		t.Fatalf("expected survivor compacted to position 0")
	}
}

func TestRebuildRepairsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	products := f.mustCreate(t, "products", nil)
	widgets := f.mustCreate(t, "widgets", &products.ID)
	gears := f.mustCreate(t, "gears", &products.ID)

	// corrupt positions and a child path directly in storage
	widgets.Position = 7
	widgets.Path = "/stale/widgets"
	if _, err := f.repo.Update(ctx, widgets); err != nil {
		t.Fatalf("corrupt widgets: %v", err)
	}
	gears.Position = 3
	if _, err := f.repo.Update(ctx, gears); err != nil {
		t.Fatalf("corrupt gears: %v", err)
	}

	dry, err := f.svc.Rebuild(ctx, pages.RebuildRequest{LocaleID: f.localeID, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.PathsRewritten != 1 || dry.PositionsRewritten == 0 {
		t.Fatalf("dry run report: paths=%d positions=%d", dry.PathsRewritten, dry.PositionsRewritten)
	}
	stale, err := f.svc.Get(ctx, widgets.ID)
	if err != nil {
		t.Fatalf("get after dry run: %v", err)
	}
	if stale.Path != "/stale/widgets" {
		t.Fatalf("dry run must not write, path is %s", stale.Path)
	}

	result, err := f.svc.Rebuild(ctx, pages.RebuildRequest{LocaleID: f.localeID})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if result.PathsRewritten != 1 {
		t.Fatalf("expected 1 path rewrite, got %d", result.PathsRewritten)
	}

	repaired, err := f.svc.Get(ctx, widgets.ID)
	if err != nil {
		t.Fatalf("get repaired: %v", err)
	}
	if repaired.Path != "/products/widgets" {
		t.Fatalf("expected repaired path, got %s", repaired.Path)
	}

	again, err := f.svc.Rebuild(ctx, pages.RebuildRequest{LocaleID: f.localeID})
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if again.PathsRewritten != 0 || again.PositionsRewritten != 0 {
		t.Fatalf("expected idempotent second run, got paths=%d positions=%d", again.PathsRewritten, again.PositionsRewritten)
	}
}

func TestPublishLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "news", nil)

	published, err := f.svc.Publish(ctx, pages.PublishPageRequest{PageID: page.ID, ActorID: f.actor})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != string(domain.StatusPublished) {
		t.Fatalf("expected published, got %s", published.Status)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(f.now) {
		t.Fatalf("expected PublishedAt %v, got %v", f.now, published.PublishedAt)
	}

	archived, err := f.svc.Archive(ctx, pages.ArchivePageRequest{PageID: page.ID, ActorID: f.actor})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != string(domain.StatusArchived) || archived.PublishedAt != nil {
		t.Fatalf("expected archived with cleared PublishedAt")
	}

	if _, err := f.svc.Publish(ctx, pages.PublishPageRequest{PageID: page.ID}); !errors.Is(err, pages.ErrTransitionInvalid) {
		t.Fatalf("expected ErrTransitionInvalid from archived, got %v", err)
	}
}

func TestUnpublishRevertTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "news", nil)
	if _, err := f.svc.Publish(ctx, pages.PublishPageRequest{PageID: page.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	reverted, err := f.svc.Unpublish(ctx, pages.UnpublishPageRequest{PageID: page.ID})
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if reverted.Status != string(domain.StatusDraft) || reverted.PublishedAt != nil {
		t.Fatalf("expected draft with cleared PublishedAt, got %s", reverted.Status)
	}

	if _, err := f.svc.Publish(ctx, pages.PublishPageRequest{PageID: page.ID}); err != nil {
		t.Fatalf("republish: %v", err)
	}
	archived, err := f.svc.Unpublish(ctx, pages.UnpublishPageRequest{PageID: page.ID, RevertTo: "archived"})
	if err != nil {
		t.Fatalf("unpublish to archived: %v", err)
	}
	if archived.Status != string(domain.StatusArchived) {
		t.Fatalf("expected archived, got %s", archived.Status)
	}

	if _, err := f.svc.Unpublish(ctx, pages.UnpublishPageRequest{PageID: page.ID, RevertTo: "published"}); !errors.Is(err, pages.ErrTransitionInvalid) {
		t.Fatalf("expected ErrTransitionInvalid for bad revert target, got %v", err)
	}
}

func TestSubmitForReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "news", nil)
	reviewed, err := f.svc.SubmitForReview(ctx, pages.SubmitForReviewRequest{PageID: page.ID})
	if err != nil {
		t.Fatalf("submit for review: %v", err)
	}
	if reviewed.Status != string(domain.StatusPendingReview) {
		t.Fatalf("expected pending_review, got %s", reviewed.Status)
	}

	if _, err := f.svc.Archive(ctx, pages.ArchivePageRequest{PageID: page.ID}); !errors.Is(err, pages.ErrTransitionInvalid) {
		t.Fatalf("expected ErrTransitionInvalid archiving from review, got %v", err)
	}
}

func TestScheduleEnqueuesAndSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch", nil)
	publishAt := f.now.Add(time.Hour)
	unpublishAt := f.now.Add(2 * time.Hour)

	scheduled, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{
		PageID:      page.ID,
		PublishAt:   &publishAt,
		UnpublishAt: &unpublishAt,
		ActorID:     f.actor,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled.Status != string(domain.StatusScheduled) {
		t.Fatalf("expected scheduled, got %s", scheduled.Status)
	}

	publishTask, err := f.queue.GetByKey(ctx, taskqueue.PagePublishTaskKey(page.ID))
	if err != nil {
		t.Fatalf("get publish task: %v", err)
	}
	if !publishTask.RunAt.Equal(publishAt) {
		t.Fatalf("expected run at %v, got %v", publishAt, publishTask.RunAt)
	}
	if _, err := f.queue.GetByKey(ctx, taskqueue.PageUnpublishTaskKey(page.ID)); err != nil {
		t.Fatalf("get unpublish task: %v", err)
	}

	// rescheduling replaces the pending task instead of stacking another
	laterAt := f.now.Add(3 * time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{PageID: page.ID, PublishAt: &laterAt}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	superseded, err := f.queue.GetByKey(ctx, taskqueue.PagePublishTaskKey(page.ID))
	if err != nil {
		t.Fatalf("get superseded task: %v", err)
	}
	if !superseded.RunAt.Equal(laterAt) {
		t.Fatalf("expected superseded run at %v, got %v", laterAt, superseded.RunAt)
	}
	if superseded.ID != publishTask.ID {
		t.Fatalf("expected in-place replacement, got new task %s", superseded.ID)
	}
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch", nil)
	publishAt := f.now.Add(2 * time.Hour)
	unpublishAt := f.now.Add(time.Hour)

	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{
		PageID:      page.ID,
		PublishAt:   &publishAt,
		UnpublishAt: &unpublishAt,
	}); !errors.Is(err, pages.ErrScheduleWindowInvalid) {
		t.Fatalf("expected ErrScheduleWindowInvalid, got %v", err)
	}

	localeRepo := locales.NewMemoryRepository()
	bare := pages.NewService(pages.NewMemoryRepository(), localeRepo)
	if _, err := bare.Schedule(ctx, pages.SchedulePageRequest{PageID: page.ID, PublishAt: &publishAt}); !errors.Is(err, pages.ErrSchedulingDisabled) {
		t.Fatalf("expected ErrSchedulingDisabled, got %v", err)
	}
}

func TestCancelSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch", nil)
	publishAt := f.now.Add(time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{PageID: page.ID, PublishAt: &publishAt}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	canceled, err := f.svc.CancelSchedule(ctx, pages.CancelScheduleRequest{PageID: page.ID})
	if err != nil {
		t.Fatalf("cancel schedule: %v", err)
	}
	if canceled.Status != string(domain.StatusDraft) || canceled.PublishAt != nil {
		t.Fatalf("expected draft with cleared window, got %s", canceled.Status)
	}

	task, err := f.queue.GetByKey(ctx, taskqueue.PagePublishTaskKey(page.ID))
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != interfaces.TaskStatusCanceled {
		t.Fatalf("expected canceled task, got %s", task.Status)
	}
}
