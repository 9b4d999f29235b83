package pages

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/domain"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/activity"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// Service manages the locale-scoped page tree and the publication lifecycle.
type Service interface {
	Create(ctx context.Context, req CreatePageRequest) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetByPath(ctx context.Context, localeID uuid.UUID, path string) (*Page, error)
	List(ctx context.Context, localeID uuid.UUID) ([]*Page, error)
	Children(ctx context.Context, localeID uuid.UUID, parentID *uuid.UUID) ([]*Page, error)
	Move(ctx context.Context, req MovePageRequest) (*MoveResult, error)
	Rename(ctx context.Context, req RenamePageRequest) (*MoveResult, error)
	Reorder(ctx context.Context, req ReorderPageRequest) (*Page, error)
	Delete(ctx context.Context, req DeletePageRequest) error
	Rebuild(ctx context.Context, req RebuildRequest) (*RebuildResult, error)

	Publish(ctx context.Context, req PublishPageRequest) (*Page, error)
	Unpublish(ctx context.Context, req UnpublishPageRequest) (*Page, error)
	SubmitForReview(ctx context.Context, req SubmitForReviewRequest) (*Page, error)
	Archive(ctx context.Context, req ArchivePageRequest) (*Page, error)
	Schedule(ctx context.Context, req SchedulePageRequest) (*Page, error)
	CancelSchedule(ctx context.Context, req CancelScheduleRequest) (*Page, error)
}

// CreatePageRequest describes a new tree node. Position nil appends after the
// last sibling. Homepages have no parent and own the locale root path.
type CreatePageRequest struct {
	ID         *uuid.UUID
	LocaleID   uuid.UUID
	ParentID   *uuid.UUID
	Slug       string
	Title      string
	Position   *int
	Status     string
	IsHomepage bool
	InMainMenu bool
	InFooter   bool
	CreatedBy  uuid.UUID
}

// MovePageRequest reparents a page. Position nil appends to the new sibling
// group.
type MovePageRequest struct {
	PageID      uuid.UUID
	NewParentID *uuid.UUID
	Position    *int
	ActorID     uuid.UUID
}

// RenamePageRequest changes a page slug, cascading path rewrites to the
// subtree.
type RenamePageRequest struct {
	PageID  uuid.UUID
	Slug    string
	ActorID uuid.UUID
}

// ReorderPageRequest repositions a page among its current siblings.
type ReorderPageRequest struct {
	PageID   uuid.UUID
	Position int
	ActorID  uuid.UUID
}

// DeletePageRequest removes a page. Without Cascade the call fails when the
// page still has children.
type DeletePageRequest struct {
	PageID  uuid.UUID
	Cascade bool
	ActorID uuid.UUID
}

// RebuildRequest repairs paths and positions for a locale, or for a single
// subtree when RootID is set.
type RebuildRequest struct {
	LocaleID uuid.UUID
	RootID   *uuid.UUID
	DryRun   bool
	ActorID  uuid.UUID
}

// PublishPageRequest publishes a page immediately.
type PublishPageRequest struct {
	PageID  uuid.UUID
	ActorID uuid.UUID
}

// UnpublishPageRequest takes a published page offline. RevertTo selects the
// landing status, draft when empty.
type UnpublishPageRequest struct {
	PageID   uuid.UUID
	RevertTo string
	ActorID  uuid.UUID
}

// SubmitForReviewRequest moves a draft into the review queue.
type SubmitForReviewRequest struct {
	PageID  uuid.UUID
	ActorID uuid.UUID
}

// ArchivePageRequest archives a page.
type ArchivePageRequest struct {
	PageID  uuid.UUID
	ActorID uuid.UUID
}

// SchedulePageRequest sets the publish and unpublish windows and enqueues the
// matching deferred tasks. A nil timestamp clears that side of the window.
type SchedulePageRequest struct {
	PageID      uuid.UUID
	PublishAt   *time.Time
	UnpublishAt *time.Time
	RevertTo    string
	ActorID     uuid.UUID
}

// CancelScheduleRequest drops pending publish and unpublish tasks and returns
// the page to draft.
type CancelScheduleRequest struct {
	PageID  uuid.UUID
	ActorID uuid.UUID
}

type service struct {
	repo        PageRepository
	locales     locales.Repository
	queue       interfaces.TaskQueue
	emitter     *activity.Emitter
	logger      interfaces.Logger
	clock       func() time.Time
	idGenerator func() uuid.UUID
	maxAttempts int
}

// Option customizes the page service.
type Option func(*service)

// WithClock overrides the service clock. Tests pin this.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides page id generation.
func WithIDGenerator(generator func() uuid.UUID) Option {
	return func(s *service) {
		if generator != nil {
			s.idGenerator = generator
		}
	}
}

// WithTaskQueue wires the deferred task queue. Without it Schedule returns
// ErrSchedulingDisabled.
func WithTaskQueue(queue interfaces.TaskQueue) Option {
	return func(s *service) {
		s.queue = queue
	}
}

// WithActivityEmitter attaches the activity fan-out.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(s *service) {
		s.emitter = emitter
	}
}

// WithLogger attaches the module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTaskMaxAttempts bounds retries for tasks this service enqueues.
func WithTaskMaxAttempts(attempts int) Option {
	return func(s *service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// NewService constructs the page service.
func NewService(repo PageRepository, localeRepo locales.Repository, opts ...Option) Service {
	svc := &service{
		repo:        repo,
		locales:     localeRepo,
		logger:      logging.NoOp(),
		clock:       time.Now,
		idGenerator: uuid.New,
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	if req.LocaleID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	if s.locales != nil {
		if _, err := s.locales.GetByID(ctx, req.LocaleID); err != nil {
			if errors.Is(err, locales.ErrLocaleNotFound) {
				return nil, ErrUnknownLocale
			}
			return nil, err
		}
	}

	now := s.clock()
	page := &Page{
		LocaleID:   req.LocaleID,
		ParentID:   copyID(req.ParentID),
		Title:      strings.TrimSpace(req.Title),
		Status:     string(domain.NormalizeStatus(req.Status)),
		IsHomepage: req.IsHomepage,
		InMainMenu: req.InMainMenu,
		InFooter:   req.InFooter,
		CreatedBy:  req.CreatedBy,
		UpdatedBy:  req.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.ID != nil && *req.ID != uuid.Nil {
		page.ID = *req.ID
	} else {
		page.ID = s.idGenerator()
	}
	if !domain.IsValidStatus(domain.Status(page.Status)) {
		return nil, &TransitionError{PageID: page.ID, From: domain.StatusDraft, To: domain.Status(req.Status)}
	}

	if req.Position != nil && *req.Position < 0 {
		return nil, ErrPositionInvalid
	}
	if domain.Status(page.Status) == domain.StatusPublished {
		publishedAt := now
		page.PublishedAt = &publishedAt
	}

	var created *Page
	err := s.repo.LockHierarchy(ctx, req.LocaleID, func(ctx context.Context) error {
		if req.IsHomepage {
			if req.ParentID != nil {
				return ErrHomepageParent
			}
			page.Slug = ""
			page.Path = RootPath
			if existing, err := s.repo.GetByPath(ctx, req.LocaleID, RootPath); err == nil && existing != nil {
				return ErrHomepageExists
			} else if err != nil && !errors.Is(err, ErrPageNotFound) {
				return err
			}
		} else {
			slug, err := NormalizeSlug(req.Slug)
			if err != nil {
				return err
			}
			page.Slug = slug

			parentPath := ""
			if req.ParentID != nil {
				parent, err := s.repo.GetByID(ctx, *req.ParentID)
				if err != nil {
					if errors.Is(err, ErrPageNotFound) {
						return ErrParentNotFound
					}
					return err
				}
				if parent.LocaleID != req.LocaleID {
					return ErrParentLocaleMismatch
				}
				parentPath = parent.Path
			}
			path, err := ComputePath(parentPath, slug)
			if err != nil {
				return err
			}
			if err := s.ensurePathFree(ctx, req.LocaleID, path, uuid.Nil); err != nil {
				return err
			}
			page.Path = path
		}

		siblings, err := s.repo.ListChildren(ctx, req.LocaleID, req.ParentID)
		if err != nil {
			return err
		}
		group := insertSibling(siblings, page, clampInsertIndex(req.Position, len(siblings)))
		dirty := resequence(group, now, req.CreatedBy)

		created, err = s.repo.Create(ctx, page)
		if err != nil {
			return err
		}
		updates := make([]*Page, 0, len(dirty))
		for _, candidate := range dirty {
			if candidate.ID == page.ID {
				continue
			}
			updates = append(updates, candidate)
		}
		if len(updates) > 0 {
			return s.repo.BulkUpdateHierarchy(ctx, updates)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logPage(ctx, "page created", created)
	s.emitActivity(ctx, "create", req.CreatedBy, created, nil)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByPath(ctx context.Context, localeID uuid.UUID, path string) (*Page, error) {
	if localeID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	return s.repo.GetByPath(ctx, localeID, NormalizePath(path))
}

func (s *service) List(ctx context.Context, localeID uuid.UUID) ([]*Page, error) {
	if localeID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	return s.repo.ListByLocale(ctx, localeID)
}

func (s *service) Children(ctx context.Context, localeID uuid.UUID, parentID *uuid.UUID) ([]*Page, error) {
	if localeID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	return s.repo.ListChildren(ctx, localeID, parentID)
}

func (s *service) Move(ctx context.Context, req MovePageRequest) (*MoveResult, error) {
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if page.IsHomepage {
		return nil, ErrHomepageMove
	}
	if req.Position != nil && *req.Position < 0 {
		return nil, ErrPositionInvalid
	}

	if parentKey(page.ParentID) == parentKey(req.NewParentID) && req.Position == nil {
		return &MoveResult{Page: page}, nil
	}

	var (
		moved   *Page
		changes []PathChange
	)
	err = s.repo.LockHierarchy(ctx, page.LocaleID, func(ctx context.Context) error {
		arena, err := s.loadArena(ctx, page.LocaleID)
		if err != nil {
			return err
		}
		target := arena.byID[page.ID]
		if target == nil {
			return &PageNotFoundError{Key: page.ID.String()}
		}

		newParentPath := ""
		if req.NewParentID != nil {
			if *req.NewParentID == page.ID {
				return &InvalidMoveError{PageID: page.ID, NewParentID: *req.NewParentID}
			}
			parent := arena.byID[*req.NewParentID]
			if parent == nil {
				// parent may live in another locale, which is also rejected
				other, err := s.repo.GetByID(ctx, *req.NewParentID)
				if err != nil {
					if errors.Is(err, ErrPageNotFound) {
						return ErrParentNotFound
					}
					return err
				}
				if other.LocaleID != page.LocaleID {
					return ErrParentLocaleMismatch
				}
				return ErrParentNotFound
			}
			if arena.isDescendant(parent.ID, page.ID) {
				return &InvalidMoveError{PageID: page.ID, NewParentID: parent.ID}
			}
			newParentPath = parent.Path
		}

		now := s.clock()
		dirty := newDirtySet()

		oldKey := parentKey(target.ParentID)
		newKey := parentKey(req.NewParentID)

		if oldKey != newKey {
			oldGroup := removeSibling(arena.childrenOf[oldKey], target.ID)
			dirty.add(resequence(oldGroup, now, req.ActorID)...)
			arena.childrenOf[oldKey] = oldGroup

			target.ParentID = copyID(req.NewParentID)
			newGroup := insertSibling(arena.childrenOf[newKey], target, clampInsertIndex(req.Position, len(arena.childrenOf[newKey])))
			dirty.add(resequence(newGroup, now, req.ActorID)...)
			arena.childrenOf[newKey] = newGroup
			dirty.add(target)
		} else if req.Position != nil {
			group := removeSibling(arena.childrenOf[oldKey], target.ID)
			group = insertSibling(group, target, clampInsertIndex(req.Position, len(group)))
			dirty.add(resequence(group, now, req.ActorID)...)
			arena.childrenOf[oldKey] = group
		}

		changes, err = arena.recomputeSubtree(target, newParentPath, now, req.ActorID, dirty)
		if err != nil {
			return err
		}

		target.UpdatedAt = now
		if req.ActorID != uuid.Nil {
			target.UpdatedBy = req.ActorID
		}
		dirty.add(target)

		if err := s.repo.BulkUpdateHierarchy(ctx, dirty.ordered()); err != nil {
			return err
		}
		moved = clonePage(target)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logPage(ctx, "page moved", moved)
	s.emitActivity(ctx, "move", req.ActorID, moved, map[string]any{"path_changes": len(changes)})
	s.emitPathChanges(ctx, req.ActorID, moved.LocaleID, changes)
	return &MoveResult{Page: moved, PathChanges: changes}, nil
}

func (s *service) Rename(ctx context.Context, req RenamePageRequest) (*MoveResult, error) {
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if page.IsHomepage {
		return nil, ErrHomepageMove
	}
	slug, err := NormalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	if slug == page.Slug {
		return &MoveResult{Page: page}, nil
	}

	var (
		renamed *Page
		changes []PathChange
	)
	err = s.repo.LockHierarchy(ctx, page.LocaleID, func(ctx context.Context) error {
		arena, err := s.loadArena(ctx, page.LocaleID)
		if err != nil {
			return err
		}
		target := arena.byID[page.ID]
		if target == nil {
			return &PageNotFoundError{Key: page.ID.String()}
		}

		parentPath := ""
		if target.ParentID != nil {
			if parent := arena.byID[*target.ParentID]; parent != nil {
				parentPath = parent.Path
			}
		}

		now := s.clock()
		dirty := newDirtySet()
		target.Slug = slug
		target.UpdatedAt = now
		if req.ActorID != uuid.Nil {
			target.UpdatedBy = req.ActorID
		}
		dirty.add(target)

		changes, err = arena.recomputeSubtree(target, parentPath, now, req.ActorID, dirty)
		if err != nil {
			return err
		}

		if err := s.repo.BulkUpdateHierarchy(ctx, dirty.ordered()); err != nil {
			return err
		}
		renamed = clonePage(target)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logPage(ctx, "page renamed", renamed)
	s.emitActivity(ctx, "rename", req.ActorID, renamed, map[string]any{"slug": slug})
	s.emitPathChanges(ctx, req.ActorID, renamed.LocaleID, changes)
	return &MoveResult{Page: renamed, PathChanges: changes}, nil
}

func (s *service) Reorder(ctx context.Context, req ReorderPageRequest) (*Page, error) {
	if req.Position < 0 {
		return nil, ErrPositionInvalid
	}
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}

	var reordered *Page
	err = s.repo.LockHierarchy(ctx, page.LocaleID, func(ctx context.Context) error {
		siblings, err := s.repo.ListChildren(ctx, page.LocaleID, page.ParentID)
		if err != nil {
			return err
		}

		var target *Page
		group := make([]*Page, 0, len(siblings))
		for _, sibling := range siblings {
			if sibling.ID == page.ID {
				target = sibling
				continue
			}
			group = append(group, sibling)
		}
		if target == nil {
			return &PageNotFoundError{Key: page.ID.String()}
		}

		now := s.clock()
		group = insertSibling(group, target, clampInsertIndex(&req.Position, len(group)))
		dirty := resequence(group, now, req.ActorID)
		if len(dirty) > 0 {
			if err := s.repo.BulkUpdateHierarchy(ctx, dirty); err != nil {
				return err
			}
		}
		reordered = clonePage(target)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logPage(ctx, "page reordered", reordered)
	s.emitActivity(ctx, "reorder", req.ActorID, reordered, map[string]any{"position": reordered.Position})
	return reordered, nil
}

func (s *service) Delete(ctx context.Context, req DeletePageRequest) error {
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return err
	}

	var ids []uuid.UUID
	err = s.repo.LockHierarchy(ctx, page.LocaleID, func(ctx context.Context) error {
		arena, err := s.loadArena(ctx, page.LocaleID)
		if err != nil {
			return err
		}
		children := arena.childrenOf[parentKey(&page.ID)]
		if len(children) > 0 && !req.Cascade {
			return ErrPageHasChildren
		}

		ids = arena.subtreeIDs(page.ID)
		if err := s.repo.DeleteMany(ctx, ids); err != nil {
			return err
		}

		group := removeSibling(arena.childrenOf[parentKey(page.ParentID)], page.ID)
		dirty := resequence(group, s.clock(), req.ActorID)
		if len(dirty) > 0 {
			return s.repo.BulkUpdateHierarchy(ctx, dirty)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.queue != nil {
		for _, id := range ids {
			s.cancelTask(ctx, taskqueue.PagePublishTaskKey(id))
			s.cancelTask(ctx, taskqueue.PageUnpublishTaskKey(id))
		}
	}

	s.logPage(ctx, "page deleted", page)
	s.emitActivity(ctx, "delete", req.ActorID, page, map[string]any{"cascade": req.Cascade, "deleted": len(ids)})
	return nil
}

func (s *service) Rebuild(ctx context.Context, req RebuildRequest) (*RebuildResult, error) {
	if req.LocaleID == uuid.Nil {
		return nil, ErrRebuildScopeInvalid
	}

	var result *RebuildResult
	err := s.repo.LockHierarchy(ctx, req.LocaleID, func(ctx context.Context) error {
		arena, err := s.loadArena(ctx, req.LocaleID)
		if err != nil {
			return err
		}

		roots := arena.childrenOf[parentKey(nil)]
		if req.RootID != nil {
			root := arena.byID[*req.RootID]
			if root == nil {
				return &PageNotFoundError{Key: req.RootID.String()}
			}
			roots = []*Page{root}
		}

		now := s.clock()
		result = &RebuildResult{PagesScanned: len(arena.byID), DryRun: req.DryRun}
		dirty := newDirtySet()

		// renumber every sibling group in scope, then rewrite paths top-down
		groups := arena.groupsInScope(roots, req.RootID == nil)
		for _, key := range groups {
			repositioned := resequence(arena.childrenOf[key], now, req.ActorID)
			result.PositionsRewritten += len(repositioned)
			dirty.add(repositioned...)
		}

		for _, root := range roots {
			parentPath := ""
			if root.ParentID != nil {
				if parent := arena.byID[*root.ParentID]; parent != nil {
					parentPath = parent.Path
				}
			}
			changes, err := arena.recomputeSubtree(root, parentPath, now, req.ActorID, dirty)
			if err != nil {
				return err
			}
			result.PathChanges = append(result.PathChanges, changes...)
		}
		result.PathsRewritten = len(result.PathChanges)

		if req.DryRun {
			return nil
		}
		if updates := dirty.ordered(); len(updates) > 0 {
			return s.repo.BulkUpdateHierarchy(ctx, updates)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.DryRun {
		return result, nil
	}

	s.logger.Info("tree rebuilt",
		"locale_id", req.LocaleID.String(),
		"paths_rewritten", result.PathsRewritten,
		"positions_rewritten", result.PositionsRewritten,
	)
	s.emitPathChanges(ctx, req.ActorID, req.LocaleID, result.PathChanges)
	return result, nil
}

func (s *service) Publish(ctx context.Context, req PublishPageRequest) (*Page, error) {
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if page.LocaleID == uuid.Nil {
		return nil, ErrPublishWithoutLocale
	}

	from := domain.NormalizeStatus(page.Status)
	if !domain.CanTransition(from, domain.StatusPublished) {
		return nil, &TransitionError{PageID: page.ID, From: from, To: domain.StatusPublished}
	}

	now := s.clock()
	page.Status = string(domain.StatusPublished)
	page.PublishedAt = &now
	page.PublishAt = nil
	page.UpdatedAt = now
	if req.ActorID != uuid.Nil {
		page.UpdatedBy = req.ActorID
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		return nil, err
	}
	if from == domain.StatusScheduled {
		s.cancelTask(ctx, taskqueue.PagePublishTaskKey(page.ID))
	}

	s.logPage(ctx, "page published", updated)
	s.emitActivity(ctx, "publish", req.ActorID, updated, nil)
	return updated, nil
}

func (s *service) Unpublish(ctx context.Context, req UnpublishPageRequest) (*Page, error) {
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}

	revertTo := domain.StatusDraft
	if trimmed := strings.TrimSpace(req.RevertTo); trimmed != "" {
		revertTo = domain.Status(trimmed)
	}
	if revertTo != domain.StatusDraft && revertTo != domain.StatusArchived {
		return nil, &TransitionError{PageID: page.ID, From: domain.NormalizeStatus(page.Status), To: revertTo}
	}

	from := domain.NormalizeStatus(page.Status)
	if !domain.CanTransition(from, revertTo) {
		return nil, &TransitionError{PageID: page.ID, From: from, To: revertTo}
	}

	now := s.clock()
	page.Status = string(revertTo)
	page.PublishedAt = nil
	page.UnpublishAt = nil
	page.UpdatedAt = now
	if req.ActorID != uuid.Nil {
		page.UpdatedBy = req.ActorID
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		return nil, err
	}
	s.cancelTask(ctx, taskqueue.PageUnpublishTaskKey(page.ID))

	s.logPage(ctx, "page unpublished", updated)
	s.emitActivity(ctx, "unpublish", req.ActorID, updated, map[string]any{"revert_to": string(revertTo)})
	return updated, nil
}

func (s *service) SubmitForReview(ctx context.Context, req SubmitForReviewRequest) (*Page, error) {
	return s.transition(ctx, req.PageID, req.ActorID, domain.StatusPendingReview, "submit_for_review", "page submitted for review")
}

func (s *service) Archive(ctx context.Context, req ArchivePageRequest) (*Page, error) {
	page, err := s.transition(ctx, req.PageID, req.ActorID, domain.StatusArchived, "archive", "page archived")
	if err != nil {
		return nil, err
	}
	s.cancelTask(ctx, taskqueue.PagePublishTaskKey(page.ID))
	s.cancelTask(ctx, taskqueue.PageUnpublishTaskKey(page.ID))
	return page, nil
}

func (s *service) Schedule(ctx context.Context, req SchedulePageRequest) (*Page, error) {
	if s.queue == nil {
		return nil, ErrSchedulingDisabled
	}
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if err := validateScheduleWindow(req.PublishAt, req.UnpublishAt); err != nil {
		return nil, err
	}

	from := domain.NormalizeStatus(page.Status)
	if req.PublishAt != nil && !domain.CanTransition(from, domain.StatusScheduled) {
		return nil, &TransitionError{PageID: page.ID, From: from, To: domain.StatusScheduled}
	}
	if req.PublishAt == nil && req.UnpublishAt != nil {
		if from != domain.StatusPublished && from != domain.StatusScheduled {
			return nil, &TransitionError{PageID: page.ID, From: from, To: domain.StatusArchived}
		}
	}

	now := s.clock()
	page.PublishAt = cloneTime(req.PublishAt)
	page.UnpublishAt = cloneTime(req.UnpublishAt)
	if req.PublishAt != nil {
		page.Status = string(domain.StatusScheduled)
	}
	page.UpdatedAt = now
	if req.ActorID != uuid.Nil {
		page.UpdatedBy = req.ActorID
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		return nil, err
	}

	if req.PublishAt != nil {
		if _, err := s.queue.Enqueue(ctx, interfaces.TaskSpec{
			Key:         taskqueue.PagePublishTaskKey(page.ID),
			Type:        taskqueue.TaskTypePagePublish,
			TargetType:  taskqueue.TargetTypePage,
			TargetID:    page.ID.String(),
			RunAt:       *req.PublishAt,
			Payload:     publishPayload(page.ID, req.ActorID),
			MaxAttempts: s.maxAttempts,
		}); err != nil {
			return nil, err
		}
	} else {
		s.cancelTask(ctx, taskqueue.PagePublishTaskKey(page.ID))
	}

	if req.UnpublishAt != nil {
		if _, err := s.queue.Enqueue(ctx, interfaces.TaskSpec{
			Key:         taskqueue.PageUnpublishTaskKey(page.ID),
			Type:        taskqueue.TaskTypePageUnpublish,
			TargetType:  taskqueue.TargetTypePage,
			TargetID:    page.ID.String(),
			RunAt:       *req.UnpublishAt,
			Payload:     unpublishPayload(page.ID, req.ActorID, req.RevertTo),
			MaxAttempts: s.maxAttempts,
		}); err != nil {
			return nil, err
		}
	} else {
		s.cancelTask(ctx, taskqueue.PageUnpublishTaskKey(page.ID))
	}

	s.logPage(ctx, "page scheduled", updated)
	s.emitActivity(ctx, "schedule", req.ActorID, updated, scheduleMetadata(req.PublishAt, req.UnpublishAt))
	return updated, nil
}

func (s *service) CancelSchedule(ctx context.Context, req CancelScheduleRequest) (*Page, error) {
	page, err := s.repo.GetByID(ctx, req.PageID)
	if err != nil {
		return nil, err
	}

	from := domain.NormalizeStatus(page.Status)
	if from == domain.StatusScheduled {
		if !domain.CanTransition(from, domain.StatusDraft) {
			return nil, &TransitionError{PageID: page.ID, From: from, To: domain.StatusDraft}
		}
		page.Status = string(domain.StatusDraft)
	}

	now := s.clock()
	page.PublishAt = nil
	page.UnpublishAt = nil
	page.UpdatedAt = now
	if req.ActorID != uuid.Nil {
		page.UpdatedBy = req.ActorID
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		return nil, err
	}
	s.cancelTask(ctx, taskqueue.PagePublishTaskKey(page.ID))
	s.cancelTask(ctx, taskqueue.PageUnpublishTaskKey(page.ID))

	s.logPage(ctx, "page schedule canceled", updated)
	s.emitActivity(ctx, "cancel_schedule", req.ActorID, updated, nil)
	return updated, nil
}

func (s *service) transition(ctx context.Context, pageID, actorID uuid.UUID, to domain.Status, verb, message string) (*Page, error) {
	page, err := s.repo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}

	from := domain.NormalizeStatus(page.Status)
	if !domain.CanTransition(from, to) {
		return nil, &TransitionError{PageID: page.ID, From: from, To: to}
	}

	now := s.clock()
	page.Status = string(to)
	if to == domain.StatusArchived {
		page.PublishedAt = nil
		page.PublishAt = nil
		page.UnpublishAt = nil
	}
	page.UpdatedAt = now
	if actorID != uuid.Nil {
		page.UpdatedBy = actorID
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		return nil, err
	}

	s.logPage(ctx, message, updated)
	s.emitActivity(ctx, verb, actorID, updated, nil)
	return updated, nil
}

func (s *service) ensurePathFree(ctx context.Context, localeID uuid.UUID, path string, selfID uuid.UUID) error {
	existing, err := s.repo.GetByPath(ctx, localeID, path)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return &PathConflictError{LocaleID: localeID, Path: path, PageID: existing.ID}
}

func (s *service) cancelTask(ctx context.Context, key string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.CancelByKey(ctx, key); err != nil && !errors.Is(err, interfaces.ErrTaskNotFound) {
		s.logger.Warn("cancel task failed", "task_key", key, "error", err)
	}
}

func (s *service) logPage(_ context.Context, message string, page *Page) {
	logging.WithPageContext(s.logger, page.ID.String(), page.LocaleID.String(), page.Path).Info(message)
}

func (s *service) emitActivity(ctx context.Context, verb string, actorID uuid.UUID, page *Page, metadata map[string]any) {
	if s.emitter == nil || !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actorID.String(),
		ObjectType: "page",
		ObjectID:   page.ID.String(),
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn("activity emit failed", "verb", verb, "error", err)
	}
}

func (s *service) emitPathChanges(ctx context.Context, actorID uuid.UUID, localeID uuid.UUID, changes []PathChange) {
	if s.emitter == nil || !s.emitter.Enabled() {
		return
	}
	for _, change := range changes {
		if err := s.emitter.Emit(ctx, activity.Event{
			Verb:       "path_change",
			ActorID:    actorID.String(),
			ObjectType: "page",
			ObjectID:   change.PageID.String(),
			Metadata: map[string]any{
				"locale_id": localeID.String(),
				"old_path":  change.OldPath,
				"new_path":  change.NewPath,
			},
		}); err != nil {
			s.logger.Warn("activity emit failed", "verb", "path_change", "error", err)
		}
	}
}

func validateScheduleWindow(publishAt, unpublishAt *time.Time) error {
	if publishAt != nil && publishAt.IsZero() {
		return ErrScheduleTimestampInvalid
	}
	if unpublishAt != nil && unpublishAt.IsZero() {
		return ErrScheduleTimestampInvalid
	}
	if publishAt != nil && unpublishAt != nil && !publishAt.Before(*unpublishAt) {
		return ErrScheduleWindowInvalid
	}
	return nil
}

func publishPayload(pageID, actorID uuid.UUID) map[string]any {
	payload := map[string]any{"page_id": pageID.String()}
	if actorID != uuid.Nil {
		payload["scheduled_by"] = actorID.String()
	}
	return payload
}

func unpublishPayload(pageID, actorID uuid.UUID, revertTo string) map[string]any {
	payload := publishPayload(pageID, actorID)
	if trimmed := strings.TrimSpace(revertTo); trimmed != "" {
		payload["revert_to"] = trimmed
	}
	return payload
}

func scheduleMetadata(publishAt, unpublishAt *time.Time) map[string]any {
	metadata := make(map[string]any, 2)
	if publishAt != nil {
		metadata["publish_at"] = publishAt.UTC().Format(time.RFC3339)
	}
	if unpublishAt != nil {
		metadata["unpublish_at"] = unpublishAt.UTC().Format(time.RFC3339)
	}
	return metadata
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	value := *id
	return &value
}

// dirtySet dedupes pages touched by a tree rewrite and hands them back in
// ascending id order so transactional writers lock rows deterministically.
type dirtySet struct {
	pages map[uuid.UUID]*Page
}

func newDirtySet() *dirtySet {
	return &dirtySet{pages: make(map[uuid.UUID]*Page)}
}

func (d *dirtySet) add(pages ...*Page) {
	for _, page := range pages {
		if page == nil {
			continue
		}
		d.pages[page.ID] = page
	}
}

func (d *dirtySet) ordered() []*Page {
	out := make([]*Page, 0, len(d.pages))
	for _, page := range d.pages {
		out = append(out, page)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out
}
