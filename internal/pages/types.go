package pages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Page is a node of the locale-scoped content tree. The path column is
// materialized from the ancestor chain; position is the dense zero-based rank
// among siblings sharing the same (locale_id, parent_id).
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID          uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	LocaleID    uuid.UUID  `bun:"locale_id,notnull,type:uuid" json:"locale_id"`
	ParentID    *uuid.UUID `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	Slug        string     `bun:"slug,notnull" json:"slug"`
	Path        string     `bun:"path,notnull" json:"path"`
	Position    int        `bun:"position,notnull" json:"position"`
	Title       string     `bun:"title,notnull" json:"title"`
	Status      string     `bun:"status,notnull,default:'draft'" json:"status"`
	PublishAt   *time.Time `bun:"publish_at,nullzero" json:"publish_at,omitempty"`
	UnpublishAt *time.Time `bun:"unpublish_at,nullzero" json:"unpublish_at,omitempty"`
	PublishedAt *time.Time `bun:"published_at,nullzero" json:"published_at,omitempty"`
	IsHomepage  bool       `bun:"is_homepage,notnull,default:false" json:"is_homepage"`
	InMainMenu  bool       `bun:"in_main_menu,notnull,default:false" json:"in_main_menu"`
	InFooter    bool       `bun:"in_footer,notnull,default:false" json:"in_footer"`
	CreatedBy   uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by"`
	UpdatedBy   uuid.UUID  `bun:"updated_by,notnull,type:uuid" json:"updated_by"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// PathChange records a single materialized path rewrite. Move, Rename, and
// Rebuild surface these so callers can register redirects or reindex.
type PathChange struct {
	PageID  uuid.UUID `json:"page_id"`
	OldPath string    `json:"old_path"`
	NewPath string    `json:"new_path"`
}

// MoveResult bundles the updated page with every path rewritten by the move.
type MoveResult struct {
	Page        *Page        `json:"page"`
	PathChanges []PathChange `json:"path_changes,omitempty"`
}

// RebuildResult reports what a repair pass touched. A second run over an
// unchanged tree reports zero rewrites.
type RebuildResult struct {
	PagesScanned       int          `json:"pages_scanned"`
	PathsRewritten     int          `json:"paths_rewritten"`
	PositionsRewritten int          `json:"positions_rewritten"`
	PathChanges        []PathChange `json:"path_changes,omitempty"`
	DryRun             bool         `json:"dry_run"`
}
