package redirects

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Redirect maps a retired page path to its current location within a locale.
type Redirect struct {
	bun.BaseModel `bun:"table:redirects,alias:r"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	LocaleID   uuid.UUID `bun:"locale_id,notnull,type:uuid" json:"locale_id"`
	FromPath   string    `bun:"from_path,notnull" json:"from_path"`
	ToPath     string    `bun:"to_path,notnull" json:"to_path"`
	StatusCode int       `bun:"status_code,notnull,default:301" json:"status_code"`
	IsActive   bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedBy  uuid.UUID `bun:"created_by,type:uuid" json:"created_by"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Change is one path rewrite the registry should absorb.
type Change struct {
	PageID  uuid.UUID `json:"page_id"`
	OldPath string    `json:"old_path"`
	NewPath string    `json:"new_path"`
}
