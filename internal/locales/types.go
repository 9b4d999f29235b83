package locales

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale represents the languages a tree can be partitioned by. Paths and
// sibling positions are only unique within one locale.
type Locale struct {
	bun.BaseModel `bun:"table:locales,alias:l"`

	ID         uuid.UUID  `bun:",pk,type:uuid"         json:"id"`
	Code       string     `bun:"code,notnull"          json:"code"`
	Display    string     `bun:"display_name,notnull"  json:"display_name"`
	NativeName *string    `bun:"native_name"           json:"native_name,omitempty"`
	IsActive   bool       `bun:"is_active,notnull,default:true"   json:"is_active"`
	IsDefault  bool       `bun:"is_default,notnull,default:false" json:"is_default"`
	DeletedAt  *time.Time `bun:"deleted_at,nullzero"   json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}
