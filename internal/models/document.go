package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document kinds stored in the entity table.
const (
	KindPackage = "package"
	KindAction  = "action"
	KindTrigger = "trigger"
)

// Document stores one whisk entity (package, action, or trigger) as an
// opaque JSON body keyed by its qualified document ID.
type Document struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	DocID string `gorm:"type:text;not null;uniqueIndex:idx_documents_doc_kind,priority:1"` // namespace/[package/]name.
	Kind  string `gorm:"type:text;not null;uniqueIndex:idx_documents_doc_kind,priority:2"` // Entity kind.

	Namespace string `gorm:"type:text;not null;index"` // Owning namespace.
	Name      string `gorm:"type:text;not null"`       // Entity name.

	Content datatypes.JSON `gorm:"type:jsonb;not null"` // Entity document body.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
