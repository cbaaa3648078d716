package models

import (
	"time"

	"gorm.io/datatypes"
)

// TriggerActivation records one trigger firing: identity, timing, the
// aggregate response, and one formatted log line per fan-out rule.
// Rows are written once and never mutated.
type TriggerActivation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ActivationID string `gorm:"type:text;not null;uniqueIndex"` // Activation token.

	Namespace  string `gorm:"type:text;not null;index"` // Caller namespace.
	EntityName string `gorm:"type:text;not null"`       // Trigger name.
	Subject    string `gorm:"type:text;not null"`       // Firing principal.

	Start time.Time `gorm:"not null"` // Firing time.
	End   time.Time `gorm:"not null"` // Fan-out completion time.

	Version    string `gorm:"type:text;not null;default:'0.0.1'"` // Document schema version.
	DurationMS int64  `gorm:"not null;default:0"`                 // End minus start, milliseconds.

	Response datatypes.JSON `gorm:"type:jsonb"`          // Aggregate outcome summary.
	Logs     datatypes.JSON `gorm:"type:jsonb;not null"` // Ordered formatted log lines.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Row creation timestamp.
}
