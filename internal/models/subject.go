package models

import "time"

// Subject stores an authenticated principal and its basic-auth key pair.
// The key must stay recoverable: it is replayed verbatim as outbound
// basic-auth credentials when the controller invokes actions.
type Subject struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Subject   string `gorm:"type:text;not null;uniqueIndex"` // Principal name.
	Namespace string `gorm:"type:text;not null;index"`       // Default namespace.

	UUID string `gorm:"column:uuid;type:text;not null;uniqueIndex"` // Basic-auth user.
	Key  string `gorm:"type:text;not null"`                         // Basic-auth password.

	Blocked bool `gorm:"type:boolean;not null;default:false"` // Rejects authentication when set.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
