package models

// LedgerDocument stores a user's complete accounting state as one encoded
// document, so a save is a single row write.
type LedgerDocument struct {
	Base
	UserID        uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	SchemaVersion int    `gorm:"not null;default:1" json:"schema_version"`
	State         string `gorm:"type:text;not null" json:"-"`
}
