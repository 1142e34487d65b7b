package models

import "gorm.io/gorm"

// Event type constants — closed enumeration.
const (
	EventTypeCigarette = "cigarette"
	EventTypeUrge      = "urge"
	EventTypeResisted  = "resisted"
)

// Event is an append-only log record of a smoking-related moment.
// CreatedAt (from gorm.Model) is the event timestamp: assigned once at
// insertion, stored in UTC, never edited. There is no update/delete path.
type Event struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index:idx_events_user_created"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	EventType string `gorm:"not null;index"` // enum: cigarette, urge, resisted
	Context   string `gorm:"not null;default:''"`
	Intensity int    `gorm:"not null;default:5"` // 1-10 scale for urges
}
