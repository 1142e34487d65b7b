package models

import "gorm.io/gorm"

// Trigger records a situation that provoked a craving.
type Trigger struct {
	gorm.Model
	UserID      uint   `gorm:"not null;index"`
	User        User   `gorm:"constraint:OnDelete:CASCADE;"`
	TriggerType string `gorm:"not null;index"` // e.g. stress, boredom, social, habit, other
	Description string `gorm:"not null;default:''"`
	Location    string `gorm:"not null;default:''"`
}
