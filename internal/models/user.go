package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription status constants
const (
	SubscriptionStatusFree    = "free"
	SubscriptionStatusPremium = "premium"
)

// User represents an application user with quit parameters and subscription state.
// QuitDate is stored as the user entered it (either YYYY-MM-DD or a full ISO
// datetime); parsing happens in the progress aggregator at the point of use.
type User struct {
	gorm.Model
	Email            *string `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL"`
	PasswordHash     string  `gorm:"type:text;not null;default:''"`
	Name             string  `gorm:"not null;default:''"`
	TelegramID       *int64  `gorm:"uniqueIndex:idx_users_telegram_not_deleted,where:deleted_at IS NULL"`
	TelegramUsername string  `gorm:"not null;default:''"`

	CigarettesPerDay  int     `gorm:"not null;default:10"`
	CostPerPack       float64 `gorm:"not null;default:10"`
	CigarettesPerPack int     `gorm:"not null;default:20"`
	QuitDate          *string

	SubscriptionStatus string `gorm:"not null;default:'free'"` // enum: 'free' or 'premium'
	SubscriptionEnd    *time.Time
}

// IsPremium reports whether the user currently has an active premium subscription.
func (u *User) IsPremium() bool {
	return u.SubscriptionStatus == SubscriptionStatusPremium
}
