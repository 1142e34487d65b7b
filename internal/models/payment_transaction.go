package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment status constants
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// PaymentTransaction tracks one checkout session with the payment provider.
// SessionID is the provider's checkout session identifier; ReferenceID is our
// own stable identifier for support and reconciliation.
type PaymentTransaction struct {
	gorm.Model
	ReferenceID   string `gorm:"not null;uniqueIndex"`
	SessionID     string `gorm:"not null;uniqueIndex"`
	UserID        uint   `gorm:"not null;index"`
	User          User   `gorm:"constraint:OnDelete:CASCADE;"`
	PlanID        string `gorm:"not null"`
	Amount        float64
	Currency      string         `gorm:"not null;default:'usd'"`
	PaymentStatus string         `gorm:"not null;default:'pending';index"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	PaidAt        *time.Time
}
