package payments

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/models"
)

// ErrTransactionNotFound is returned when no transaction matches a session.
var ErrTransactionNotFound = errors.New("payment transaction not found")

// FinalizeCheckout marks the transaction for the given session as paid and
// grants the user a premium period sized by the plan. Idempotent: a session
// already recorded as paid is left untouched, so webhook retries and
// concurrent status polls cannot extend a subscription twice.
func FinalizeCheckout(db *gorm.DB, sessionID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var txn models.PaymentTransaction
		if err := tx.Where("session_id = ?", sessionID).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: session %s", ErrTransactionNotFound, sessionID)
			}
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		if txn.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Model(&txn).Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		subscriptionEnd := now.AddDate(0, 0, PeriodDays(txn.PlanID))
		if err := tx.Model(&models.User{}).Where("id = ?", txn.UserID).Updates(map[string]interface{}{
			"subscription_status": models.SubscriptionStatusPremium,
			"subscription_end":    subscriptionEnd,
		}).Error; err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		slog.Info("Subscription activated",
			"user_id", txn.UserID,
			"plan_id", txn.PlanID,
			"session_id", sessionID,
			"subscription_end", subscriptionEnd,
		)
		return nil
	})
}
