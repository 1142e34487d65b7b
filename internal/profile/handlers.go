// Package profile provides account settings and account-level statistics.
package profile

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/auth"
	"github.com/nosmoke/nosmoke-api/internal/events"
	"github.com/nosmoke/nosmoke-api/internal/models"
)

type updateRequest struct {
	Name              *string  `json:"name"`
	CigarettesPerDay  *int     `json:"cigarettes_per_day"`
	CostPerPack       *float64 `json:"cost_per_pack"`
	CigarettesPerPack *int     `json:"cigarettes_per_pack"`
	QuitDate          *string  `json:"quit_date"`
}

// UpdateHandler partially updates the user's profile; only fields present in
// the request change.
func UpdateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.CigarettesPerDay != nil {
			updates["cigarettes_per_day"] = *req.CigarettesPerDay
		}
		if req.CostPerPack != nil {
			updates["cost_per_pack"] = *req.CostPerPack
		}
		if req.CigarettesPerPack != nil {
			updates["cigarettes_per_pack"] = *req.CigarettesPerPack
		}
		if req.QuitDate != nil {
			updates["quit_date"] = *req.QuitDate
		}

		if len(updates) > 0 {
			if err := db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
				return
			}
		}

		c.JSON(http.StatusOK, auth.NewUserResponse(user))
	}
}

// StatsHandler returns account-level totals and subscription state.
func StatsHandler(db *gorm.DB, store *events.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		ctx := c.Request.Context()

		totalEvents, err := store.CountEvents(ctx, user.ID, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count events"})
			return
		}

		var totalTriggers int64
		if err := db.WithContext(ctx).Model(&models.Trigger{}).Where("user_id = ?", user.ID).Count(&totalTriggers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count triggers"})
			return
		}

		var subEnd *string
		if user.SubscriptionEnd != nil {
			s := user.SubscriptionEnd.UTC().Format(time.RFC3339)
			subEnd = &s
		}

		c.JSON(http.StatusOK, gin.H{
			"total_events_logged":   totalEvents,
			"total_triggers_logged": totalTriggers,
			"subscription_status":   user.SubscriptionStatus,
			"subscription_end":      subEnd,
			"member_since":          user.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}
