// Package triggers provides craving-trigger logging and pattern analysis.
package triggers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/auth"
	"github.com/nosmoke/nosmoke-api/internal/models"
	"github.com/nosmoke/nosmoke-api/internal/progress"
)

type createRequest struct {
	TriggerType string `json:"trigger_type" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// TriggerResponse is the public representation of a logged trigger.
type TriggerResponse struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"user_id"`
	TriggerType string `json:"trigger_type"`
	Description string `json:"description"`
	Location    string `json:"location"`
	CreatedAt   string `json:"created_at"`
}

func newTriggerResponse(t models.Trigger) TriggerResponse {
	return TriggerResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		TriggerType: t.TriggerType,
		Description: t.Description,
		Location:    t.Location,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateHandler logs a new trigger for the user.
func CreateHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		trigger := models.Trigger{
			UserID:      user.ID,
			TriggerType: req.TriggerType,
			Description: req.Description,
			Location:    req.Location,
		}
		if err := db.WithContext(c.Request.Context()).Create(&trigger).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log trigger"})
			return
		}

		c.JSON(http.StatusOK, newTriggerResponse(trigger))
	}
}

// ListHandler returns the user's triggers from the last N days (default 30),
// newest first.
func ListHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		days := 30
		if v := c.Query("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
				return
			}
			days = n
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		var triggers []models.Trigger
		err := db.WithContext(c.Request.Context()).
			Where("user_id = ? AND created_at >= ?", user.ID, since).
			Order("created_at DESC").
			Limit(1000).
			Find(&triggers).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load triggers"})
			return
		}

		out := make([]TriggerResponse, 0, len(triggers))
		for _, t := range triggers {
			out = append(out, newTriggerResponse(t))
		}
		c.JSON(http.StatusOK, out)
	}
}

// PatternsHandler analyzes the user's full trigger history (no time filter)
// and reports per-type counts and the most frequent types.
func PatternsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var triggers []models.Trigger
		err := db.WithContext(c.Request.Context()).
			Where("user_id = ?", user.ID).
			Order("created_at ASC").
			Find(&triggers).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load triggers"})
			return
		}

		c.JSON(http.StatusOK, progress.TriggerPatterns(triggers))
	}
}
