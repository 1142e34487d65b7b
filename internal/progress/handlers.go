package progress

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nosmoke/nosmoke-api/internal/auth"
)

// SummaryHandler returns the overall progress summary.
func SummaryHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		summary, err := agg.Summary(c.Request.Context(), user)
		if errors.Is(err, ErrZeroPackSize) || errors.Is(err, ErrInvalidQuitDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute summary"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// WeeklyHandler returns the 7-day daily breakdown for charts.
func WeeklyHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		days, err := agg.Daily(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute daily progress"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"days": days})
	}
}

// MonthlyHandler returns the 4-week breakdown for charts.
func MonthlyHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		weeks, err := agg.Weekly(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute weekly progress"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"weeks": weeks})
	}
}
