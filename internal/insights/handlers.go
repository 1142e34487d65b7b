package insights

import (
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nosmoke/nosmoke-api/internal/auth"
)

// ListHandler returns the insight cards visible to the user (premium cards
// only for premium subscribers) plus a random daily tip.
func ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		isPremium := user.IsPremium()

		visible := make([]Insight, 0, len(allInsights))
		for _, insight := range allInsights {
			if !insight.Premium || isPremium {
				visible = append(visible, insight)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"insights":   visible,
			"daily_tip":  dailyTips[rand.Intn(len(dailyTips))],
			"is_premium": isPremium,
		})
	}
}

// EducationHandler returns the educational articles and health milestone
// timeline. Public content, same for every user.
func EducationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"articles":   educationArticles,
			"milestones": healthMilestones,
		})
	}
}
