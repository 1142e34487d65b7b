package payments

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/auth"
	"github.com/nosmoke/nosmoke-api/internal/models"
)

type checkoutRequest struct {
	PlanID    string `json:"plan_id" binding:"required"`
	OriginURL string `json:"origin_url" binding:"required,url"`
}

// PlansHandler lists the available subscription plans.
func PlansHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"plans": Plans})
	}
}

// CreateCheckoutHandler creates a provider checkout session for a plan and
// records a pending payment transaction.
func CreateCheckoutHandler(db *gorm.DB, provider Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		plan, ok := Plans[req.PlanID]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
			return
		}

		origin := strings.TrimRight(req.OriginURL, "/")
		referenceID := uuid.NewString()

		session, err := provider.CreateCheckoutSession(c.Request.Context(), CheckoutRequest{
			Amount:      plan.Price,
			Currency:    "usd",
			ProductName: plan.Name,
			SuccessURL:  origin + "/profile?session_id={CHECKOUT_SESSION_ID}&status=success",
			CancelURL:   origin + "/profile?status=cancelled",
			Metadata: map[string]string{
				"reference_id": referenceID,
				"plan_id":      req.PlanID,
				"plan_name":    plan.Name,
			},
		})
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create checkout session"})
			return
		}

		metadata, _ := json.Marshal(map[string]string{"plan_name": plan.Name, "origin_url": origin})
		txn := models.PaymentTransaction{
			ReferenceID:   referenceID,
			SessionID:     session.SessionID,
			UserID:        user.ID,
			PlanID:        req.PlanID,
			Amount:        plan.Price,
			Currency:      "usd",
			PaymentStatus: models.PaymentStatusPending,
			Metadata:      datatypes.JSON(metadata),
		}
		if err := db.WithContext(c.Request.Context()).Create(&txn).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"checkout_url": session.URL,
			"session_id":   session.SessionID,
		})
	}
}

// CheckoutStatusHandler polls the provider for a session's state. The first
// time a session is observed paid, the transaction and the user's
// subscription are updated.
func CheckoutStatusHandler(db *gorm.DB, provider Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")

		status, err := provider.CheckoutStatus(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not fetch payment status"})
			return
		}

		if status.PaymentStatus == "paid" {
			if err := FinalizeCheckout(db, sessionID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":         status.Status,
			"payment_status": status.PaymentStatus,
			"amount":         float64(status.AmountTotal) / 100,
			"currency":       status.Currency,
		})
	}
}
