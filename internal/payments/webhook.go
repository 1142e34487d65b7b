package payments

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82/webhook"
)

// webhookDedupeTTL is how long a processed provider event ID is remembered.
const webhookDedupeTTL = 24 * time.Hour

// WebhookHandler receives Stripe events. Signatures are verified when a
// webhook secret is configured; completed checkout sessions are handed to the
// enqueue function (a background task finalizes them). Event IDs are deduped
// in Redis because Stripe delivers at-least-once; with no Redis client the
// handler still works, relying on FinalizeCheckout's idempotency.
func WebhookHandler(secret string, rdb *redis.Client, enqueue func(sessionID string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
			return
		}

		eventType := ""
		eventID := ""
		var sessionData struct {
			ID string `json:"id"`
		}

		if secret != "" {
			event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
			if err != nil {
				slog.Warn("Rejected webhook with bad signature", "error", err)
				c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
				return
			}
			eventType = string(event.Type)
			eventID = event.ID
			if err := json.Unmarshal(event.Data.Raw, &sessionData); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
				return
			}
		} else {
			// No secret configured (dev/stub mode): accept unsigned events.
			var event struct {
				ID   string `json:"id"`
				Type string `json:"type"`
				Data struct {
					Object json.RawMessage `json:"object"`
				} `json:"data"`
			}
			if err := json.Unmarshal(payload, &event); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
				return
			}
			eventType = event.Type
			eventID = event.ID
			if len(event.Data.Object) > 0 {
				if err := json.Unmarshal(event.Data.Object, &sessionData); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
					return
				}
			}
		}

		slog.Info("Received payment webhook", "event_type", eventType, "event_id", eventID)

		if eventType != "checkout.session.completed" || sessionData.ID == "" {
			c.JSON(http.StatusOK, gin.H{"status": "received"})
			return
		}

		if rdb != nil && eventID != "" {
			fresh, err := rdb.SetNX(c.Request.Context(), "stripe:event:"+eventID, 1, webhookDedupeTTL).Result()
			if err != nil {
				slog.Warn("Webhook dedupe check failed, processing anyway", "error", err)
			} else if !fresh {
				c.JSON(http.StatusOK, gin.H{"status": "received"})
				return
			}
		}

		if err := enqueue(sessionData.ID); err != nil {
			slog.Error("Failed to enqueue checkout finalization", "session_id", sessionData.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}
}
