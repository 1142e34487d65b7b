package events

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nosmoke/nosmoke-api/internal/auth"
	"github.com/nosmoke/nosmoke-api/internal/models"
)

const defaultListLimit = 1000

type createRequest struct {
	EventType string `json:"event_type" binding:"required,oneof=cigarette urge resisted"`
	Context   string `json:"context"`
	Intensity *int   `json:"intensity"`
}

// EventResponse is the public representation of a logged event.
type EventResponse struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	EventType string `json:"event_type"`
	Context   string `json:"context"`
	Intensity int    `json:"intensity"`
	CreatedAt string `json:"created_at"`
}

func newEventResponse(e models.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		EventType: e.EventType,
		Context:   e.Context,
		Intensity: e.Intensity,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateHandler logs a new urge/cigarette/resisted event for the user.
func CreateHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		intensity := 5
		if req.Intensity != nil {
			intensity = *req.Intensity
		}

		event := models.Event{
			UserID:    user.ID,
			EventType: req.EventType,
			Context:   req.Context,
			Intensity: intensity,
		}
		if err := store.Create(c.Request.Context(), &event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log event"})
			return
		}

		c.JSON(http.StatusOK, newEventResponse(event))
	}
}

// ListHandler returns the user's events from the last N days (default 7),
// newest first, optionally filtered by event_type.
func ListHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		days := 7
		if v := c.Query("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
				return
			}
			days = n
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		events, err := store.FindEvents(c.Request.Context(), user.ID, Query{
			EventType: c.Query("event_type"),
			Since:     &since,
			Desc:      true,
			Limit:     defaultListLimit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
			return
		}

		out := make([]EventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, newEventResponse(e))
		}
		c.JSON(http.StatusOK, out)
	}
}

// TodayHandler returns today's per-type counts, the last cigarette time
// (falling back to quit_date if none logged), and the last 10 events.
func TodayHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		ctx := c.Request.Context()

		now := time.Now().UTC()
		todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		events, err := store.FindEvents(ctx, user.ID, Query{Since: &todayStart})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
			return
		}

		var cigarettes, urges, resisted int
		for _, e := range events {
			switch e.EventType {
			case models.EventTypeCigarette:
				cigarettes++
			case models.EventTypeUrge:
				urges++
			case models.EventTypeResisted:
				resisted++
			}
		}

		lastCigarettes, err := store.FindEvents(ctx, user.ID, Query{
			EventType: models.EventTypeCigarette,
			Desc:      true,
			Limit:     1,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
			return
		}

		var lastCigarette *string
		if len(lastCigarettes) > 0 {
			s := lastCigarettes[0].CreatedAt.UTC().Format(time.RFC3339)
			lastCigarette = &s
		} else {
			lastCigarette = user.QuitDate
		}

		recent := events
		if len(recent) > 10 {
			recent = recent[len(recent)-10:]
		}
		recentOut := make([]EventResponse, 0, len(recent))
		for _, e := range recent {
			recentOut = append(recentOut, newEventResponse(e))
		}

		c.JSON(http.StatusOK, gin.H{
			"cigarettes_today": cigarettes,
			"urges_today":      urges,
			"resisted_today":   resisted,
			"last_cigarette":   lastCigarette,
			"events":           recentOut,
		})
	}
}
