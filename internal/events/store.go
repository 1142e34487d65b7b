// Package events provides the append-only event log: logging endpoints and
// the read interface consumed by the progress aggregator.
package events

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/models"
)

// Query narrows an event-log read. Zero values mean "no filter".
// Since/Until bounds are inclusive on both ends.
type Query struct {
	EventType string
	Since     *time.Time
	Until     *time.Time
	Desc      bool
	Limit     int
}

// Store is the gorm-backed event log. It only ever reads and appends;
// events are immutable once created.
type Store struct {
	db *gorm.DB
}

// NewStore creates an event log store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create appends a new event for the user.
func (s *Store) Create(ctx context.Context, event *models.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// FindEvents returns the user's events matching the query, ordered by
// created_at (ascending unless Desc is set).
func (s *Store) FindEvents(ctx context.Context, userID uint, q Query) ([]models.Event, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if q.EventType != "" {
		tx = tx.Where("event_type = ?", q.EventType)
	}
	if q.Since != nil {
		tx = tx.Where("created_at >= ?", *q.Since)
	}
	if q.Until != nil {
		tx = tx.Where("created_at <= ?", *q.Until)
	}
	if q.Desc {
		tx = tx.Order("created_at DESC")
	} else {
		tx = tx.Order("created_at ASC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var events []models.Event
	if err := tx.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

// CountEvents counts the user's events, optionally restricted to one type.
func (s *Store) CountEvents(ctx context.Context, userID uint, eventType string) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Event{}).Where("user_id = ?", userID)
	if eventType != "" {
		tx = tx.Where("event_type = ?", eventType)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
