package events

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nosmoke/nosmoke-api/internal/models"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Event{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return NewStore(db), db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func seedEvent(t *testing.T, store *Store, userID uint, eventType string, at time.Time) {
	t.Helper()

	event := &models.Event{UserID: userID, EventType: eventType, Intensity: 5}
	event.CreatedAt = at
	if err := store.Create(context.Background(), event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
}

func TestFindEventsTypeFilter(t *testing.T) {
	store, db := newTestStore(t)
	user := seedUser(t, db)
	now := time.Now().UTC()

	seedEvent(t, store, user.ID, models.EventTypeCigarette, now.Add(-3*time.Hour))
	seedEvent(t, store, user.ID, models.EventTypeUrge, now.Add(-2*time.Hour))
	seedEvent(t, store, user.ID, models.EventTypeUrge, now.Add(-1*time.Hour))

	urges, err := store.FindEvents(context.Background(), user.ID, Query{EventType: models.EventTypeUrge})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urges) != 2 {
		t.Errorf("expected 2 urges, got %d", len(urges))
	}
}

func TestFindEventsDescendingWithLimit(t *testing.T) {
	store, db := newTestStore(t)
	user := seedUser(t, db)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		seedEvent(t, store, user.ID, models.EventTypeUrge, now.Add(-time.Duration(i)*time.Hour))
	}

	events, err := store.FindEvents(context.Background(), user.ID, Query{Desc: true, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt.After(events[i-1].CreatedAt) {
			t.Errorf("events not in descending order at index %d", i)
		}
	}
}

func TestFindEventsInclusiveRange(t *testing.T) {
	store, db := newTestStore(t)
	user := seedUser(t, db)

	since := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)

	seedEvent(t, store, user.ID, models.EventTypeUrge, since)                    // on the lower bound
	seedEvent(t, store, user.ID, models.EventTypeUrge, until)                    // on the upper bound
	seedEvent(t, store, user.ID, models.EventTypeUrge, since.Add(-time.Second)) // just outside
	seedEvent(t, store, user.ID, models.EventTypeUrge, until.Add(time.Second))  // just outside

	events, err := store.FindEvents(context.Background(), user.ID, Query{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events inside inclusive bounds, got %d", len(events))
	}
}

func TestFindEventsScopedToUser(t *testing.T) {
	store, db := newTestStore(t)
	alice := seedUser(t, db)
	bob := seedUser(t, db)
	now := time.Now().UTC()

	seedEvent(t, store, alice.ID, models.EventTypeUrge, now)
	seedEvent(t, store, bob.ID, models.EventTypeUrge, now)

	events, err := store.FindEvents(context.Background(), alice.ID, Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected only alice's event, got %d events", len(events))
	}
}

func TestCountEvents(t *testing.T) {
	store, db := newTestStore(t)
	user := seedUser(t, db)
	now := time.Now().UTC()

	seedEvent(t, store, user.ID, models.EventTypeCigarette, now.Add(-3*time.Hour))
	seedEvent(t, store, user.ID, models.EventTypeUrge, now.Add(-2*time.Hour))
	seedEvent(t, store, user.ID, models.EventTypeResisted, now.Add(-1*time.Hour))

	total, err := store.CountEvents(context.Background(), user.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("total count = %d, want 3", total)
	}

	cigarettes, err := store.CountEvents(context.Background(), user.ID, models.EventTypeCigarette)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cigarettes != 1 {
		t.Errorf("cigarette count = %d, want 1", cigarettes)
	}
}
