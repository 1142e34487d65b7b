package triggers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nosmoke/nosmoke-api/internal/models"
	"github.com/nosmoke/nosmoke-api/internal/progress"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Trigger{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func newTriggersRouter(db *gorm.DB, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("current_user", user)
	})
	router.POST("/api/triggers", CreateHandler(db))
	router.GET("/api/triggers", ListHandler(db))
	router.GET("/api/triggers/patterns", PatternsHandler(db))
	return router
}

func seedTrigger(t *testing.T, db *gorm.DB, userID uint, triggerType string, at time.Time) {
	t.Helper()

	trigger := &models.Trigger{UserID: userID, TriggerType: triggerType}
	trigger.CreatedAt = at
	if err := db.Create(trigger).Error; err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}
}

func TestCreateTrigger(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	router := newTriggersRouter(db, user)

	body := `{"trigger_type": "stress", "description": "deadline pressure", "location": "office"}`
	req := httptest.NewRequest(http.MethodPost, "/api/triggers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp TriggerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TriggerType != "stress" {
		t.Errorf("trigger_type = %q, want stress", resp.TriggerType)
	}
	if resp.Location != "office" {
		t.Errorf("location = %q, want office", resp.Location)
	}
}

func TestCreateTriggerRequiresType(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	router := newTriggersRouter(db, user)

	req := httptest.NewRequest(http.MethodPost, "/api/triggers", strings.NewReader(`{"description": "no type"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestListTriggersWindow(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	router := newTriggersRouter(db, user)
	now := time.Now().UTC()

	seedTrigger(t, db, user.ID, "stress", now.AddDate(0, 0, -1))
	seedTrigger(t, db, user.ID, "social", now.AddDate(0, 0, -10))
	seedTrigger(t, db, user.ID, "boredom", now.AddDate(0, 0, -45)) // outside default window

	req := httptest.NewRequest(http.MethodGet, "/api/triggers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp []TriggerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 triggers in default 30-day window, got %d", len(resp))
	}
	if resp[0].TriggerType != "stress" {
		t.Errorf("expected newest trigger first, got %q", resp[0].TriggerType)
	}
}

func TestPatternsUseFullHistory(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Name: "Test User"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	router := newTriggersRouter(db, user)
	now := time.Now().UTC()

	// The old trigger beyond the list window still counts for patterns.
	seedTrigger(t, db, user.ID, "stress", now.AddDate(0, 0, -100))
	seedTrigger(t, db, user.ID, "stress", now.AddDate(0, 0, -2))
	seedTrigger(t, db, user.ID, "social", now.AddDate(0, 0, -1))

	req := httptest.NewRequest(http.MethodGet, "/api/triggers/patterns", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp progress.PatternSummary
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalTriggers != 3 {
		t.Errorf("total_triggers = %d, want 3", resp.TotalTriggers)
	}
	if resp.MostCommon == nil || *resp.MostCommon != "stress" {
		t.Errorf("most_common = %v, want stress", resp.MostCommon)
	}
	if resp.ByType["stress"] != 2 || resp.ByType["social"] != 1 {
		t.Errorf("unexpected by_type: %v", resp.ByType)
	}
}
