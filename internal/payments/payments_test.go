package payments

import (
	"context"
	"encoding/json"
	"errors"
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
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.PaymentTransaction{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{Name: "Test User", SubscriptionStatus: models.SubscriptionStatusFree}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func newPaymentsRouter(db *gorm.DB, provider Provider, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("current_user", user)
	})
	router.GET("/api/subscription/plans", PlansHandler())
	router.POST("/api/subscription/checkout", CreateCheckoutHandler(db, provider))
	router.GET("/api/subscription/status/:session_id", CheckoutStatusHandler(db, provider))
	return router
}

func TestStubProvider(t *testing.T) {
	provider := NewStubProvider()

	session, err := provider.CreateCheckoutSession(context.Background(), CheckoutRequest{
		Amount:      4.99,
		Currency:    "usd",
		ProductName: "Premium Monthly",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(session.SessionID, "cs_stub_") {
		t.Errorf("session ID = %q, want cs_stub_ prefix", session.SessionID)
	}

	status, err := provider.CheckoutStatus(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.PaymentStatus != "paid" {
		t.Errorf("payment_status = %q, want paid", status.PaymentStatus)
	}
	if status.AmountTotal != 499 {
		t.Errorf("amount_total = %d, want 499 cents", status.AmountTotal)
	}

	if _, err := provider.CheckoutStatus(context.Background(), "cs_unknown"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestPeriodDays(t *testing.T) {
	if got := PeriodDays("premium_monthly"); got != 30 {
		t.Errorf("PeriodDays(premium_monthly) = %d, want 30", got)
	}
	if got := PeriodDays("premium_yearly"); got != 365 {
		t.Errorf("PeriodDays(premium_yearly) = %d, want 365", got)
	}
}

func TestCreateCheckoutRecordsPendingTransaction(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	router := newPaymentsRouter(db, NewStubProvider(), user)

	body := `{"plan_id": "premium_monthly", "origin_url": "https://app.example.com/"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		CheckoutURL string `json:"checkout_url"`
		SessionID   string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.CheckoutURL == "" || resp.SessionID == "" {
		t.Fatalf("incomplete response: %+v", resp)
	}

	var txn models.PaymentTransaction
	if err := db.Where("session_id = ?", resp.SessionID).First(&txn).Error; err != nil {
		t.Fatalf("transaction not recorded: %v", err)
	}
	if txn.UserID != user.ID {
		t.Errorf("transaction user_id = %d, want %d", txn.UserID, user.ID)
	}
	if txn.PlanID != "premium_monthly" {
		t.Errorf("transaction plan_id = %q, want premium_monthly", txn.PlanID)
	}
	if txn.Amount != 4.99 {
		t.Errorf("transaction amount = %v, want 4.99 (server-side price)", txn.Amount)
	}
	if txn.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("transaction status = %q, want pending", txn.PaymentStatus)
	}
}

func TestCreateCheckoutRejectsUnknownPlan(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	router := newPaymentsRouter(db, NewStubProvider(), user)

	body := `{"plan_id": "premium_forever", "origin_url": "https://app.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid plan") {
		t.Errorf("unexpected error body: %s", w.Body.String())
	}
}

func TestCheckoutStatusUpgradesSubscription(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	provider := NewStubProvider()
	router := newPaymentsRouter(db, provider, user)

	body := `{"plan_id": "premium_yearly", "origin_url": "https://app.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("checkout create failed: %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/subscription/status/"+created.SessionID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status poll failed: %d: %s", w.Code, w.Body.String())
	}

	var status struct {
		Status        string  `json:"status"`
		PaymentStatus string  `json:"payment_status"`
		Amount        float64 `json:"amount"`
		Currency      string  `json:"currency"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.PaymentStatus != "paid" {
		t.Errorf("payment_status = %q, want paid", status.PaymentStatus)
	}
	if status.Amount != 39.99 {
		t.Errorf("amount = %v, want 39.99", status.Amount)
	}

	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !updated.IsPremium() {
		t.Fatalf("subscription_status = %q, want premium", updated.SubscriptionStatus)
	}
	if updated.SubscriptionEnd == nil {
		t.Fatal("expected subscription_end to be set")
	}
	wantEnd := time.Now().UTC().AddDate(0, 0, 365)
	if diff := updated.SubscriptionEnd.Sub(wantEnd); diff < -time.Minute || diff > time.Minute {
		t.Errorf("subscription_end = %v, want about %v", updated.SubscriptionEnd, wantEnd)
	}

	var txn models.PaymentTransaction
	if err := db.Where("session_id = ?", created.SessionID).First(&txn).Error; err != nil {
		t.Fatalf("failed to reload transaction: %v", err)
	}
	if txn.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("transaction status = %q, want paid", txn.PaymentStatus)
	}
	if txn.PaidAt == nil {
		t.Error("expected paid_at to be set")
	}
}

func TestFinalizeCheckoutIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	txn := models.PaymentTransaction{
		ReferenceID:   "ref-1",
		SessionID:     "cs_test_1",
		UserID:        user.ID,
		PlanID:        "premium_monthly",
		Amount:        4.99,
		Currency:      "usd",
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}

	if err := FinalizeCheckout(db, "cs_test_1"); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}

	var afterFirst models.User
	if err := db.First(&afterFirst, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	firstEnd := *afterFirst.SubscriptionEnd

	// Webhook retries and concurrent polls must not extend the period again.
	if err := FinalizeCheckout(db, "cs_test_1"); err != nil {
		t.Fatalf("second finalize failed: %v", err)
	}

	var afterSecond models.User
	if err := db.First(&afterSecond, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !afterSecond.SubscriptionEnd.Equal(firstEnd) {
		t.Errorf("subscription_end moved from %v to %v on repeat finalize", firstEnd, afterSecond.SubscriptionEnd)
	}
}

func TestFinalizeCheckoutUnknownSession(t *testing.T) {
	db := newTestDB(t)

	err := FinalizeCheckout(db, "cs_missing")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}
