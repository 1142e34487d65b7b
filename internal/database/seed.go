package database

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/models"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	const devEmail = "dev@nosmoke.local"

	// Check if seed data already exists
	var existingUser models.User
	result := db.Where("email = ?", devEmail).First(&existingUser)
	if result.Error == nil {
		slog.Info("Seed data already exists, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("devpassword"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash dev password: %w", err)
	}

	now := time.Now().UTC()
	email := devEmail
	quitDate := now.AddDate(0, 0, -10).Format("2006-01-02")

	user := models.User{
		Email:             &email,
		PasswordHash:      string(hash),
		Name:              "Dev User",
		CigarettesPerDay:  10,
		CostPerPack:       10.0,
		CigarettesPerPack: 20,
		QuitDate:          &quitDate,
	}

	if err := db.Create(&user).Error; err != nil {
		return err
	}

	// A week of sample events: mostly urges and resists, one slip 2 days ago.
	events := []models.Event{
		{UserID: user.ID, EventType: models.EventTypeUrge, Context: "morning coffee", Intensity: 6},
		{UserID: user.ID, EventType: models.EventTypeResisted, Context: "went for a walk", Intensity: 4},
		{UserID: user.ID, EventType: models.EventTypeUrge, Context: "after lunch", Intensity: 7},
		{UserID: user.ID, EventType: models.EventTypeCigarette, Context: "stressful call", Intensity: 8},
		{UserID: user.ID, EventType: models.EventTypeResisted, Context: "chewed gum instead", Intensity: 5},
	}
	offsets := []int{-6, -5, -3, -2, -1}
	for i := range events {
		events[i].CreatedAt = now.AddDate(0, 0, offsets[i])
		if err := db.Create(&events[i]).Error; err != nil {
			return err
		}
	}

	triggers := []models.Trigger{
		{UserID: user.ID, TriggerType: "stress", Description: "deadline pressure", Location: "office"},
		{UserID: user.ID, TriggerType: "stress", Description: "traffic jam", Location: "car"},
		{UserID: user.ID, TriggerType: "social", Description: "friends smoking outside", Location: "bar"},
	}
	for i := range triggers {
		triggers[i].CreatedAt = now.AddDate(0, 0, -i-1)
		if err := db.Create(&triggers[i]).Error; err != nil {
			return err
		}
	}

	slog.Info("Seeded dev data", "user", devEmail, "events", len(events), "triggers", len(triggers))
	return nil
}
