package auth

import (
	"time"

	"github.com/nosmoke/nosmoke-api/internal/models"
)

// UserResponse is the public representation of a user account.
type UserResponse struct {
	ID                uint    `json:"id"`
	Email             *string `json:"email"`
	Name              string  `json:"name"`
	TelegramID        *int64  `json:"telegram_id,omitempty"`
	CigarettesPerDay  int     `json:"cigarettes_per_day"`
	CostPerPack       float64 `json:"cost_per_pack"`
	CigarettesPerPack int     `json:"cigarettes_per_pack"`
	QuitDate          *string `json:"quit_date"`
	SubscriptionStatus string `json:"subscription_status"`
	SubscriptionEnd   *string `json:"subscription_end"`
	CreatedAt         string  `json:"created_at"`
}

// TokenResponse is returned by register/login endpoints.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// NewUserResponse maps a user model to its public representation.
func NewUserResponse(u *models.User) UserResponse {
	var subEnd *string
	if u.SubscriptionEnd != nil {
		s := u.SubscriptionEnd.UTC().Format(time.RFC3339)
		subEnd = &s
	}

	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		TelegramID:         u.TelegramID,
		CigarettesPerDay:   u.CigarettesPerDay,
		CostPerPack:        u.CostPerPack,
		CigarettesPerPack:  u.CigarettesPerPack,
		QuitDate:           u.QuitDate,
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionEnd:    subEnd,
		CreatedAt:          u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
