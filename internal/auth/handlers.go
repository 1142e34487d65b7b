package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/models"
)

type registerRequest struct {
	Email             string   `json:"email" binding:"required,email"`
	Password          string   `json:"password" binding:"required"`
	Name              string   `json:"name" binding:"required"`
	CigarettesPerDay  *int     `json:"cigarettes_per_day"`
	CostPerPack       *float64 `json:"cost_per_pack"`
	CigarettesPerPack *int     `json:"cigarettes_per_pack"`
	QuitDate          *string  `json:"quit_date"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type telegramRequest struct {
	InitData   string `json:"init_data"`
	TelegramID int64  `json:"telegram_id" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
}

// RegisterHandler creates a new account and returns an access token.
// Quit parameters default to the original app's baseline (10/day, $10 pack
// of 20); quit_date defaults to the registration date.
func RegisterHandler(db *gorm.DB, secret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var existing models.User
		if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
			return
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
			return
		}

		user := models.User{
			Email:             &req.Email,
			PasswordHash:      hash,
			Name:              req.Name,
			CigarettesPerDay:  10,
			CostPerPack:       10.0,
			CigarettesPerPack: 20,
		}
		if req.CigarettesPerDay != nil {
			user.CigarettesPerDay = *req.CigarettesPerDay
		}
		if req.CostPerPack != nil {
			user.CostPerPack = *req.CostPerPack
		}
		if req.CigarettesPerPack != nil {
			user.CigarettesPerPack = *req.CigarettesPerPack
		}
		if req.QuitDate != nil && *req.QuitDate != "" {
			user.QuitDate = req.QuitDate
		} else {
			today := time.Now().UTC().Format("2006-01-02")
			user.QuitDate = &today
		}

		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
			return
		}

		issueToken(c, &user, secret, tokenTTL)
	}
}

// LoginHandler verifies credentials and returns an access token.
func LoginHandler(db *gorm.DB, secret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		err := db.Where("email = ?", req.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !CheckPassword(req.Password, user.PasswordHash)) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
			return
		}

		issueToken(c, &user, secret, tokenTTL)
	}
}

// TelegramHandler authenticates a Telegram Mini App user, creating the
// account on first login. The telegram_id from the client is trusted;
// init_data verification against the bot token is a deployment concern.
func TelegramHandler(db *gorm.DB, secret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req telegramRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		err := db.Where("telegram_id = ?", req.TelegramID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			today := time.Now().UTC().Format("2006-01-02")
			user = models.User{
				TelegramID:        &req.TelegramID,
				TelegramUsername:  req.Username,
				Name:              strings.TrimSpace(req.FirstName + " " + req.LastName),
				CigarettesPerDay:  10,
				CostPerPack:       10.0,
				CigarettesPerPack: 20,
				QuitDate:          &today,
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
				return
			}
			slog.Info("Created user from Telegram login", "user_id", user.ID, "telegram_id", req.TelegramID)
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
			return
		}

		issueToken(c, &user, secret, tokenTTL)
	}
}

// MeHandler returns the authenticated user's account.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, NewUserResponse(CurrentUser(c)))
	}
}

func issueToken(c *gin.Context, user *models.User, secret string, ttl time.Duration) {
	token, err := NewToken(secret, user.ID, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        NewUserResponse(user),
	})
}
