package service

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/config"
)

const sessionTTL = 12 * time.Hour

// AuthService gates the API behind TOTP codes. A valid code buys a
// short-lived session token; everything is kept in memory since the
// dashboard has a single operator.
type AuthService struct {
	config *config.AuthConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewAuthService(cfg *config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		config:   cfg,
		logger:   logger,
		sessions: make(map[string]time.Time),
	}
}

func (a *AuthService) ValidateCode(code string) bool {
	valid := totp.Validate(code, a.config.TOTPSecret)
	if !valid {
		a.logger.Warn("TOTP code validation failed")
	}
	return valid
}

// CreateSession mints a session token after a successful code validation.
func (a *AuthService) CreateSession() string {
	buf := make([]byte, 24)
	rand.Read(buf)
	token := hex.EncodeToString(buf)

	a.mu.Lock()
	a.sessions[token] = time.Now().Add(sessionTTL)
	a.mu.Unlock()

	return token
}

func (a *AuthService) isValidSession(token string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	expiry, ok := a.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(a.sessions, token)
		return false
	}
	return true
}

// Middleware rejects requests without a live session cookie. The login
// endpoint itself stays open.
func (a *AuthService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.config.Enabled || c.Request.URL.Path == "/api/v1/auth/login" {
			c.Next()
			return
		}

		token, err := c.Cookie("auth_token")
		if err != nil || !a.isValidSession(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
