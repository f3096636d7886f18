package service

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
)

// AuthService protects the admin API with a TOTP code carried in the
// X-Admin-Token header. When no secret is configured, auth is disabled.
type AuthService struct {
	logger     *zap.Logger
	totpSecret string
}

func NewAuthService(logger *zap.Logger, totpSecret string) *AuthService {
	return &AuthService{
		logger:     logger,
		totpSecret: totpSecret,
	}
}

func (a *AuthService) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Draftmill Admin",
		AccountName: "admin",
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), nil
}

func (a *AuthService) ValidateToken(token string) bool {
	valid := totp.Validate(token, a.totpSecret)
	if !valid {
		a.logger.Warn("TOTP token validation failed")
	}
	return valid
}

// Middleware rejects requests without a valid TOTP code. It is applied to
// the mutating route groups only; reads and the health check stay open.
func (a *AuthService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.totpSecret == "" {
			c.Next()
			return
		}

		token := c.GetHeader("X-Admin-Token")
		if token == "" || !a.ValidateToken(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
