package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled    bool
	HeaderName string   // Default: "X-API-Key"
	Keys       []string // accepted keys, plaintext from config or env
}

// DefaultAuthConfig returns the default auth configuration
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		Enabled:    false,
		HeaderName: "X-API-Key",
	}
}

// HashAPIKey creates a SHA-256 hash of an API key
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Authenticator validates API keys against a fixed set. Only hashes are kept.
type Authenticator struct {
	config *AuthConfig
	hashes [][]byte
}

// NewAuthenticator creates an authenticator. A nil config disables auth.
func NewAuthenticator(config *AuthConfig) *Authenticator {
	if config == nil {
		config = DefaultAuthConfig()
	}
	if config.HeaderName == "" {
		config.HeaderName = DefaultAuthConfig().HeaderName
	}

	a := &Authenticator{config: config}
	for _, k := range config.Keys {
		if k = strings.TrimSpace(k); k != "" {
			a.hashes = append(a.hashes, []byte(HashAPIKey(k)))
		}
	}
	return a
}

// Enabled reports whether requests must carry a key
func (a *Authenticator) Enabled() bool {
	return a.config.Enabled
}

// Valid reports whether key is one of the configured keys
func (a *Authenticator) Valid(key string) bool {
	h := []byte(HashAPIKey(key))
	valid := false
	for _, want := range a.hashes {
		if subtle.ConstantTimeCompare(h, want) == 1 {
			valid = true
		}
	}
	return valid
}

// extractKey reads the configured header, then Authorization: Bearer
func (a *Authenticator) extractKey(c *gin.Context) string {
	if key := c.GetHeader(a.config.HeaderName); key != "" {
		return key
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Middleware creates a Gin middleware that validates API keys.
// When auth is disabled, it allows all requests through.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		apiKey := a.extractKey(c)
		if apiKey == "" {
			log.Debug().
				Str("ip", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Msg("Auth: No API key provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key via " + a.config.HeaderName + " header or Authorization: Bearer <key>",
			})
			return
		}

		if !a.Valid(apiKey) {
			log.Warn().
				Str("ip", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Msg("Auth: Invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
			})
			return
		}

		c.Next()
	}
}
