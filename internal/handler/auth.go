package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"zlatko/internal/config"
)

// UserIDKey is the gin context key holding the resolved user id
const UserIDKey = "user_id"

const userIDHeader = "X-User-ID"

var errInvalidToken = errors.New("invalid token")

// Identity resolves the calling user. With a JWT secret configured the
// bearer token's subject is required; otherwise the X-User-ID header is
// used, falling back to the configured default user.
func Identity(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUser(c.Request, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: err.Error(),
				Code:    http.StatusUnauthorized,
			})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func resolveUser(r *http.Request, cfg config.AuthConfig) (string, error) {
	if cfg.JWTSecret != "" {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return "", errors.New("missing bearer token")
		}
		return subject(strings.TrimSpace(raw), cfg.JWTSecret)
	}

	if id := strings.TrimSpace(r.Header.Get(userIDHeader)); id != "" {
		return id, nil
	}
	if cfg.DefaultUserID != "" {
		return cfg.DefaultUserID, nil
	}
	return "", errors.New("no user identity")
}

func subject(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}

func currentUser(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
