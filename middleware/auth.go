package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserKey is the session and context key holding the authenticated username
const UserKey = "username"

var (
	jwtKey        = []byte("codecollab-dev-jwt-secret")
	tokenDuration = 24 * time.Hour
)

// InitAuth sets the token signing secret and lifetime. Called once at startup.
func InitAuth(secret string, duration time.Duration) {
	if secret != "" {
		jwtKey = []byte(secret)
	}
	if duration > 0 {
		tokenDuration = duration
	}
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 token for username
func GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "codecollab",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
}

// ParseToken validates a token, with or without the "Bearer " prefix, and returns its username
func ParseToken(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return "", errors.New("missing token")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return "", jwt.ErrSignatureInvalid
	}
	return claims.Username, nil
}

// AuthRequired accepts either a Bearer token or a login session
func AuthRequired(c *gin.Context) {
	if header := c.GetHeader("Authorization"); header != "" {
		username, err := ParseToken(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(UserKey, username)
		c.Next()
		return
	}

	session := sessions.Default(c)
	user, ok := session.Get(UserKey).(string)
	if !ok || user == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(UserKey, user)
	c.Next()
}

// CurrentUser returns the username set by AuthRequired
func CurrentUser(c *gin.Context) string {
	return c.GetString(UserKey)
}
