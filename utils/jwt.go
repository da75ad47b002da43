package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/dedilute/catalog-backend/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ExtractToken reads the session cookie first, then a Bearer header.
func ExtractToken(c *gin.Context, cfg *config.EnvConfig) string {
	if token, err := c.Cookie(cfg.JWT.CookieName); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

func GenerateToken(userID int64, email string, cfg *config.EnvConfig) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWT.Expire) * time.Second)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.SecretKey))
}

func ParseToken(tokenString string, cfg *config.EnvConfig) (*Claims, error) {
	secret := []byte(cfg.JWT.SecretKey)
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func InjectClaimsToContext(c *gin.Context, claims *Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
}

func GetUserIDFromContext(c *gin.Context) (int64, error) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, errors.New("user_id is missing from context")
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}
