package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/shop-checkout/internal/domain/models"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET environment variable is not set")
	ErrInvalidToken  = errors.New("invalid token")
)

// Secret возвращает ключ подписи из JWT_SECRET
func Secret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return []byte(secret), nil
}

// NewToken генерирует JWT-токен для указанного пользователя с заданным временем жизни.
// sub - id пользователя, по нему middleware восстанавливает вызывающего
func NewToken(ctx context.Context, user *models.User, ttl time.Duration) (string, error) {
	secret, err := Secret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"email":    user.Email,
		"is_staff": user.IsStaff,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseUserID проверяет подпись и срок токена и возвращает id пользователя из sub
func ParseUserID(tokenStr string, secret []byte) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, fmt.Errorf("%w: sub not found", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user id", ErrInvalidToken)
	}
	return userID, nil
}
