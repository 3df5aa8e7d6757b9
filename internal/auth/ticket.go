package auth

import (
	"time"

	"baraholka/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TicketClaims is a short-lived websocket connect ticket. REST requests
// carry the raw initData on every call; the websocket handshake instead
// exchanges initData for a ticket once and connects with it.
type TicketClaims struct {
	TelegramID string `json:"telegram_id"`
	jwt.RegisteredClaims
}

func IssueTicket(telegramID, secret string, ttl time.Duration) (string, error) {
	claims := &TicketClaims{
		TelegramID: telegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateTicket(tokenString, secret string) (*TicketClaims, error) {
	claims := &TicketClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized.WithMessage("Unauthorized: unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized.WithMessage("Unauthorized: invalid ticket")
	}

	if claims.TelegramID == "" {
		return nil, domain.ErrUnauthorized.WithMessage("Unauthorized: no identity data")
	}
	return claims, nil
}
