package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningAlg = errors.New("unexpected token signing algorithm")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidSignature  = errors.New("invalid token signature")
	ErrCorruptedToken    = errors.New("corrupted token")
)

// Claims identifies a seat in a room. The token proves identity only;
// it carries no privilege beyond what room membership already grants.
type Claims struct {
	PlayerID    string `json:"playerId"`
	GameCode    string `json:"gameCode"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
	jwt.RegisteredClaims
}

type Manager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewManager(secretKey string, maxAge time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

// Issue signs a session token for a seat.
func (m *Manager) Issue(playerID, gameCode, displayName string, isHost bool, now time.Time) (string, error) {
	claims := Claims{
		PlayerID:    playerID,
		GameCode:    gameCode,
		DisplayName: displayName,
		IsHost:      isHost,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSigningAlg):
			return nil, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrCorruptedToken
		default:
			return nil, fmt.Errorf("verifying session token: %w", err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrCorruptedToken
	}

	return claims, nil
}
