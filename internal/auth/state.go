package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateClaims is the payload carried through an OAuth authorize round trip.
type StateClaims struct {
	jwt.RegisteredClaims
	Platform string `json:"platform"`
}

// StateManager signs and verifies the OAuth state parameter so callbacks can
// trust the user and platform they were initiated for.
type StateManager struct {
	secret []byte
	ttl    time.Duration
}

// NewStateManager constructs a manager with the given secret and state lifetime.
func NewStateManager(secret string, ttl time.Duration) *StateManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateManager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a short-lived state token binding a user to a platform.
func (m *StateManager) Issue(userID, platform string) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("state secret must not be empty")
	}

	claims := &StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Platform: platform,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks the state signature and expiry.
func (m *StateManager) Verify(state string) (*StateClaims, error) {
	parsed, err := jwt.ParseWithClaims(state, &StateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*StateClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid state claims")
	}
	return claims, nil
}
