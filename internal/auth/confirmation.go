package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultConfirmationTTL = 2 * time.Minute
	confirmationIssuer     = "slidecraft-api"

	// ActionClearEdits authorizes deleting a deck's edit log.
	ActionClearEdits = "clear_edits"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingDeckID        = errors.New("deck id must be provided")
	errMissingAction        = errors.New("action must be provided")

	// ErrConfirmationRejected indicates that a confirmation token is invalid, expired, reused, or bound to another deck.
	ErrConfirmationRejected = errors.New("auth: confirmation rejected")
)

// ConfirmationIssuerConfig configures the confirmation token issuer.
type ConfirmationIssuerConfig struct {
	SigningSecret []byte
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// ConfirmationIssuer signs short-lived tokens that confirm a destructive action on one deck.
// Each token verifies at most once per process.
type ConfirmationIssuer struct {
	signingSecret []byte
	ttl           time.Duration
	clock         func() time.Time

	mu   sync.Mutex
	used map[string]time.Time
}

// Confirmation is an issued token and its lifetime.
type Confirmation struct {
	Token     string `json:"confirmation_token"`
	ExpiresIn int64  `json:"expires_in"`
}

// NewConfirmationIssuer validates configuration and applies defaults.
func NewConfirmationIssuer(cfg ConfirmationIssuerConfig) (*ConfirmationIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultConfirmationTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ConfirmationIssuer{
		signingSecret: cfg.SigningSecret,
		ttl:           ttl,
		clock:         clock,
		used:          make(map[string]time.Time),
	}, nil
}

// Issue produces a signed token binding the action to the deck.
func (i *ConfirmationIssuer) Issue(deckID, action string) (Confirmation, error) {
	if strings.TrimSpace(deckID) == "" {
		return Confirmation{}, errMissingDeckID
	}
	if strings.TrimSpace(action) == "" {
		return Confirmation{}, errMissingAction
	}
	tokenID, err := uuid.NewV7()
	if err != nil {
		return Confirmation{}, err
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.ttl).UTC()
	registered := jwt.RegisteredClaims{
		ID:        tokenID.String(),
		Subject:   deckID,
		Issuer:    confirmationIssuer,
		Audience:  []string{action},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	signed, err := token.SignedString(i.signingSecret)
	if err != nil {
		return Confirmation{}, err
	}
	return Confirmation{Token: signed, ExpiresIn: int64(expiresAt.Sub(now).Seconds())}, nil
}

// Verify ensures the token was issued for this deck and action, has not expired, and has not
// been verified before. A successful verification consumes the token.
func (i *ConfirmationIssuer) Verify(tokenString, deckID, action string) error {
	if strings.TrimSpace(tokenString) == "" {
		return fmt.Errorf("%w: missing token", ErrConfirmationRejected)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.signingSecret, nil
		},
		jwt.WithAudience(action),
		jwt.WithIssuer(confirmationIssuer),
		jwt.WithTimeFunc(i.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfirmationRejected, err)
	}
	if claims.Subject != deckID {
		return fmt.Errorf("%w: token bound to another deck", ErrConfirmationRejected)
	}
	return i.consume(claims.ID, claims.ExpiresAt.Time)
}

// consume records the token id until it expires and rejects ids already recorded.
func (i *ConfirmationIssuer) consume(tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return fmt.Errorf("%w: missing token id", ErrConfirmationRejected)
	}
	now := i.clock()

	i.mu.Lock()
	defer i.mu.Unlock()
	for id, expiry := range i.used {
		if !expiry.After(now) {
			delete(i.used, id)
		}
	}
	if _, seen := i.used[tokenID]; seen {
		return fmt.Errorf("%w: token already used", ErrConfirmationRejected)
	}
	i.used[tokenID] = expiresAt
	return nil
}
