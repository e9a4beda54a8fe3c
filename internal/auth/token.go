package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
)

// Purpose scopes a single-use token to one flow.
type Purpose string

const (
	PurposeConfirmEmail  Purpose = "confirm_email"
	PurposeResetPassword Purpose = "reset_password"
)

// Config holds the signing settings for all tokens.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	// AccessTTL is the lifetime of access tokens.
	AccessTTL time.Duration
	// PurposeTTL is the lifetime of confirmation and reset tokens.
	PurposeTTL time.Duration
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Username string   `json:"user"`
	Email    string   `json:"email"`
	UserID   string   `json:"id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

type purposeClaims struct {
	Purpose string `json:"purpose"`
	Stamp   string `json:"stamp"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	cfg Config
	now func() time.Time
}

// NewTokens validates cfg and returns a Tokens using the wall clock.
func NewTokens(cfg Config) (*Tokens, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth.NewTokens: secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.PurposeTTL <= 0 {
		cfg.PurposeTTL = 24 * time.Hour
	}
	return &Tokens{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy that reads time from now.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	c := *t
	c.now = now
	return &c
}

// IssueAccess signs an access token for u and returns it with its expiry.
func (t *Tokens) IssueAccess(u domain.User) (string, time.Time, error) {
	issued := t.now()
	expires := issued.Add(t.cfg.AccessTTL)

	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	claims := AccessClaims{
		Username: u.Username,
		Email:    u.Email,
		UserID:   u.ID.String(),
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   u.ID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(issued),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Tokens.IssueAccess: %w", err)
	}
	return signed, expires, nil
}

// ParseAccess verifies an access token and returns the actor it names.
// Any failure wraps domain.ErrUnauthorized.
func (t *Tokens) ParseAccess(raw string) (domain.Actor, error) {
	var claims AccessClaims
	if err := t.parse(raw, t.cfg.Audience, &claims); err != nil {
		return domain.Actor{}, err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	actor := domain.Actor{UserID: id, Username: claims.Username, Email: claims.Email}
	for _, r := range claims.Roles {
		actor.Roles = append(actor.Roles, domain.Role(r))
	}
	return actor, nil
}

// IssuePurpose signs a token that is valid only for p, only for u, and only
// while u's security stamp is unchanged.
func (t *Tokens) IssuePurpose(u domain.User, p Purpose) (string, error) {
	issued := t.now()
	claims := purposeClaims{
		Purpose: string(p),
		Stamp:   u.SecurityStamp.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   u.ID.String(),
			Audience:  jwt.ClaimStrings{purposeAudience(p)},
			ExpiresAt: jwt.NewNumericDate(issued.Add(t.cfg.PurposeTTL)),
			IssuedAt:  jwt.NewNumericDate(issued),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("auth.Tokens.IssuePurpose: %w", err)
	}
	return signed, nil
}

// VerifyPurpose checks that raw was issued for p and for u's current stamp.
// Any failure wraps domain.ErrUnauthorized.
func (t *Tokens) VerifyPurpose(raw string, p Purpose, u domain.User) error {
	var claims purposeClaims
	if err := t.parse(raw, purposeAudience(p), &claims); err != nil {
		return err
	}
	if claims.Purpose != string(p) || claims.Subject != u.ID.String() || claims.Stamp != u.SecurityStamp.String() {
		return fmt.Errorf("%w: token does not match account", domain.ErrUnauthorized)
	}
	return nil
}

func (t *Tokens) parse(raw, audience string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return nil
}

func purposeAudience(p Purpose) string {
	return "atob:" + string(p)
}
