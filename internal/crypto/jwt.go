package crypto

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer     = "tasknest"
	accessAudience  = "tasknest-api"
	refreshAudience = "tasknest-refresh"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingSecret  = errors.New("token signing secrets must not be empty")
	ErrSharedSecret   = errors.New("access and refresh signing secrets must differ")
	ErrInvalidSubject = errors.New("token subject must be a positive user id")
)

// Claims represents the JWT claims for both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// TokenConfig holds the signing keys and lifetimes for a TokenIssuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies stateless access and refresh tokens. The two
// kinds use different keys and audiences, so neither can stand in for the other.
type TokenIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer validates cfg and returns a TokenIssuer. Zero TTLs fall back
// to DefaultAccessTTL and DefaultRefreshTTL.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrSharedSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	return &TokenIssuer{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *i
	cp.now = now
	return &cp
}

// IssueAccess signs a short-lived access token for userID.
func (i *TokenIssuer) IssueAccess(userID int64) (string, error) {
	return i.sign(userID, i.accessKey, accessAudience, i.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for userID.
func (i *TokenIssuer) IssueRefresh(userID int64) (string, error) {
	return i.sign(userID, i.refreshKey, refreshAudience, i.refreshTTL)
}

// VerifyAccess checks signature, issuer, audience and expiry of an access token
// and returns its subject.
func (i *TokenIssuer) VerifyAccess(token string) (int64, error) {
	return i.verify(token, i.accessKey, accessAudience)
}

// VerifyRefresh is VerifyAccess for refresh tokens.
func (i *TokenIssuer) VerifyRefresh(token string) (int64, error) {
	return i.verify(token, i.refreshKey, refreshAudience)
}

func (i *TokenIssuer) sign(userID int64, key []byte, audience string, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidSubject
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (i *TokenIssuer) verify(tokenString string, key []byte, audience string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	if claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
