package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure. Callers must
// not learn whether a token was malformed, expired, or forged.
var ErrInvalidToken = errors.New("invalid token")

// Issuer mints and verifies signed bearer tokens. Access and refresh tokens
// carry independent secrets and lifetimes.
type Issuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration

	now func() time.Time
}

// NewIssuer constructs an Issuer from the provided signing secrets and TTLs.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		accessTTL:     accessTTL,
		refreshSecret: []byte(refreshSecret),
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// IssueAccess mints a short-lived access token bound to the user id.
func (i *Issuer) IssueAccess(userID string) (string, time.Time, error) {
	return i.sign(userID, i.accessSecret, i.accessTTL)
}

// IssueRefresh mints a refresh token bound to the user id. Callers must
// persist the token before handing it to a client (see Manager.Issue).
func (i *Issuer) IssueRefresh(userID string) (string, time.Time, error) {
	return i.sign(userID, i.refreshSecret, i.refreshTTL)
}

// VerifyAccess checks signature and expiry and returns the embedded user id.
func (i *Issuer) VerifyAccess(token string) (string, error) {
	return i.verify(token, i.accessSecret)
}

// VerifyRefresh checks signature and expiry of a refresh token.
func (i *Issuer) VerifyRefresh(token string) (string, error) {
	return i.verify(token, i.refreshSecret)
}

func (i *Issuer) sign(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("auth: user id must be provided")
	}

	now := i.now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *Issuer) verify(token string, secret []byte) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
