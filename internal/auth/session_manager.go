package auth

import (
	"context"
	"errors"

	"github.com/clipstream/backend/internal/models"
)

// ErrRefreshTokenReused indicates the presented refresh token no longer
// matches the one stored for the user: it was rotated away, revoked by
// logout, or superseded by a login elsewhere.
var ErrRefreshTokenReused = errors.New("refresh token rotated or revoked")

// RefreshTokenStore persists the single currently valid refresh token per
// user. The token lives on the user record itself, so issuing a new one
// implicitly invalidates the previous session.
type RefreshTokenStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
}

// Manager manages the lifecycle of issued session tokens.
type Manager struct {
	issuer *Issuer
	store  RefreshTokenStore
}

// NewManager constructs a Manager around the provided issuer and store.
func NewManager(issuer *Issuer, store RefreshTokenStore) *Manager {
	if issuer == nil {
		panic("auth: issuer must not be nil")
	}
	if store == nil {
		panic("auth: refresh token store must not be nil")
	}
	return &Manager{issuer: issuer, store: store}
}

// Issue creates an access/refresh token pair for the user. The refresh token
// is persisted before the pair is returned; a token the store never accepted
// is never handed to a client.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	accessToken, accessExp, err := m.issuer.IssueAccess(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, refreshExp, err := m.issuer.IssueRefresh(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The incoming token must
// verify and exactly equal the token currently stored for the user; every
// successful refresh rotates the stored token, so a previously exchanged
// token can never be replayed.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	userID, err := m.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	stored, err := m.store.GetRefreshToken(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if stored == "" || stored != refreshToken {
		return models.SessionTokens{}, ErrRefreshTokenReused
	}

	return m.Issue(ctx, userID)
}

// Revoke clears the stored refresh token for the user, ending the session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.ClearRefreshToken(ctx, userID)
}
