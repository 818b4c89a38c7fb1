package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

// authAttemptLimit throttles login and registration to 10 attempts per minute
// per client IP, with a small burst allowance.
const (
	authAttemptLimit  = 10
	authAttemptWindow = time.Minute
	authAttemptBurst  = 5
	authLimiterTTL    = 15 * time.Minute
)

// buildDependencies wires repositories, token machinery, and storage into the
// handler dependency set. The returned stop function drains background
// workers and must run after the HTTP server has stopped.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	issuer, err := auth.NewIssuer(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	sessions := auth.NewManager(issuer, users)

	store, err := storage.NewS3Store(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	cleanup := storage.NewCleanupWorker(store, storage.CleanupConfig{}, logger)

	deps := handlers.Dependencies{
		Verifier:      issuer,
		Users:         users,
		Sessions:      sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Files:         store,
		Cleanup:       cleanup,
		AuthLimiter:   middleware.NewIPRateLimiter(authAttemptLimit, authAttemptWindow, authAttemptBurst, authLimiterTTL),
	}

	return deps, cleanup.Shutdown, nil
}
