package app

import (
	"context"
	"log/slog"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned janitor must be shut down when the server stops.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *media.Janitor, error) {
	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, users)

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	probe := media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)
	uploader := media.NewUploader(store, probe)
	janitor := media.NewJanitor(store, media.JanitorConfig{}, logger)

	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateBurst, 3*cfg.AuthRateWindow)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      tokens,
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Stats:         repositories.NewPostgresStatsRepository(pool),
		Media:         uploader,
		Janitor:       janitor,
		AuthLimiter:   limiter,

		Authenticate: middleware.Authenticate(tokens, users),

		CookieSecure:   cfg.CookieSecure,
		StagingDir:     cfg.UploadStagingDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxPageSize:    cfg.MaxPageSize,
	}

	return deps, janitor, nil
}
