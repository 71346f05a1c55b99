package repositories

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// PostgresStatsRepository computes dashboard aggregates directly in SQL.
type PostgresStatsRepository struct {
	pool db.Pool
}

// NewPostgresStatsRepository constructs a stats repository backed by PostgreSQL.
func NewPostgresStatsRepository(pool db.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// ChannelStats sums view counts across the channel's videos and counts the
// channel's likes, videos and incoming subscriptions in a single round trip.
func (r *PostgresStatsRepository) ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "repositories.channel_stats")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT COALESCE((SELECT SUM(v.views) FROM videos v WHERE v.owner_id = $1), 0) AS total_views,
               (SELECT COUNT(*)
                FROM video_likes l
                JOIN videos v ON v.id = l.video_id
                WHERE v.owner_id = $1)                                                AS total_likes,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = $1)         AS total_subscribers,
               (SELECT COUNT(*) FROM videos v WHERE v.owner_id = $1)                  AS total_videos
    `, userID)

	var stats models.ChannelStats
	if err := row.Scan(&stats.TotalVideoViews, &stats.TotalLikes, &stats.TotalSubscribers, &stats.TotalVideos); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}

	return stats, nil
}

var _ StatsRepository = (*PostgresStatsRepository)(nil)
