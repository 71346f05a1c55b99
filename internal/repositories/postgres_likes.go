package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for like edges.
// Video likes and comment likes live in separate tables so each edge gets a
// plain unique constraint instead of nullable target columns.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// ToggleVideo flips the like edge between user and video. Returns true when
// the video ends up liked.
func (r *PostgresLikeRepository) ToggleVideo(ctx context.Context, userID, videoID string) (bool, error) {
	return r.toggle(ctx, "video_likes", "video_id", userID, videoID)
}

// ToggleComment flips the like edge between user and comment. Returns true
// when the comment ends up liked.
func (r *PostgresLikeRepository) ToggleComment(ctx context.Context, userID, commentID string) (bool, error) {
	return r.toggle(ctx, "comment_likes", "comment_id", userID, commentID)
}

func (r *PostgresLikeRepository) toggle(ctx context.Context, table, targetColumn, userID, targetID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// table and targetColumn are compile-time constants, never caller input.
	tag, err := conn.Exec(ctx, `
        INSERT INTO `+table+` (id, user_id, `+targetColumn+`, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, `+targetColumn+`) DO NOTHING
    `, uuid.NewString(), userID, targetID, time.Now().UTC())
	if err != nil {
		if mapped := constraintErr(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM `+table+`
        WHERE user_id = $1 AND `+targetColumn+` = $2
    `, userID, targetID); err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return false, nil
}

// LikedVideos returns the videos the user has liked, most recently liked first.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`,
               (SELECT COUNT(*) FROM video_likes vl WHERE vl.video_id = v.id) AS likes
        FROM video_likes l
        JOIN videos v ON v.id = l.video_id
        WHERE l.user_id = $1
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return collectVideoViews(rows, false)
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
