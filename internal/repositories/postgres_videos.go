package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const videoColumns = `v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description, v.duration_seconds, v.views, v.published, v.created_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration_seconds, views, published, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description, video.Duration, video.Views, video.Published, video.CreatedAt)
	if err != nil {
		if mapped := constraintErr(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by its identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        WHERE v.id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.VideoURL, &video.ThumbnailURL, &video.Title,
		&video.Description, &video.Duration, &video.Views, &video.Published, &video.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// Delete removes a video record. Likes, comments, playlist membership and
// watch history rows are removed through ON DELETE CASCADE.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetPublished updates the publish flag of a video.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET published = $2
        WHERE id = $1
    `, id, published)
	if err != nil {
		return fmt.Errorf("update publish flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByOwner returns the owner's videos with their like counts, ordered by
// the caller-selected column and paginated.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string, publishedOnly bool, page Page, sort Sort) ([]models.VideoView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	page = page.Normalize()

	// Column and Direction only ever produce whitelisted SQL fragments.
	query := fmt.Sprintf(`
        SELECT `+videoColumns+`,
               (SELECT COUNT(*) FROM video_likes l WHERE l.video_id = v.id) AS likes
        FROM videos v
        WHERE v.owner_id = $1 AND (v.published OR NOT $2)
        ORDER BY %s %s
        LIMIT $3 OFFSET $4
    `, sort.Column(), sort.Direction())

	rows, err := conn.Query(ctx, query, ownerID, publishedOnly, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	return collectVideoViews(rows, false)
}

// RecordView increments the view counter and upserts the viewer's watch
// history entry so the video moves to the front of their history.
func (r *PostgresVideoRepository) RecordView(ctx context.Context, videoID, viewerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
    `, videoID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, viewerID, videoID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record watch history: %w", err)
	}

	return nil
}

// WatchHistory resolves the viewer's watch history to full video records,
// most recently watched first, each carrying the owning channel's public fields.
func (r *PostgresVideoRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`,
               (SELECT COUNT(*) FROM video_likes l WHERE l.video_id = v.id) AS likes,
               u.username, u.full_name, u.avatar_url
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	return collectVideoViews(rows, true)
}

func collectVideoViews(rows pgx.Rows, withOwner bool) ([]models.VideoView, error) {
	var views []models.VideoView
	for rows.Next() {
		var view models.VideoView
		dest := []any{&view.ID, &view.OwnerID, &view.VideoURL, &view.ThumbnailURL, &view.Title,
			&view.Description, &view.Duration, &view.Views, &view.Published, &view.CreatedAt, &view.Likes}

		var owner models.VideoOwner
		if withOwner {
			dest = append(dest, &owner.Username, &owner.FullName, &owner.AvatarURL)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}

		if withOwner {
			view.Owner = &owner
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return views, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
