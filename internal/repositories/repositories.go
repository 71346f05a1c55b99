package repositories

import (
	"context"
	"strings"

	"github.com/clipstream/backend/internal/models"
)

// Page describes the slice of a listing a caller asked for. Number is
// 1-based; Size is already clamped by the caller.
type Page struct {
	Number int
	Size   int
}

// Normalize applies the listing defaults for out-of-range values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 10
	}
	return p
}

// Offset converts the page number into a row offset.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Sort selects the ordering of a video listing. Field must come from the
// whitelist below; anything else falls back to creation time.
type Sort struct {
	Field      string
	Descending bool
}

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration_seconds",
	"title":     "v.title",
}

// Column resolves the sort field against the whitelist.
func (s Sort) Column() string {
	if col, ok := videoSortColumns[s.Field]; ok {
		return col
	}
	return "v.created_at"
}

// Direction returns the SQL ordering keyword.
func (s Sort) Direction() string {
	if s.Descending {
		return "DESC"
	}
	return "ASC"
}

// NormalizeUsername folds a username for the case-insensitive lookups used
// throughout the channel endpoints.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
}

// SubscriptionRepository defines data access for subscriber/channel edges.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// VideoRepository defines data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error
	ListByOwner(ctx context.Context, ownerID string, publishedOnly bool, page Page, sort Sort) ([]models.VideoView, error)
	RecordView(ctx context.Context, videoID, viewerID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error)
}

// LikeRepository defines data access for like edges on videos and comments.
type LikeRepository interface {
	ToggleVideo(ctx context.Context, userID, videoID string) (bool, error)
	ToggleComment(ctx context.Context, userID, commentID string) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoView, error)
}

// CommentRepository defines data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	ListForVideo(ctx context.Context, videoID, viewerID string, page Page) ([]models.CommentView, error)
}

// PlaylistRepository defines data access for playlists and their membership.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// StatsRepository computes the dashboard aggregates for a channel.
type StatsRepository interface {
	ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error)
}
