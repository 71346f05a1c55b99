package handlers

import (
	"context"
	"net/http"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
}

// SessionService issues, rotates and revokes authentication token pairs.
type SessionService interface {
	IssuePair(ctx context.Context, user models.User) (models.TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (models.User, models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// SubscriptionStore captures operations required by the channel handlers.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error
	ListByOwner(ctx context.Context, ownerID string, publishedOnly bool, page repositories.Page, sort repositories.Sort) ([]models.VideoView, error)
	RecordView(ctx context.Context, videoID, viewerID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.VideoView, error)
}

// LikeStore captures persistence for like edges.
type LikeStore interface {
	ToggleVideo(ctx context.Context, userID, videoID string) (bool, error)
	ToggleComment(ctx context.Context, userID, commentID string) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoView, error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	ListForVideo(ctx context.Context, videoID, viewerID string, page repositories.Page) ([]models.CommentView, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// StatsStore computes the dashboard aggregates for a channel.
type StatsStore interface {
	ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error)
}

// MediaUploader relays staged files to the media host.
type MediaUploader interface {
	UploadImage(ctx context.Context, localPath, keyPrefix string) (string, error)
	UploadVideo(ctx context.Context, localPath, keyPrefix string) (string, float64, error)
}

// MediaJanitor schedules background deletion of superseded media objects.
type MediaJanitor interface {
	Enqueue(ctx context.Context, location string) error
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionService
	Subscriptions SubscriptionStore
	Videos        VideoStore
	Likes         LikeStore
	Comments      CommentStore
	Playlists     PlaylistStore
	Stats         StatsStore
	Media         MediaUploader
	Janitor       MediaJanitor
	AuthLimiter   RateLimiter

	// Authenticate guards the routes that require a signed-in caller.
	Authenticate func(http.Handler) http.Handler

	CookieSecure   bool
	StagingDir     string
	MaxUploadBytes int64
	MaxPageSize    int
}
