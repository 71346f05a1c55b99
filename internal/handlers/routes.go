package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Patterns pin
// the method, so the mux answers 405 for anything else. Everything below
// /api/v1 except registration, login and token refresh requires an
// authenticated session.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Janitor:        deps.Janitor,
		Limiter:        deps.AuthLimiter,
		CookieSecure:   deps.CookieSecure,
		StagingDir:     deps.StagingDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	channels := ChannelHandler{Users: deps.Users, Subscriptions: deps.Subscriptions}
	videos := VideoHandler{
		Users:          deps.Users,
		Videos:         deps.Videos,
		Media:          deps.Media,
		Janitor:        deps.Janitor,
		StagingDir:     deps.StagingDir,
		MaxUploadBytes: deps.MaxUploadBytes,
		MaxPageSize:    deps.MaxPageSize,
	}
	comments := CommentHandler{Videos: deps.Videos, Comments: deps.Comments, MaxPageSize: deps.MaxPageSize}
	likes := LikeHandler{Videos: deps.Videos, Comments: deps.Comments, Likes: deps.Likes}
	playlists := PlaylistHandler{Users: deps.Users, Videos: deps.Videos, Playlists: deps.Playlists}
	dashboard := DashboardHandler{Videos: deps.Videos, Stats: deps.Stats, MaxPageSize: deps.MaxPageSize}

	authenticated := deps.Authenticate
	if authenticated == nil {
		authenticated = func(next http.Handler) http.Handler { return next }
	}
	protected := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, authenticated(handler))
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", auth.Register)
	mux.HandleFunc("POST /api/v1/users/login", auth.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", auth.Refresh)
	protected("POST /api/v1/users/logout", auth.Logout)
	protected("POST /api/v1/users/change-password", auth.ChangePassword)
	protected("GET /api/v1/users/current-user", auth.CurrentUser)
	protected("PATCH /api/v1/users/update-avatar", auth.UpdateAvatar)
	protected("PATCH /api/v1/users/update-cover-image", auth.UpdateCoverImage)
	protected("GET /api/v1/users/channel/{username}", channels.Profile)
	protected("GET /api/v1/users/watch-history", videos.WatchHistory)

	protected("POST /api/v1/subscriptions/toggle/{username}", channels.Toggle)
	protected("GET /api/v1/subscriptions/status/{username}", channels.Status)

	protected("POST /api/v1/videos", videos.Publish)
	protected("GET /api/v1/videos/user/{username}", videos.ListByUser)
	protected("GET /api/v1/videos/{videoID}", videos.Get)
	protected("DELETE /api/v1/videos/{videoID}", videos.Delete)
	protected("PATCH /api/v1/videos/{videoID}/toggle-publish", videos.TogglePublish)

	protected("GET /api/v1/comments/video/{videoID}", comments.List)
	protected("POST /api/v1/comments/video/{videoID}", comments.Add)
	protected("PATCH /api/v1/comments/{commentID}", comments.Edit)
	protected("DELETE /api/v1/comments/{commentID}", comments.Delete)

	protected("POST /api/v1/likes/toggle/video/{videoID}", likes.ToggleVideo)
	protected("POST /api/v1/likes/toggle/comment/{commentID}", likes.ToggleComment)
	protected("GET /api/v1/likes/videos", likes.LikedVideos)

	protected("POST /api/v1/playlists", playlists.Create)
	protected("GET /api/v1/playlists/user/{username}", playlists.ListByUser)
	protected("GET /api/v1/playlists/{playlistID}", playlists.Get)
	protected("PATCH /api/v1/playlists/{playlistID}", playlists.Update)
	protected("DELETE /api/v1/playlists/{playlistID}", playlists.Delete)
	protected("PATCH /api/v1/playlists/{playlistID}/videos/{videoID}", playlists.AddVideo)
	protected("DELETE /api/v1/playlists/{playlistID}/videos/{videoID}", playlists.RemoveVideo)

	protected("GET /api/v1/dashboard/stats", dashboard.ChannelStats)
	protected("GET /api/v1/dashboard/videos", dashboard.ChannelVideos)
}
