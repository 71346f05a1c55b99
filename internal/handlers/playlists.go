package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// PlaylistHandler serves playlist curation endpoints.
type PlaylistHandler struct {
	Users     UserStore
	Videos    VideoStore
	Playlists PlaylistStore

	NowFunc func() time.Time
}

// Create handles POST /api/v1/playlists requests.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	owner, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        name,
		Description: description,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("persist playlist", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	respondData(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /api/v1/playlists/{playlistID} requests.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := middleware.IdentityFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	playlistID := r.PathValue("playlistID")
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist does not exist")
			return
		}
		logger.Error("load playlist", "error", err, "playlistId", playlistID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// ListByUser handles GET /api/v1/playlists/user/{username} requests.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := middleware.IdentityFromContext(ctx); !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	username := repositories.NormalizeUsername(r.PathValue("username"))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	owner, err := h.Users.FindByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("playlist listing channel lookup", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, owner.ID)
	if err != nil {
		logger.Error("list playlists", "error", err, "ownerId", owner.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlists")
		return
	}

	respondData(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistID} requests.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	updated, err := h.Playlists.Update(ctx, playlist.ID, name, description)
	if err != nil {
		logger.Error("update playlist", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, updated, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistID} requests.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		logger.Error("delete playlist", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/{playlistID}/videos/{videoID}
// requests. The caller must own both the playlist and the video.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	caller, _ := middleware.IdentityFromContext(ctx)

	videoID := r.PathValue("videoID")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("playlist video lookup", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	if video.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, video.ID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusBadRequest, "video is already in the playlist")
			return
		}
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist does not exist")
			return
		}
		logger.Error("add playlist video", "error", err, "playlistId", playlist.ID, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add video to playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "video added to playlist successfully")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistID}/videos/{videoID}
// requests.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoID")
	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusBadRequest, "video is not in the playlist")
			return
		}
		logger.Error("remove playlist video", "error", err, "playlistId", playlist.ID, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to remove video from playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "video removed from playlist successfully")
}

func (h PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return models.Playlist{}, false
	}

	playlistID := r.PathValue("playlistID")
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist does not exist")
			return models.Playlist{}, false
		}
		logger.Error("load playlist", "error", err, "playlistId", playlistID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlist")
		return models.Playlist{}, false
	}

	if playlist.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return models.Playlist{}, false
	}

	return playlist, true
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
