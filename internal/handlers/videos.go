package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoHandler serves upload, listing and lifecycle endpoints for videos.
type VideoHandler struct {
	Users   UserStore
	Videos  VideoStore
	Media   MediaUploader
	Janitor MediaJanitor

	StagingDir     string
	MaxUploadBytes int64
	MaxPageSize    int

	NowFunc func() time.Time
}

// Publish handles POST /api/v1/videos requests. The video file and thumbnail
// are staged locally, the duration is derived from the staged video, and both
// files are relayed to the media host before the row is written.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		logger.Warn("missing video upload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		logger.Warn("missing thumbnail upload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}
	defer thumbFile.Close()

	stagedVideo, err := media.StageFile(h.StagingDir, videoFile, videoHeader.Filename)
	if err != nil {
		logger.Error("stage video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	defer os.Remove(stagedVideo)

	stagedThumb, err := media.StageFile(h.StagingDir, thumbFile, thumbHeader.Filename)
	if err != nil {
		logger.Error("stage thumbnail", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	defer os.Remove(stagedThumb)

	videoURL, duration, err := h.Media.UploadVideo(ctx, stagedVideo, "videos")
	if err != nil {
		logger.Error("relay video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload video")
		return
	}

	thumbnailURL, err := h.Media.UploadImage(ctx, stagedThumb, "thumbnails")
	if err != nil {
		logger.Error("relay thumbnail", "error", err)
		if h.Janitor != nil {
			if enqErr := h.Janitor.Enqueue(ctx, videoURL); enqErr != nil {
				logger.Warn("enqueue orphaned video for deletion", "location", videoURL, "error", enqErr)
			}
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      owner.ID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     duration,
		Published:    true,
		CreatedAt:    h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("persist video", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respondData(ctx, w, http.StatusCreated, video, "video published successfully")
}

// ListByUser handles GET /api/v1/videos/user/{username} requests. Unpublished
// videos are visible only when the channel owner is the caller.
func (h VideoHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	username := repositories.NormalizeUsername(r.PathValue("username"))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	channel, err := h.Users.FindByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("video listing channel lookup", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	publishedOnly := channel.ID != viewer.ID
	videos, err := h.Videos.ListByOwner(ctx, channel.ID, publishedOnly, parsePage(r, h.MaxPageSize), parseSort(r))
	if err != nil {
		logger.Error("list videos", "error", err, "channelId", channel.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load videos")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "videos fetched successfully")
}

// Get handles GET /api/v1/videos/{videoID} requests. Fetching a published
// video counts a view and records the watch in the caller's history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	videoID := r.PathValue("videoID")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("load video", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	if !video.Published {
		if video.OwnerID != viewer.ID {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		// An owner previewing their own draft is not a view.
		respondData(ctx, w, http.StatusOK, video, "video fetched successfully")
		return
	}

	if err := h.Videos.RecordView(ctx, video.ID, viewer.ID); err != nil {
		logger.Warn("record view", "error", err, "videoId", video.ID)
	} else {
		video.Views++
	}

	respondData(ctx, w, http.StatusOK, video, "video fetched successfully")
}

// Delete handles DELETE /api/v1/videos/{videoID} requests. Only the owner may
// delete; the hosted media objects are removed in the background.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		logger.Error("delete video", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	if h.Janitor != nil {
		for _, location := range []string{video.VideoURL, video.ThumbnailURL} {
			if location == "" {
				continue
			}
			if err := h.Janitor.Enqueue(ctx, location); err != nil {
				logger.Warn("enqueue media for deletion", "location", location, "error", err)
			}
		}
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoID}/toggle-publish requests.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	video.Published = !video.Published
	if err := h.Videos.SetPublished(ctx, video.ID, video.Published); err != nil {
		logger.Error("toggle publish", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle publish state")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "publish state toggled successfully")
}

// WatchHistory handles GET /api/v1/users/watch-history requests. Entries come
// back most recently watched first.
func (h VideoHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	history, err := h.Videos.WatchHistory(ctx, viewer.ID)
	if err != nil {
		logger.Error("load watch history", "error", err, "userId", viewer.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load watch history")
		return
	}

	respondData(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// ownedVideo resolves the path video and verifies the caller owns it. A
// response has already been written when ok is false. Ownership failures are
// reported as authentication failures.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return models.Video{}, false
	}

	videoID := r.PathValue("videoID")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return models.Video{}, false
		}
		logger.Error("load video", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return models.Video{}, false
	}

	if video.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return models.Video{}, false
	}

	return video, true
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h VideoHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 512 << 20
}
