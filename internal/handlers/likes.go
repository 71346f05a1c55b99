package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
)

// LikeHandler serves the like toggle and liked-videos endpoints.
type LikeHandler struct {
	Videos   VideoStore
	Comments CommentStore
	Likes    LikeStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/video/{videoID} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	videoID := r.PathValue("videoID")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("like target video lookup", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	liked, err := h.Likes.ToggleVideo(ctx, caller.ID, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("toggle video like", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	respondData(ctx, w, http.StatusOK, likeStatus{Liked: liked}, likeMessage(liked))
}

// ToggleComment handles POST /api/v1/likes/toggle/comment/{commentID} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	commentID := r.PathValue("commentID")
	if _, err := h.Comments.FindByID(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment does not exist")
			return
		}
		logger.Error("like target comment lookup", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comment")
		return
	}

	liked, err := h.Likes.ToggleComment(ctx, caller.ID, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment does not exist")
			return
		}
		logger.Error("toggle comment like", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	respondData(ctx, w, http.StatusOK, likeStatus{Liked: liked}, likeMessage(liked))
}

// LikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	videos, err := h.Likes.LikedVideos(ctx, caller.ID)
	if err != nil {
		logger.Error("list liked videos", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load liked videos")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "liked videos fetched successfully")
}

type likeStatus struct {
	Liked bool `json:"liked"`
}

func likeMessage(liked bool) string {
	if liked {
		return "liked successfully"
	}
	return "like removed successfully"
}
