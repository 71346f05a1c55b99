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

// CommentHandler serves the comment thread endpoints.
type CommentHandler struct {
	Videos   VideoStore
	Comments CommentStore

	MaxPageSize int

	NowFunc func() time.Time
}

// List handles GET /api/v1/comments/video/{videoID} requests.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("comment listing video lookup", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	comments, err := h.Comments.ListForVideo(ctx, videoID, viewer.ID, parsePage(r, h.MaxPageSize))
	if err != nil {
		logger.Error("list comments", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comments")
		return
	}

	if len(comments) == 0 {
		respondData(ctx, w, http.StatusOK, []models.CommentView{}, "there are no comments for this video")
		return
	}

	respondData(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// Add handles POST /api/v1/comments/video/{videoID} requests.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	author, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   r.PathValue("videoID"),
		OwnerID:   author.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video does not exist")
			return
		}
		logger.Error("persist comment", "error", err, "videoId", comment.VideoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add comment")
		return
	}

	respondData(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Edit handles PATCH /api/v1/comments/{commentID} requests. Only the author
// may edit, and a foreign comment is treated as an authentication failure.
func (h CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	comment, ok := h.ownedComment(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, comment.ID, content)
	if err != nil {
		logger.Error("update comment", "error", err, "commentId", comment.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update comment")
		return
	}

	respondData(ctx, w, http.StatusOK, updated, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentID} requests.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	comment, ok := h.ownedComment(w, r)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		logger.Error("delete comment", "error", err, "commentId", comment.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete comment")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}

func (h CommentHandler) ownedComment(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return models.Comment{}, false
	}

	commentID := r.PathValue("commentID")
	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment does not exist")
			return models.Comment{}, false
		}
		logger.Error("load comment", "error", err, "commentId", commentID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comment")
		return models.Comment{}, false
	}

	if comment.OwnerID != caller.ID {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return models.Comment{}, false
	}

	return comment, true
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
