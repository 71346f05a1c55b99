package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func TestLikeHandlerToggleVideo(t *testing.T) {
	users := newInMemoryUserStore()
	caller := seedUser(t, users, "alice", "password123")

	videos := newInMemoryVideoStore(models.Video{ID: "video-1", OwnerID: "user-bob", Published: true})
	handler := LikeHandler{Videos: videos, Comments: newInMemoryCommentStore(), Likes: newInMemoryLikeStore()}

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/video/video-1", nil), caller)
	req.SetPathValue("videoID", "video-1")
	rec := httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data likeStatus `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Liked {
		t.Fatal("expected first toggle to like")
	}

	req = identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/video/video-1", nil), caller)
	req.SetPathValue("videoID", "video-1")
	rec = httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Liked {
		t.Fatal("expected second toggle to remove the like")
	}
}

func TestLikeHandlerToggleVideoUnknownTarget(t *testing.T) {
	users := newInMemoryUserStore()
	caller := seedUser(t, users, "alice", "password123")

	handler := LikeHandler{Videos: newInMemoryVideoStore(), Comments: newInMemoryCommentStore(), Likes: newInMemoryLikeStore()}

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/video/ghost", nil), caller)
	req.SetPathValue("videoID", "ghost")
	rec := httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestLikeHandlerToggleComment(t *testing.T) {
	users := newInMemoryUserStore()
	caller := seedUser(t, users, "alice", "password123")

	comments := newInMemoryCommentStore(models.Comment{ID: "comment-1", VideoID: "video-1", OwnerID: "user-bob"})
	handler := LikeHandler{Videos: newInMemoryVideoStore(), Comments: comments, Likes: newInMemoryLikeStore()}

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/comment/comment-1", nil), caller)
	req.SetPathValue("commentID", "comment-1")
	rec := httptest.NewRecorder()

	handler.ToggleComment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	req = identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/comment/ghost", nil), caller)
	req.SetPathValue("commentID", "ghost")
	rec = httptest.NewRecorder()

	handler.ToggleComment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for unknown comment got %d", http.StatusNotFound, rec.Code)
	}
}
