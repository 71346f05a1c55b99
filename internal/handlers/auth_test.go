package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

func newAuthHandler(t *testing.T, store *inMemoryUserStore) (AuthHandler, *auth.Service) {
	t.Helper()
	sessions := auth.NewService("access-secret", "refresh-secret", time.Minute, time.Hour, store)
	handler := AuthHandler{
		Users:      store,
		Sessions:   sessions,
		Media:      &uploaderStub{},
		Janitor:    &janitorStub{},
		StagingDir: t.TempDir(),
	}
	return handler, sessions
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, contents := range files {
		part, err := writer.CreateFormFile(name, name+".bin")
		if err != nil {
			t.Fatalf("create form file %s: %v", name, err)
		}
		if _, err := part.Write([]byte(contents)); err != nil {
			t.Fatalf("write form file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func identityRequest(req *http.Request, user models.User) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), user.Public()))
}

func seedUser(t *testing.T, store *inMemoryUserStore, username, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:        "user-" + username,
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Password:  string(hashed),
		AvatarURL: "https://media.example.com/avatars/old",
	}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAuthHandlerRegister(t *testing.T) {
	store := newInMemoryUserStore()
	handler, _ := newAuthHandler(t, store)

	body, contentType := multipartBody(t, map[string]string{
		"username": "Alice",
		"email":    "alice@example.com",
		"fullName": "Alice Example",
		"password": "supersafe1",
	}, map[string]string{"avatar": "fake-image-bytes"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	stored, err := store.FindByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if stored.Username != "alice" {
		t.Fatalf("expected username to be lowercased, got %q", stored.Username)
	}
	if stored.AvatarURL == "" {
		t.Fatal("expected avatar to be uploaded")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe1")) != nil {
		t.Fatal("stored password is not hashed")
	}

	var resp struct {
		Data models.User `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Password != "" || resp.Data.RefreshToken != "" {
		t.Fatalf("expected secrets to be stripped from response, got %+v", resp.Data)
	}
}

func TestAuthHandlerRegisterDuplicate(t *testing.T) {
	store := newInMemoryUserStore()
	handler, _ := newAuthHandler(t, store)
	seedUser(t, store, "alice", "supersafe1")

	body, contentType := multipartBody(t, map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"fullName": "Alice Again",
		"password": "supersafe1",
	}, map[string]string{"avatar": "fake-image-bytes"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

// createFailUserStore passes the pre-registration lookups but refuses the
// insert, like a registration racing another for the same username.
type createFailUserStore struct {
	*inMemoryUserStore
}

func (s createFailUserStore) Create(context.Context, models.User) error {
	return repositories.ErrConflict
}

func TestAuthHandlerRegisterCreateFailureDiscardsUploads(t *testing.T) {
	janitor := &janitorStub{}
	handler := AuthHandler{
		Users:      createFailUserStore{newInMemoryUserStore()},
		Media:      &uploaderStub{},
		Janitor:    janitor,
		StagingDir: t.TempDir(),
	}

	body, contentType := multipartBody(t, map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"fullName": "Alice Example",
		"password": "supersafe1",
	}, map[string]string{"avatar": "fake-image-bytes", "coverImage": "fake-cover-bytes"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
	if len(janitor.enqueued) != 2 {
		t.Fatalf("expected both hosted images to be scheduled for deletion, got %v", janitor.enqueued)
	}
}

func TestAuthHandlerLoginSetsSessionCookies(t *testing.T) {
	store := newInMemoryUserStore()
	handler, _ := newAuthHandler(t, store)
	seedUser(t, store, "alice", "password123")

	body, err := json.Marshal(loginRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	var haveAccess, haveRefresh bool
	for _, cookie := range cookies {
		switch cookie.Name {
		case middleware.AccessCookie:
			haveAccess = cookie.Value != "" && cookie.HttpOnly
		case refreshCookie:
			haveRefresh = cookie.Value != "" && cookie.HttpOnly
		}
	}
	if !haveAccess || !haveRefresh {
		t.Fatalf("expected http-only session cookies, got %+v", cookies)
	}

	var resp struct {
		Data loginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.AccessToken == "" || resp.Data.RefreshToken == "" {
		t.Fatalf("expected tokens in response body, got %+v", resp.Data)
	}
}

func TestAuthHandlerLoginRejectsBadCredentials(t *testing.T) {
	store := newInMemoryUserStore()
	handler, _ := newAuthHandler(t, store)
	seedUser(t, store, "alice", "password123")

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefreshRotatesAndRejectsOldToken(t *testing.T) {
	store := newInMemoryUserStore()
	handler, sessions := newAuthHandler(t, store)
	user := seedUser(t, store, "alice", "password123")

	base := time.Now().UTC()
	sessions.NowFunc = func() time.Time { return base }

	first, err := sessions.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	base = base.Add(time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: first.RefreshToken})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: first.RefreshToken})
	rec = httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected superseded refresh token to be rejected, got %d", rec.Code)
	}
}

func TestAuthHandlerLogoutRevokesSession(t *testing.T) {
	store := newInMemoryUserStore()
	handler, sessions := newAuthHandler(t, store)
	user := seedUser(t, store, "alice", "password123")

	pair, err := sessions.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil), user)
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge >= 0 || cookie.Value != "" {
			t.Fatalf("expected session cookies to be cleared, got %+v", cookie)
		}
	}

	if _, _, err := sessions.Rotate(context.Background(), pair.RefreshToken); err == nil {
		t.Fatal("expected rotation to fail after logout")
	}
}

func TestAuthHandlerChangePassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler, _ := newAuthHandler(t, store)
	user := seedUser(t, store, "alice", "password123")

	body, _ := json.Marshal(changePasswordRequest{
		OldPassword:     "wrong-password",
		NewPassword:     "newpassword1",
		ConfirmPassword: "newpassword1",
	})
	req := identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body)), user)
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected wrong old password to be rejected, got %d", rec.Code)
	}

	body, _ = json.Marshal(changePasswordRequest{
		OldPassword:     "password123",
		NewPassword:     "newpassword1",
		ConfirmPassword: "newpassword1",
	})
	req = identityRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body)), user)
	rec = httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newpassword1")) != nil {
		t.Fatal("expected new password hash to be stored")
	}
}

func TestAuthHandlerUpdateAvatarEnqueuesOldImage(t *testing.T) {
	store := newInMemoryUserStore()
	handler, _ := newAuthHandler(t, store)
	janitor := &janitorStub{}
	handler.Janitor = janitor
	user := seedUser(t, store, "alice", "password123")

	body, contentType := multipartBody(t, nil, map[string]string{"avatar": "new-image-bytes"})
	req := identityRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-avatar", body), user)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.AvatarURL == user.AvatarURL {
		t.Fatal("expected avatar URL to change")
	}

	if len(janitor.enqueued) != 1 || janitor.enqueued[0] != user.AvatarURL {
		t.Fatalf("expected old avatar to be enqueued for deletion, got %v", janitor.enqueued)
	}
}
