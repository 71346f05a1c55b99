package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const refreshCookie = "refreshToken"

// AuthHandler implements registration, login and the session lifecycle.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionService
	Media    MediaUploader
	Janitor  MediaJanitor
	Limiter  RateLimiter

	CookieSecure   bool
	StagingDir     string
	MaxUploadBytes int64

	NowFunc func() time.Time
}

// Register handles POST /api/v1/users/register requests. The avatar image is
// staged locally, relayed to the media host and the staged copy removed
// whether or not the relay succeeds.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.Users == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondError(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || password == "" {
		logger.Warn("register missing fields", "username", username)
		respondError(ctx, w, http.StatusBadRequest, "username, email, fullName and password are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("register invalid email", "email", email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(password) < 8 {
		logger.Warn("register password too short", "username", username)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	for _, login := range []string{username, email} {
		if _, err := h.Users.FindByLogin(ctx, login); err == nil {
			logger.Warn("register existing account", "login", login)
			respondError(ctx, w, http.StatusBadRequest, "user already exists")
			return
		} else if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("register user lookup failed", "error", err, "login", login)
			respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
			return
		}
	}

	avatarURL, ok := h.relayFormImage(w, r, "avatar", "avatars", true)
	if !ok {
		return
	}

	coverImageURL, ok := h.relayFormImage(w, r, "coverImage", "covers", false)
	if !ok {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      string(hashed),
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		// The images are already hosted; hand them to the janitor so the
		// failed registration leaves nothing behind.
		if h.Janitor != nil {
			for _, location := range []string{avatarURL, coverImageURL} {
				if location == "" {
					continue
				}
				if enqErr := h.Janitor.Enqueue(ctx, location); enqErr != nil {
					logger.Warn("enqueue orphaned image for deletion", "location", location, "error", enqErr)
				}
			}
		}
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "username", username)
			respondError(ctx, w, http.StatusBadRequest, "user already exists")
			return
		}
		logger.Error("register failed to create user", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondData(ctx, w, http.StatusCreated, user.Public(), "user has been created successfully")
}

// Login handles POST /api/v1/users/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := strings.TrimSpace(strings.ToLower(req.Username))
	if login == "" {
		login = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if login == "" || req.Password == "" {
		logger.Warn("login missing credentials")
		respondError(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	user, err := h.Users.FindByLogin(ctx, login)
	if err != nil {
		logger.Warn("login user lookup failed", "login", login, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.IssuePair(ctx, user)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{
		User:         user.Public(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout requests. Clearing the stored
// refresh token is the sole mechanism of server-side session invalidation.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		logger.Error("failed to revoke session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	h.clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "logged out successfully")
}

// Refresh handles POST /api/v1/users/refresh-token requests. The presented
// refresh token is read from the cookie or the request body and exchanged for
// a fresh pair; the old one is invalidated by the rotation.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	presented := ""
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}

	if presented == "" {
		logger.Warn("missing refresh token")
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	_, tokens, err := h.Sessions.Rotate(ctx, presented)
	if err != nil {
		logger.Warn("refresh rejected", "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	h.setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "token refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		respondError(ctx, w, http.StatusBadRequest, "confirm password does not match new password")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	// The identity on the context is scrubbed; fetch the stored hash.
	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Warn("change password user lookup failed", "userId", identity.ID, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		logger.Warn("change password old password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "old password does not match")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("change password failed to hash", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		logger.Error("change password persist failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update password")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	respondData(ctx, w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar requests.
func (h AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", func(u models.User) string {
		return u.AvatarURL
	}, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/update-cover-image requests.
func (h AuthHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", func(u models.User) string {
		return u.CoverImageURL
	}, h.Users.UpdateCoverImage)
}

func (h AuthHandler) updateImage(w http.ResponseWriter, r *http.Request, field, keyPrefix string,
	oldLocation func(models.User) string, persist func(ctx context.Context, id, url string) (models.User, error)) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication invalid")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid image payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	url, ok := h.relayFormImage(w, r, field, keyPrefix, true)
	if !ok {
		return
	}

	user, err := persist(ctx, identity.ID, url)
	if err != nil {
		logger.Error("persist image update failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update image")
		return
	}

	if old := oldLocation(identity); old != "" && h.Janitor != nil {
		if err := h.Janitor.Enqueue(ctx, old); err != nil {
			logger.Warn("enqueue stale image for deletion", "location", old, "error", err)
		}
	}

	respondData(ctx, w, http.StatusOK, user.Public(), field+" updated successfully")
}

// relayFormImage stages the named form file, relays it to the media host and
// removes the staged copy on both the success and failure path. The second
// return value reports whether the caller may continue; the response has
// already been written when it is false.
func (h AuthHandler) relayFormImage(w http.ResponseWriter, r *http.Request, field, keyPrefix string, required bool) (string, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	file, header, err := r.FormFile(field)
	if err != nil {
		if !required && errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		logger.Warn("missing upload", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, field+" image is required")
		return "", false
	}
	defer file.Close()

	staged, err := media.StageFile(h.StagingDir, file, header.Filename)
	if err != nil {
		logger.Error("stage upload", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to process upload")
		return "", false
	}
	defer os.Remove(staged)

	url, err := h.Media.UploadImage(ctx, staged, keyPrefix)
	if err != nil {
		logger.Error("relay upload", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload "+field)
		return "", false
	}

	return url, true
}

func (h AuthHandler) setSessionCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, sessionCookie(middleware.AccessCookie, tokens.AccessToken, tokens.AccessExpiresAt, h.CookieSecure))
	http.SetCookie(w, sessionCookie(refreshCookie, tokens.RefreshToken, tokens.RefreshExpiresAt, h.CookieSecure))
}

func (h AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, expiredCookie(middleware.AccessCookie, h.CookieSecure))
	http.SetCookie(w, expiredCookie(refreshCookie, h.CookieSecure))
}

func sessionCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h AuthHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 512 << 20
}
