package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipstream/backend/internal/models"
)

var (
	// ErrInvalidToken indicates the presented token failed signature, expiry
	// or rotation checks. Callers must not leak which check failed.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the decoded payload of an access token.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// UserStore captures the persistence operations the token service needs: it
// loads users during rotation and pins the current refresh token to the user
// record so a session can be invalidated by clearing one field.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
}

// Service issues and rotates the access/refresh token pair. Refresh tokens
// are single-session: the only valid refresh token for a user is the one
// currently stored on their record, and every rotation replaces it.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	users UserStore

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewService constructs a token service with the provided secrets and TTLs.
func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, users UserStore) *Service {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		users:         users,
	}
}

// IssueAccess signs a short-lived access token carrying the user's identity claims.
func (s *Service) IssueAccess(user models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return token, expiresAt, nil
}

func (s *Service) issueRefresh(user models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.refreshTTL)

	claims := refreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return token, expiresAt, nil
}

// IssuePair creates a fresh access/refresh pair and persists the refresh
// token on the user record, replacing any previously issued one.
func (s *Service) IssuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	access, accessExp, err := s.IssueAccess(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, refreshExp, err := s.issueRefresh(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ValidateAccess verifies the signature and expiry of an access token and
// returns its claims.
func (s *Service) ValidateAccess(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// Rotate exchanges a presented refresh token for a fresh pair. The token must
// verify and must equal the one stored on the user record; presenting a stale
// or already-rotated token fails, which is how reuse of a stolen token is
// detected.
func (s *Service) Rotate(ctx context.Context, presented string) (models.User, models.TokenPair, error) {
	if presented == "" {
		return models.User{}, models.TokenPair{}, ErrInvalidToken
	}

	var claims refreshClaims
	parsed, err := jwt.ParseWithClaims(presented, &claims, func(*jwt.Token) (any, error) {
		return s.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return models.User{}, models.TokenPair{}, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, models.TokenPair{}, ErrInvalidToken
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return models.User{}, models.TokenPair{}, ErrInvalidToken
	}

	pair, err := s.IssuePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Revoke clears the stored refresh token, ending the user's session. This is
// the sole mechanism of server-side session invalidation.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
