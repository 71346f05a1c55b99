package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
)

// ChannelHandler serves channel profiles and subscription toggles.
type ChannelHandler struct {
	Users         UserStore
	Subscriptions SubscriptionStore
}

// Profile handles GET /api/v1/users/channel/{username} requests. The viewer's
// identity drives the isSubscribed flag in the response.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.Subscriptions.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("load channel profile", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel fetched successfully")
}

// Toggle handles POST /api/v1/subscriptions/toggle/{username} requests.
// A single row flip decides between subscribe and unsubscribe so concurrent
// toggles never double-insert.
func (h ChannelHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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
		logger.Error("subscription channel lookup", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	if channel.ID == viewer.ID {
		respondError(ctx, w, http.StatusBadRequest, "you cannot subscribe to your own channel")
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, viewer.ID, channel.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("toggle subscription", "error", err, "channelId", channel.ID, "subscriberId", viewer.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle subscription")
		return
	}

	message := "unsubscribed successfully"
	if subscribed {
		message = "subscribed successfully"
	}
	respondData(ctx, w, http.StatusOK, subscriptionStatus{Subscribed: subscribed}, message)
}

// Status handles GET /api/v1/subscriptions/status/{username} requests.
func (h ChannelHandler) Status(w http.ResponseWriter, r *http.Request) {
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
		logger.Error("subscription status channel lookup", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	subscribed, err := h.Subscriptions.IsSubscribed(ctx, viewer.ID, channel.ID)
	if err != nil {
		logger.Error("subscription status", "error", err, "channelId", channel.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load subscription status")
		return
	}

	respondData(ctx, w, http.StatusOK, subscriptionStatus{Subscribed: subscribed}, "subscription status fetched successfully")
}

type subscriptionStatus struct {
	Subscribed bool `json:"subscribed"`
}
