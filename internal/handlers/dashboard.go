package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
)

// DashboardHandler serves the channel owner's aggregate views.
type DashboardHandler struct {
	Videos VideoStore
	Stats  StatsStore

	MaxPageSize int
}

// ChannelStats handles GET /api/v1/dashboard/stats requests.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.Stats.ChannelStats(ctx, caller.ID)
	if err != nil {
		logger.Error("load channel stats", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel stats")
		return
	}

	respondData(ctx, w, http.StatusOK, stats, "channel stats fetched successfully")
}

// ChannelVideos handles GET /api/v1/dashboard/videos requests. The listing
// includes the caller's unpublished videos.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
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

	videos, err := h.Videos.ListByOwner(ctx, caller.ID, false, parsePage(r, h.MaxPageSize), parseSort(r))
	if err != nil {
		logger.Error("list channel videos", "error", err, "userId", caller.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel videos")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "channel videos fetched successfully")
}
