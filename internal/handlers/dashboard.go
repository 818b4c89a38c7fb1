package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// DashboardHandler serves channel analytics for the authenticated owner.
type DashboardHandler struct {
	Videos        VideoStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
}

// Stats implements GET /api/v1/dashboard/stats. The counts span several
// tables, so the aggregation runs under a span for latency visibility.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	ctx, span := logging.StartSpan(ctx, "dashboard.stats")
	defer span.End()

	totalVideos, err := h.Videos.CountForOwner(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel stats")
		return
	}

	totalViews, err := h.Videos.SumViewsForOwner(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel stats")
		return
	}

	totalSubscribers, err := h.Subscriptions.CountSubscribers(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel stats")
		return
	}

	totalLikes, err := h.Likes.CountForChannelVideos(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel stats")
		return
	}

	stats := models.ChannelStats{
		TotalVideos:      totalVideos,
		TotalViews:       totalViews,
		TotalSubscribers: totalSubscribers,
		TotalLikes:       totalLikes,
	}

	respondJSON(ctx, w, http.StatusOK, stats, "channel stats fetched")
}

// ChannelVideos implements GET /api/v1/dashboard/videos: every video the
// channel owns, drafts included.
func (h *DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	videos, err := h.Videos.ListByOwner(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos, "channel videos fetched")
}
