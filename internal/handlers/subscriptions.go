package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// SubscriptionHandler serves the channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
	Now           func() time.Time
}

func (h *SubscriptionHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle implements POST /api/v1/subscriptions/c/{channelId}.
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondStoreError(ctx, w, err, "channel")
		return
	}

	existing, err := h.Subscriptions.Find(ctx, user.ID, channelID)
	switch {
	case err == nil:
		if err := h.Subscriptions.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			respondStoreError(ctx, w, err, "subscription")
			return
		}
		respondJSON(ctx, w, http.StatusOK, subscriptionState{Subscribed: false}, "unsubscribed")

	case errors.Is(err, repositories.ErrNotFound):
		sub := models.Subscription{
			ID:           uuid.NewString(),
			SubscriberID: user.ID,
			ChannelID:    channelID,
			CreatedAt:    h.now(),
		}
		// A concurrent toggle may land first; the unique index makes the
		// outcome identical either way.
		if err := h.Subscriptions.Create(ctx, sub); err != nil && !errors.Is(err, repositories.ErrConflict) {
			respondStoreError(ctx, w, err, "subscription")
			return
		}
		respondJSON(ctx, w, http.StatusOK, subscriptionState{Subscribed: true}, "subscribed")

	default:
		respondStoreError(ctx, w, err, "subscription")
	}
}

// Subscribers implements GET /api/v1/subscriptions/c/{channelId}.
func (h *SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(ctx, w); !ok {
		return
	}

	channelID := r.PathValue("channelId")
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondStoreError(ctx, w, err, "channel")
		return
	}

	subs, pagination, err := h.Subscriptions.ListSubscribers(ctx, channelID, listParamsFromRequest(r))
	if err != nil {
		respondStoreError(ctx, w, err, "subscribers")
		return
	}

	respondJSON(ctx, w, http.StatusOK, listResponse{Items: subs, Pagination: pagination}, "subscribers fetched")
}

// SubscribedChannels implements GET /api/v1/subscriptions/u/{subscriberId}.
// A user may only list their own subscriptions.
func (h *SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	subscriberID := r.PathValue("subscriberId")
	if err := assertOwner(subscriberID, user.ID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you may only view your own subscriptions")
		return
	}

	subs, pagination, err := h.Subscriptions.ListSubscribedChannels(ctx, subscriberID, listParamsFromRequest(r))
	if err != nil {
		respondStoreError(ctx, w, err, "subscriptions")
		return
	}

	respondJSON(ctx, w, http.StatusOK, listResponse{Items: subs, Pagination: pagination}, "subscriptions fetched")
}
