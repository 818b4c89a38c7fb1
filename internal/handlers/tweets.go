package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

// TweetHandler serves the channel status post endpoints.
type TweetHandler struct {
	Tweets TweetStore
	Users  UserStore
	Now    func() time.Time
}

func (h *TweetHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type tweetRequest struct {
	Content string `json:"content"`
}

// Create implements POST /api/v1/tweets.
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "tweet")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// ListForUser implements GET /api/v1/tweets/user/{userId}, newest first.
func (h *TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(ctx, w); !ok {
		return
	}

	owner, err := h.Users.FindByID(ctx, r.PathValue("userId"))
	if err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	tweets, err := h.Tweets.ListForUser(ctx, owner.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "tweets")
		return
	}

	respondJSON(ctx, w, http.StatusOK, tweets, "tweets fetched successfully")
}

// Update implements PATCH /api/v1/tweets/{tweetId}.
func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, r.PathValue("tweetId"))
	if err != nil {
		respondStoreError(ctx, w, err, "tweet")
		return
	}
	if err := assertOwner(tweet.OwnerID, user.ID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you do not own this tweet")
		return
	}

	if err := h.Tweets.UpdateContent(ctx, tweet.ID, req.Content); err != nil {
		respondStoreError(ctx, w, err, "tweet")
		return
	}

	tweet.Content = req.Content
	respondJSON(ctx, w, http.StatusOK, tweet, "tweet updated successfully")
}

// Delete implements DELETE /api/v1/tweets/{tweetId}.
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	tweet, err := h.Tweets.FindByID(ctx, r.PathValue("tweetId"))
	if err != nil {
		respondStoreError(ctx, w, err, "tweet")
		return
	}
	if err := assertOwner(tweet.OwnerID, user.ID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you do not own this tweet")
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondStoreError(ctx, w, err, "tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "tweet deleted successfully")
}
