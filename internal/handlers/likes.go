package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// LikeHandler serves like toggles for videos, comments, and tweets.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore
	Now      func() time.Time
}

func (h *LikeHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type likeState struct {
	Liked bool `json:"liked"`
}

// ToggleVideo implements POST /api/v1/likes/toggle/v/{videoId}.
func (h *LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	h.toggle(ctx, w, user.ID,
		func() (models.Like, error) { return h.Likes.FindForVideo(ctx, videoID, user.ID) },
		models.Like{VideoID: videoID},
	)
}

// ToggleComment implements POST /api/v1/likes/toggle/c/{commentId}.
func (h *LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	commentID := r.PathValue("commentId")
	if _, err := h.Comments.FindByID(ctx, commentID); err != nil {
		respondStoreError(ctx, w, err, "comment")
		return
	}

	h.toggle(ctx, w, user.ID,
		func() (models.Like, error) { return h.Likes.FindForComment(ctx, commentID, user.ID) },
		models.Like{CommentID: commentID},
	)
}

// ToggleTweet implements POST /api/v1/likes/toggle/t/{tweetId}.
func (h *LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	tweetID := r.PathValue("tweetId")
	if _, err := h.Tweets.FindByID(ctx, tweetID); err != nil {
		respondStoreError(ctx, w, err, "tweet")
		return
	}

	h.toggle(ctx, w, user.ID,
		func() (models.Like, error) { return h.Likes.FindForTweet(ctx, tweetID, user.ID) },
		models.Like{TweetID: tweetID},
	)
}

// toggle flips the like state for one target. Concurrent toggles race on the
// unique index, so a conflicting insert or vanished row resolves to the state
// the competing request produced.
func (h *LikeHandler) toggle(ctx context.Context, w http.ResponseWriter, userID string, find func() (models.Like, error), like models.Like) {
	existing, err := find()
	switch {
	case err == nil:
		if err := h.Likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			respondStoreError(ctx, w, err, "like")
			return
		}
		respondJSON(ctx, w, http.StatusOK, likeState{Liked: false}, "like removed")

	case errors.Is(err, repositories.ErrNotFound):
		like.ID = uuid.NewString()
		like.LikedByID = userID
		like.CreatedAt = h.now()
		if err := h.Likes.Create(ctx, like); err != nil && !errors.Is(err, repositories.ErrConflict) {
			respondStoreError(ctx, w, err, "like")
			return
		}
		respondJSON(ctx, w, http.StatusOK, likeState{Liked: true}, "like added")

	default:
		respondStoreError(ctx, w, err, "like")
	}
}

// LikedVideos implements GET /api/v1/likes/videos.
func (h *LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	videos, err := h.Likes.ListLikedVideos(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "liked videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos, "liked videos fetched")
}
