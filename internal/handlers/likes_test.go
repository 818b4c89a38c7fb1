package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func toggleVideoLike(t *testing.T, h *LikeHandler, videoID string, user models.User) likeState {
	t.Helper()
	req := authedRequest(http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, nil, user)
	req.SetPathValue("videoId", videoID)
	rec := httptest.NewRecorder()

	h.ToggleVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var state likeState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode like state: %v", err)
	}
	return state
}

func TestToggleVideoLikeAlternates(t *testing.T) {
	videos := newFakeVideoStore()
	video := seedVideo(t, videos, "v1", "owner-a")
	h := &LikeHandler{Likes: newFakeLikeStore(), Videos: videos}
	user := models.User{ID: "viewer"}

	if state := toggleVideoLike(t, h, video.ID, user); !state.Liked {
		t.Fatal("first toggle should like")
	}
	if state := toggleVideoLike(t, h, video.ID, user); state.Liked {
		t.Fatal("second toggle should unlike")
	}
	if state := toggleVideoLike(t, h, video.ID, user); !state.Liked {
		t.Fatal("third toggle should like again")
	}
}

func TestToggleLikeMissingTarget(t *testing.T) {
	h := &LikeHandler{Likes: newFakeLikeStore(), Videos: newFakeVideoStore()}

	req := authedRequest(http.MethodPost, "/api/v1/likes/toggle/v/missing", nil, models.User{ID: "viewer"})
	req.SetPathValue("videoId", "missing")
	rec := httptest.NewRecorder()

	h.ToggleVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestToggleSubscriptionRejectsSelf(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(t, users, "alice", "password123")
	h := &SubscriptionHandler{Subscriptions: nil, Users: users}

	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/c/"+user.ID, nil, user)
	req.SetPathValue("channelId", user.ID)
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubscribedChannelsOnlyOwn(t *testing.T) {
	h := &SubscriptionHandler{Users: newFakeUserStore()}

	req := authedRequest(http.MethodGet, "/api/v1/subscriptions/u/someone-else", nil, models.User{ID: "viewer"})
	req.SetPathValue("subscriberId", "someone-else")
	rec := httptest.NewRecorder()

	h.SubscribedChannels(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
