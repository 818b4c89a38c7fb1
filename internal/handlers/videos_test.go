package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func seedVideo(t *testing.T, store *fakeVideoStore, id, ownerID string) models.Video {
	t.Helper()
	video := models.Video{
		ID:          id,
		OwnerID:     ownerID,
		VideoFile:   "https://cdn.test/videos/" + id + ".mp4",
		Thumbnail:   "https://cdn.test/thumbnails/" + id + ".png",
		Title:       "Video " + id,
		Description: "description",
		IsPublished: true,
	}
	if err := store.Create(context.Background(), video); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return video
}

func TestVideoListEnvelope(t *testing.T) {
	videos := newFakeVideoStore()
	seedVideo(t, videos, "v1", "owner-1")
	seedVideo(t, videos, "v2", "owner-2")
	h := &VideoHandler{Videos: videos, Users: newFakeUserStore()}

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/v1/videos?page=1&limit=10", nil, models.User{ID: "viewer"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var data struct {
		Items      []models.Video    `json:"items"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode list data: %v", err)
	}
	if len(data.Items) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(data.Items))
	}
	if data.Pagination.Total != 2 || data.Pagination.CurrentPage != 1 || data.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected pagination: %+v", data.Pagination)
	}
}

func TestVideoGetCountsViewAndRecordsWatch(t *testing.T) {
	videos := newFakeVideoStore()
	video := seedVideo(t, videos, "v1", "owner-1")
	h := &VideoHandler{Videos: videos, Users: newFakeUserStore()}

	req := authedRequest(http.MethodGet, "/api/v1/videos/"+video.ID, nil, models.User{ID: "viewer"})
	req.SetPathValue("videoId", video.ID)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	stored, err := videos.FindByID(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if stored.Views != 1 {
		t.Fatalf("expected 1 view, got %d", stored.Views)
	}
}

func TestVideoUpdateOwnershipGuard(t *testing.T) {
	videos := newFakeVideoStore()
	video := seedVideo(t, videos, "v1", "owner-a")
	h := &VideoHandler{Videos: videos, Users: newFakeUserStore()}

	// Someone else's video: forbidden.
	req := authedRequest(http.MethodPatch, "/api/v1/videos/"+video.ID, nil, models.User{ID: "owner-b"})
	req.SetPathValue("videoId", video.ID)
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign video: expected 403, got %d", rec.Code)
	}

	// Missing video: not found wins over forbidden.
	req = authedRequest(http.MethodPatch, "/api/v1/videos/missing", nil, models.User{ID: "owner-b"})
	req.SetPathValue("videoId", "missing")
	rec = httptest.NewRecorder()
	h.Update(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing video: expected 404, got %d", rec.Code)
	}
}

func TestVideoDeleteQueuesMediaCleanup(t *testing.T) {
	videos := newFakeVideoStore()
	video := seedVideo(t, videos, "v1", "owner-a")
	cleanup := &fakeCleanupQueue{}
	h := &VideoHandler{Videos: videos, Users: newFakeUserStore(), Cleanup: cleanup}

	req := authedRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil, models.User{ID: "owner-a"})
	req.SetPathValue("videoId", video.ID)
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := videos.FindByID(context.Background(), video.ID); err == nil {
		t.Fatal("expected video deleted")
	}

	queued := cleanup.queued()
	if len(queued) != 2 {
		t.Fatalf("expected video file and thumbnail queued, got %v", queued)
	}
}

func TestVideoTogglePublishFlips(t *testing.T) {
	videos := newFakeVideoStore()
	video := seedVideo(t, videos, "v1", "owner-a")
	h := &VideoHandler{Videos: videos, Users: newFakeUserStore()}

	toggle := func() *httptest.ResponseRecorder {
		req := authedRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, nil, models.User{ID: "owner-a"})
		req.SetPathValue("videoId", video.ID)
		rec := httptest.NewRecorder()
		h.TogglePublish(rec, req)
		return rec
	}

	if rec := toggle(); rec.Code != http.StatusOK {
		t.Fatalf("first toggle: expected 200, got %d", rec.Code)
	}
	stored, _ := videos.FindByID(context.Background(), video.ID)
	if stored.IsPublished {
		t.Fatal("expected video unpublished after first toggle")
	}

	if rec := toggle(); rec.Code != http.StatusOK {
		t.Fatalf("second toggle: expected 200, got %d", rec.Code)
	}
	stored, _ = videos.FindByID(context.Background(), video.ID)
	if !stored.IsPublished {
		t.Fatal("expected video published again after second toggle")
	}
}

func TestPublishRequiresMediaFiles(t *testing.T) {
	h := &VideoHandler{Videos: newFakeVideoStore(), Users: newFakeUserStore(), Files: &fakeFileStore{}}

	body, contentType := multipartForm(t, map[string]string{
		"title":       "No media",
		"description": "missing files",
	}, nil)
	req := authedRequest(http.MethodPost, "/api/v1/videos", body, models.User{ID: "owner-a"})
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPublishStoresBothUploads(t *testing.T) {
	videos := newFakeVideoStore()
	files := &fakeFileStore{}
	h := &VideoHandler{Videos: videos, Users: newFakeUserStore(), Files: files}

	body, contentType := multipartForm(t,
		map[string]string{"title": "Launch", "description": "first upload"},
		map[string]string{"videoFile": "raw-video", "thumbnail": "raw-thumb"},
	)
	req := authedRequest(http.MethodPost, "/api/v1/videos", body, models.User{ID: "owner-a"})
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(files.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %v", files.uploads)
	}

	env := decodeEnvelope(t, rec)
	var created models.Video
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created video: %v", err)
	}
	if !created.IsPublished || created.OwnerID != "owner-a" {
		t.Fatalf("unexpected created video: %+v", created)
	}
}
