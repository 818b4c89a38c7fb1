package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// VideoHandler serves the video catalog endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Users   UserStore
	Files   FileStore
	Cleanup CleanupQueue
	Now     func() time.Time
}

func (h *VideoHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// List implements GET /api/v1/videos. Only published videos are returned;
// query, userId, sortBy, sortType, page and limit narrow and order the result.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(ctx, w); !ok {
		return
	}

	videos, pagination, err := h.Videos.List(ctx, listParamsFromRequest(r))
	if err != nil {
		respondStoreError(ctx, w, err, "videos")
		return
	}

	respondJSON(ctx, w, http.StatusOK, listResponse{Items: videos, Pagination: pagination}, "videos fetched successfully")
}

// Publish implements POST /api/v1/videos: uploads the video file and its
// thumbnail, then records the video as published.
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoFile, videoHeader, found, err := formFile(r, "videoFile")
	if err != nil || !found {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, found, err := formFile(r, "thumbnail")
	if err != nil || !found {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}
	defer thumbFile.Close()

	videoLocation, err := storeUpload(ctx, h.Files, videoFile, videoHeader, "videos")
	if err != nil {
		logging.FromContext(ctx).Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbLocation, err := storeUpload(ctx, h.Files, thumbFile, thumbHeader, "thumbnails")
	if err != nil {
		logging.FromContext(ctx).Error("thumbnail upload failed", "error", err)
		discardObjects(ctx, h.Cleanup, videoLocation)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		VideoFile:   videoLocation,
		Thumbnail:   thumbLocation,
		Title:       title,
		Description: description,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		discardObjects(ctx, h.Cleanup, videoLocation, thumbLocation)
		respondStoreError(ctx, w, err, "video")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Get implements GET /api/v1/videos/{videoId}. Fetching a video counts a view
// and records it in the viewer's watch history.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	// View accounting is best effort; the fetch still succeeds if it fails.
	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logging.FromContext(ctx).Warn("failed to count view", "videoId", video.ID, "error", err)
	} else {
		video.Views++
	}
	if err := h.Users.RecordWatch(ctx, user.ID, video.ID); err != nil {
		logging.FromContext(ctx).Warn("failed to record watch", "videoId", video.ID, "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, video, "video fetched successfully")
}

// Update implements PATCH /api/v1/videos/{videoId}: new title, description,
// and thumbnail. The replaced thumbnail is deleted in the background.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r.PathValue("videoId"), user.ID)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	thumbFile, thumbHeader, found, err := formFile(r, "thumbnail")
	if err != nil || !found {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}
	defer thumbFile.Close()

	thumbLocation, err := storeUpload(ctx, h.Files, thumbFile, thumbHeader, "thumbnails")
	if err != nil {
		logging.FromContext(ctx).Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	if err := h.Videos.Update(ctx, video.ID, title, description, thumbLocation); err != nil {
		discardObjects(ctx, h.Cleanup, thumbLocation)
		respondStoreError(ctx, w, err, "video")
		return
	}

	discardObjects(ctx, h.Cleanup, video.Thumbnail)

	updated, err := h.Videos.FindByID(ctx, video.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "video updated successfully")
}

// Delete implements DELETE /api/v1/videos/{videoId}. The stored media files
// are removed in the background after the row is gone.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r.PathValue("videoId"), user.ID)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	discardObjects(ctx, h.Cleanup, video.VideoFile, video.Thumbnail)

	respondJSON(ctx, w, http.StatusOK, nil, "video deleted successfully")
}

// TogglePublish implements PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	video, ok := h.ownedVideo(ctx, w, r.PathValue("videoId"), user.ID)
	if !ok {
		return
	}

	if err := h.Videos.SetPublishStatus(ctx, video.ID, !video.IsPublished); err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	video.IsPublished = !video.IsPublished
	respondJSON(ctx, w, http.StatusOK, video, "publish status toggled")
}

// ownedVideo loads a video and enforces the ownership guard: a missing video
// reports not found before a foreign one reports forbidden.
func (h *VideoHandler) ownedVideo(ctx context.Context, w http.ResponseWriter, videoID, actorID string) (models.Video, bool) {
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video")
		return models.Video{}, false
	}

	if err := assertOwner(video.OwnerID, actorID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you do not own this video")
		return models.Video{}, false
	}

	return video, true
}

