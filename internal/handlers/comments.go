package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

// CommentHandler serves the comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Now      func() time.Time
}

func (h *CommentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// ListForVideo implements GET /api/v1/comments/{videoId}, newest first.
func (h *CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(ctx, w); !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	comments, pagination, err := h.Comments.ListForVideo(ctx, video.ID, listParamsFromRequest(r))
	if err != nil {
		respondStoreError(ctx, w, err, "comments")
		return
	}

	respondJSON(ctx, w, http.StatusOK, listResponse{Items: comments, Pagination: pagination}, "comments fetched successfully")
}

type commentRequest struct {
	Content string `json:"content"`
}

// Add implements POST /api/v1/comments/{videoId}.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
		Owner:     user.Profile(),
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, "comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update implements PATCH /api/v1/comments/c/{commentId}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentId"))
	if err != nil {
		respondStoreError(ctx, w, err, "comment")
		return
	}
	if err := assertOwner(comment.OwnerID, user.ID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you do not own this comment")
		return
	}

	if err := h.Comments.UpdateContent(ctx, comment.ID, req.Content); err != nil {
		respondStoreError(ctx, w, err, "comment")
		return
	}

	comment.Content = req.Content
	respondJSON(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete implements DELETE /api/v1/comments/c/{commentId}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentId"))
	if err != nil {
		respondStoreError(ctx, w, err, "comment")
		return
	}
	if err := assertOwner(comment.OwnerID, user.ID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you do not own this comment")
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondStoreError(ctx, w, err, "comment")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "comment deleted successfully")
}
