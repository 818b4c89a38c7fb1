package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// PlaylistHandler serves the playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Users     UserStore
	Now       func() time.Time
}

func (h *PlaylistHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create implements POST /api/v1/playlist.
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondStoreError(ctx, w, err, "playlist")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get implements GET /api/v1/playlist/{playlistId}.
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(ctx, w); !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// ListForUser implements GET /api/v1/playlist/user/{userId}.
func (h *PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(ctx, w); !ok {
		return
	}

	owner, err := h.Users.FindByID(ctx, r.PathValue("userId"))
	if err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	playlists, err := h.Playlists.ListForUser(ctx, owner.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlists")
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update implements PATCH /api/v1/playlist/{playlistId}.
func (h *PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	playlist, ok := h.ownedPlaylist(ctx, w, r.PathValue("playlistId"), user.ID)
	if !ok {
		return
	}

	if err := h.Playlists.Update(ctx, playlist.ID, req.Name, req.Description); err != nil {
		respondStoreError(ctx, w, err, "playlist")
		return
	}

	playlist.Name = req.Name
	playlist.Description = req.Description
	respondJSON(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete implements DELETE /api/v1/playlist/{playlistId}.
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	playlist, ok := h.ownedPlaylist(ctx, w, r.PathValue("playlistId"), user.ID)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondStoreError(ctx, w, err, "playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "playlist deleted successfully")
}

// AddVideo implements PATCH /api/v1/playlist/add/{videoId}/{playlistId}.
func (h *PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	playlist, ok := h.ownedPlaylist(ctx, w, r.PathValue("playlistId"), user.ID)
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video")
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, video.ID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusBadRequest, "video already in playlist")
			return
		}
		respondStoreError(ctx, w, err, "playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo implements PATCH /api/v1/playlist/remove/{videoId}/{playlistId}.
func (h *PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	playlist, ok := h.ownedPlaylist(ctx, w, r.PathValue("playlistId"), user.ID)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, r.PathValue("videoId")); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not in playlist")
			return
		}
		respondStoreError(ctx, w, err, "playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

func (h *PlaylistHandler) ownedPlaylist(ctx context.Context, w http.ResponseWriter, playlistID, actorID string) (models.Playlist, bool) {
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist")
		return models.Playlist{}, false
	}

	if err := assertOwner(playlist.OwnerID, actorID); err != nil {
		respondError(ctx, w, http.StatusForbidden, "you do not own this playlist")
		return models.Playlist{}, false
	}

	return playlist, true
}
