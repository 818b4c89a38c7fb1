package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserHandler serves account, session, and channel endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Files    FileStore
	Cleanup  CleanupQueue
	Limiter  RateLimiter
	Now      func() time.Time
}

func (h *UserHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// Register implements POST /api/v1/users/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || password == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName, email, username and password are required")
		return
	}

	if _, err := h.Users.FindByLogin(ctx, username, email); err == nil {
		respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondStoreError(ctx, w, err, "user")
		return
	}

	avatarFile, avatarHeader, ok, err := formFile(r, "avatar")
	if err != nil || !ok {
		respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer avatarFile.Close()

	avatar, err := storeUpload(ctx, h.Files, avatarFile, avatarHeader, "avatars")
	if err != nil {
		logging.FromContext(ctx).Error("avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	var coverImage string
	if coverFile, coverHeader, ok, err := formFile(r, "coverImage"); err == nil && ok {
		defer coverFile.Close()
		coverImage, err = storeUpload(ctx, h.Files, coverFile, coverHeader, "covers")
		if err != nil {
			logging.FromContext(ctx).Error("cover image upload failed", "error", err)
			discardObjects(ctx, h.Cleanup, avatar)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		discardObjects(ctx, h.Cleanup, avatar, coverImage)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatar,
		CoverImage: coverImage,
		Password:   string(hash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		discardObjects(ctx, h.Cleanup, avatar, coverImage)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
			return
		}
		respondStoreError(ctx, w, err, "user")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, user.Profile(), "user registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.Profile `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

// Login implements POST /api/v1/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}
	if req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "password is required")
		return
	}

	user, err := h.Users.FindByLogin(ctx, req.Username, req.Email)
	if err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("session issue failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		User:         user.Profile(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "logged in successfully")
}

// Logout implements POST /api/v1/users/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		respondStoreError(ctx, w, err, "session")
		return
	}

	clearAuthCookies(w)
	respondJSON(ctx, w, http.StatusOK, nil, "logged out successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshSession implements POST /api/v1/users/refresh-token. The incoming
// token is read from the cookie first, then the request body.
func (h *UserHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrRefreshTokenReused),
			errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		default:
			logging.FromContext(ctx).Error("session refresh failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to refresh session")
		}
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, refreshResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "session refreshed")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword implements POST /api/v1/users/change-password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}

	// The context user was sanitized by the auth middleware; fetch the hash.
	stored, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid old password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "password changed successfully")
}

// CurrentUser implements GET /api/v1/users/current-user.
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	respondJSON(ctx, w, http.StatusOK, user.Profile(), "current user fetched")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateAccount implements PATCH /api/v1/users/update-account.
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}

	if err := h.Users.UpdateAccount(ctx, user.ID, req.FullName, req.Email); err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	updated, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Profile(), "account updated successfully")
}

// UpdateAvatar implements PATCH /api/v1/users/avatar.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", func(u models.User) string { return u.Avatar }, h.Users.UpdateAvatar)
}

// UpdateCoverImage implements PATCH /api/v1/users/cover-image.
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", func(u models.User) string { return u.CoverImage }, h.Users.UpdateCoverImage)
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field, prefix string,
	current func(models.User) string,
	update func(ctx context.Context, id, location string) error,
) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, found, err := formFile(r, field)
	if err != nil || !found {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}
	defer file.Close()

	location, err := storeUpload(ctx, h.Files, file, header, prefix)
	if err != nil {
		logging.FromContext(ctx).Error("image upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store "+field)
		return
	}

	if err := update(ctx, user.ID, location); err != nil {
		discardObjects(ctx, h.Cleanup, location)
		respondStoreError(ctx, w, err, "user")
		return
	}

	// The replaced object is orphaned now; drop it in the background.
	discardObjects(ctx, h.Cleanup, current(user))

	updated, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "user")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Profile(), field+" updated successfully")
}

// Channel implements GET /api/v1/users/c/{username}.
func (h *UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile, "channel fetched successfully")
}

// WatchHistory implements GET /api/v1/users/history.
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(ctx, w)
	if !ok {
		return
	}

	videos, err := h.Users.WatchHistory(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "watch history")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos, "watch history fetched")
}

