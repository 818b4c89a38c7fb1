package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// fakeUserStore is an in-memory UserStore that doubles as the refresh token
// store, mirroring how the real user repository backs both.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateAccount(_ context.Context, id, fullName, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.FullName = fullName
	user.Email = email
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id, location string) error {
	return s.mutate(id, func(u *models.User) { u.Avatar = location })
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id, location string) error {
	return s.mutate(id, func(u *models.User) { u.CoverImage = location })
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(u *models.User) { u.Password = passwordHash })
}

func (s *fakeUserStore) mutate(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&user)
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return models.ChannelProfile{Profile: user.Profile()}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *fakeUserStore) RecordWatch(_ context.Context, _, _ string) error { return nil }

func (s *fakeUserStore) WatchHistory(_ context.Context, _ string) ([]models.Video, error) {
	return nil, nil
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	return s.mutate(userID, func(u *models.User) { u.RefreshToken = token })
}

func (s *fakeUserStore) ClearRefreshToken(_ context.Context, userID string) error {
	return s.mutate(userID, func(u *models.User) { u.RefreshToken = "" })
}

func (s *fakeUserStore) GetRefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return user.RefreshToken, nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) List(_ context.Context, params repositories.ListParams) ([]models.Video, models.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var published []models.Video
	for _, video := range s.videos {
		if video.IsPublished {
			published = append(published, video)
		}
	}
	params = params.Normalize()
	return published, repositories.NewPagination(int64(len(published)), params), nil
}

func (s *fakeVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			owned = append(owned, video)
		}
	}
	return owned, nil
}

func (s *fakeVideoStore) Update(_ context.Context, id, title, description, thumbnail string) error {
	return s.mutate(id, func(v *models.Video) {
		v.Title = title
		v.Description = description
		v.Thumbnail = thumbnail
	})
}

func (s *fakeVideoStore) SetPublishStatus(_ context.Context, id string, published bool) error {
	return s.mutate(id, func(v *models.Video) { v.IsPublished = published })
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	return s.mutate(id, func(v *models.Video) { v.Views++ })
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) CountForOwner(_ context.Context, ownerID string) (int64, error) {
	videos, _ := s.ListByOwner(context.Background(), ownerID)
	return int64(len(videos)), nil
}

func (s *fakeVideoStore) SumViewsForOwner(_ context.Context, ownerID string) (int64, error) {
	videos, _ := s.ListByOwner(context.Background(), ownerID)
	var total int64
	for _, video := range videos {
		total += video.Views
	}
	return total, nil
}

func (s *fakeVideoStore) mutate(id string, fn func(*models.Video)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&video)
	s.videos[id] = video
	return nil
}

type fakeLikeStore struct {
	mu    sync.Mutex
	likes map[string]models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]models.Like)}
}

func (s *fakeLikeStore) FindForVideo(_ context.Context, videoID, userID string) (models.Like, error) {
	return s.find(func(l models.Like) bool { return l.VideoID == videoID && l.LikedByID == userID })
}

func (s *fakeLikeStore) FindForComment(_ context.Context, commentID, userID string) (models.Like, error) {
	return s.find(func(l models.Like) bool { return l.CommentID == commentID && l.LikedByID == userID })
}

func (s *fakeLikeStore) FindForTweet(_ context.Context, tweetID, userID string) (models.Like, error) {
	return s.find(func(l models.Like) bool { return l.TweetID == tweetID && l.LikedByID == userID })
}

func (s *fakeLikeStore) find(match func(models.Like) bool) (models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, like := range s.likes {
		if match(like) {
			return like, nil
		}
	}
	return models.Like{}, repositories.ErrNotFound
}

func (s *fakeLikeStore) Create(_ context.Context, like models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.likes {
		if existing.LikedByID == like.LikedByID &&
			existing.VideoID == like.VideoID &&
			existing.CommentID == like.CommentID &&
			existing.TweetID == like.TweetID {
			return repositories.ErrConflict
		}
	}
	s.likes[like.ID] = like
	return nil
}

func (s *fakeLikeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.likes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.likes, id)
	return nil
}

func (s *fakeLikeStore) ListLikedVideos(_ context.Context, _ string) ([]models.Video, error) {
	return nil, nil
}

func (s *fakeLikeStore) CountForChannelVideos(_ context.Context, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.likes)), nil
}

// fakeFileStore records uploads and hands back deterministic locations.
type fakeFileStore struct {
	mu      sync.Mutex
	uploads []string
}

func (s *fakeFileStore) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location := fmt.Sprintf("https://cdn.test/%s", name)
	s.uploads = append(s.uploads, location)
	return location, nil
}

// fakeCleanupQueue records queued deletions.
type fakeCleanupQueue struct {
	mu        sync.Mutex
	locations []string
}

func (q *fakeCleanupQueue) Enqueue(_ context.Context, location string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.locations = append(q.locations, location)
	return nil
}

func (q *fakeCleanupQueue) queued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.locations...)
}
