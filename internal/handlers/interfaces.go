package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the user persistence operations handlers depend on.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, location string) error
	UpdateCoverImage(ctx context.Context, id, location string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.Video, error)
}

// SessionManager issues, rotates, and revokes token pairs.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures video persistence operations.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, params repositories.ListParams) ([]models.Video, models.Pagination, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	Update(ctx context.Context, id, title, description, thumbnail string) error
	SetPublishStatus(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountForOwner(ctx context.Context, ownerID string) (int64, error)
	SumViewsForOwner(ctx context.Context, ownerID string) (int64, error)
}

// CommentStore captures comment persistence operations.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string, params repositories.ListParams) ([]models.Comment, models.Pagination, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// TweetStore captures tweet persistence operations.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures playlist persistence operations.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// LikeStore captures like persistence operations.
type LikeStore interface {
	FindForVideo(ctx context.Context, videoID, userID string) (models.Like, error)
	FindForComment(ctx context.Context, commentID, userID string) (models.Like, error)
	FindForTweet(ctx context.Context, tweetID, userID string) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) error
	ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error)
	CountForChannelVideos(ctx context.Context, channelID string) (int64, error)
}

// SubscriptionStore captures subscription persistence operations.
type SubscriptionStore interface {
	Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, id string) error
	ListSubscribers(ctx context.Context, channelID string, params repositories.ListParams) ([]models.Subscription, models.Pagination, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string, params repositories.ListParams) ([]models.Subscription, models.Pagination, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
}

// FileStore uploads media and returns the public location.
type FileStore interface {
	Upload(ctx context.Context, name string, body io.Reader) (string, error)
}

// CleanupQueue schedules background deletion of replaced or orphaned objects.
type CleanupQueue interface {
	Enqueue(ctx context.Context, location string) error
}
