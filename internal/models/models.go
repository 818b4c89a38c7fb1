package models

import "time"

// User represents a registered account (and therefore a channel) on the
// ClipStream platform. Password and RefreshToken never leave the server;
// handlers serialize users through Profile instead.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	Password     string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public shape of a user embedded in API responses.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

// Profile strips credentials and session state from a user record.
func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}

// ChannelProfile augments a profile with subscription counts relative to the
// viewing user.
type ChannelProfile struct {
	Profile
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

// Video is a published (or draft) video owned by a channel.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Owner is populated on list endpoints via a left join; it stays the
	// zero value when the owning account no longer exists.
	Owner Profile `json:"owner"`
}

// Comment is a remark left on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Owner Profile `json:"owner"`
}

// Tweet is a short status post on a channel.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is a collection of videos curated by its owner.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Like marks exactly one of a video, comment, or tweet as liked by a user.
type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	TweetID   string    `json:"tweetId,omitempty"`
	LikedByID string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription is the directed subscriber -> channel edge.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`

	// One of these is populated on list endpoints depending on direction.
	Subscriber Profile `json:"subscriberDetails"`
	Channel    Profile `json:"channelDetails"`
}

// ChannelStats summarizes a channel for its dashboard.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Pagination describes the slice of a filtered collection a list response
// covers. Total counts the whole filtered universe, not the page.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}
