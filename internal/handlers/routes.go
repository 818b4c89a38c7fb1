package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/middleware"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Verifier middleware.AccessVerifier

	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Playlists     PlaylistStore
	Likes         LikeStore
	Subscriptions SubscriptionStore

	Files   FileStore
	Cleanup CleanupQueue

	// AuthLimiter throttles login and registration attempts per client IP.
	AuthLimiter RateLimiter

	Now func() time.Time
}

func rejectUnauthorized(ctx context.Context, w http.ResponseWriter, message string) {
	respondError(ctx, w, http.StatusUnauthorized, message)
}

// RegisterRoutes wires every endpoint onto the mux under /api/v1.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	users := &UserHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Files:    deps.Files,
		Cleanup:  deps.Cleanup,
		Limiter:  deps.AuthLimiter,
		Now:      deps.Now,
	}
	videos := &VideoHandler{
		Videos:  deps.Videos,
		Users:   deps.Users,
		Files:   deps.Files,
		Cleanup: deps.Cleanup,
		Now:     deps.Now,
	}
	comments := &CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Now: deps.Now}
	tweets := &TweetHandler{Tweets: deps.Tweets, Users: deps.Users, Now: deps.Now}
	playlists := &PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Users: deps.Users, Now: deps.Now}
	likes := &LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments, Tweets: deps.Tweets, Now: deps.Now}
	subscriptions := &SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users, Now: deps.Now}
	dashboard := &DashboardHandler{Videos: deps.Videos, Likes: deps.Likes, Subscriptions: deps.Subscriptions}

	authed := middleware.Authenticate(deps.Verifier, deps.Users, rejectUnauthorized)
	protect := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authed(fn))
	}

	mux.HandleFunc("GET /healthz", HealthHandler{}.Handle)

	// Session endpoints stay public; everything else requires a valid token.
	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshSession)

	protect("POST /api/v1/users/logout", users.Logout)
	protect("POST /api/v1/users/change-password", users.ChangePassword)
	protect("GET /api/v1/users/current-user", users.CurrentUser)
	protect("PATCH /api/v1/users/update-account", users.UpdateAccount)
	protect("PATCH /api/v1/users/avatar", users.UpdateAvatar)
	protect("PATCH /api/v1/users/cover-image", users.UpdateCoverImage)
	protect("GET /api/v1/users/c/{username}", users.Channel)
	protect("GET /api/v1/users/history", users.WatchHistory)

	protect("GET /api/v1/videos", videos.List)
	protect("POST /api/v1/videos", videos.Publish)
	protect("GET /api/v1/videos/{videoId}", videos.Get)
	protect("PATCH /api/v1/videos/{videoId}", videos.Update)
	protect("DELETE /api/v1/videos/{videoId}", videos.Delete)
	protect("PATCH /api/v1/videos/toggle/publish/{videoId}", videos.TogglePublish)

	protect("GET /api/v1/comments/{videoId}", comments.ListForVideo)
	protect("POST /api/v1/comments/{videoId}", comments.Add)
	protect("PATCH /api/v1/comments/c/{commentId}", comments.Update)
	protect("DELETE /api/v1/comments/c/{commentId}", comments.Delete)

	protect("POST /api/v1/tweets", tweets.Create)
	protect("GET /api/v1/tweets/user/{userId}", tweets.ListForUser)
	protect("PATCH /api/v1/tweets/{tweetId}", tweets.Update)
	protect("DELETE /api/v1/tweets/{tweetId}", tweets.Delete)

	protect("POST /api/v1/playlist", playlists.Create)
	protect("GET /api/v1/playlist/{playlistId}", playlists.Get)
	protect("GET /api/v1/playlist/user/{userId}", playlists.ListForUser)
	protect("PATCH /api/v1/playlist/add/{videoId}/{playlistId}", playlists.AddVideo)
	protect("PATCH /api/v1/playlist/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
	protect("PATCH /api/v1/playlist/{playlistId}", playlists.Update)
	protect("DELETE /api/v1/playlist/{playlistId}", playlists.Delete)

	protect("POST /api/v1/likes/toggle/v/{videoId}", likes.ToggleVideo)
	protect("POST /api/v1/likes/toggle/c/{commentId}", likes.ToggleComment)
	protect("POST /api/v1/likes/toggle/t/{tweetId}", likes.ToggleTweet)
	protect("GET /api/v1/likes/videos", likes.LikedVideos)

	protect("POST /api/v1/subscriptions/c/{channelId}", subscriptions.Toggle)
	protect("GET /api/v1/subscriptions/c/{channelId}", subscriptions.Subscribers)
	protect("GET /api/v1/subscriptions/u/{subscriberId}", subscriptions.SubscribedChannels)

	protect("GET /api/v1/dashboard/stats", dashboard.Stats)
	protect("GET /api/v1/dashboard/videos", dashboard.ChannelVideos)
}
