package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByLogin(ctx, "alice", "")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	byEmail, err := repo.FindByLogin(ctx, "", "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byUsername.ID != user.ID || byEmail.ID != user.ID {
		t.Fatalf("login lookups disagree: %q vs %q", byUsername.ID, byEmail.ID)
	}

	if err := repo.UpdateAccount(ctx, user.ID, "Alice Updated", "alice+new@example.com"); err != nil {
		t.Fatalf("update account: %v", err)
	}
	if err := repo.UpdateAccount(ctx, uuid.NewString(), "Ghost", "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}

	// Refresh token lifecycle: absent, set, rotated, cleared.
	token, err := repo.GetRefreshToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("get refresh token: %v", err)
	}
	if token != "" {
		t.Fatalf("expected no refresh token yet, got %q", token)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, "first-token"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	if err := repo.SetRefreshToken(ctx, user.ID, "second-token"); err != nil {
		t.Fatalf("rotate refresh token: %v", err)
	}
	token, err = repo.GetRefreshToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("get rotated token: %v", err)
	}
	if token != "second-token" {
		t.Fatalf("expected rotation to overwrite, got %q", token)
	}

	if err := repo.ClearRefreshToken(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	token, err = repo.GetRefreshToken(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cleared token: %v", err)
	}
	if token != "" {
		t.Fatalf("expected cleared token, got %q", token)
	}
}

func TestPostgresVideoRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "creator")
	other := createTestUser(t, userRepo, "other")

	repo := NewPostgresVideoRepository(testPool)
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 25; i++ {
		createTestVideo(t, repo, owner.ID, fmt.Sprintf("Go tutorial part %d", i), true, base.Add(time.Duration(i)*time.Minute))
	}
	createTestVideo(t, repo, owner.ID, "Unlisted draft", false, base)
	createTestVideo(t, repo, other.ID, "C++ tutorial (advanced)", true, base)

	// 25 matching videos, limit 10, page 2: the middle slice.
	videos, pagination, err := repo.List(ctx, ListParams{Page: 2, Limit: 10, OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(videos) != 10 {
		t.Fatalf("expected 10 videos on page 2, got %d", len(videos))
	}
	if pagination.Total != 25 || pagination.CurrentPage != 2 || pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", pagination)
	}
	for _, video := range videos {
		if !video.IsPublished {
			t.Fatalf("draft leaked into listing: %+v", video)
		}
		if video.Owner.ID != owner.ID {
			t.Fatalf("expected owner profile embedded, got %+v", video.Owner)
		}
	}

	// Regex metacharacters in the query match literally.
	videos, pagination, err = repo.List(ctx, ListParams{Query: "c++ (advanced)"})
	if err != nil {
		t.Fatalf("list with query: %v", err)
	}
	if pagination.Total != 1 || len(videos) != 1 {
		t.Fatalf("expected exactly the C++ video, got %d (total %d)", len(videos), pagination.Total)
	}

	// Ascending title sort through the allow-list.
	videos, _, err = repo.List(ctx, ListParams{Limit: 3, SortBy: "title", SortType: "asc"})
	if err != nil {
		t.Fatalf("list sorted: %v", err)
	}
	for i := 1; i < len(videos); i++ {
		if videos[i-1].Title > videos[i].Title {
			t.Fatalf("titles out of order: %q before %q", videos[i-1].Title, videos[i].Title)
		}
	}
}

func TestPostgresLikeRepositoryToggleInvariants(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "creator")
	viewer := createTestUser(t, userRepo, "viewer")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Likeable", true, time.Now().UTC())

	repo := NewPostgresLikeRepository(testPool)

	like := models.Like{ID: uuid.NewString(), VideoID: video.ID, LikedByID: viewer.ID, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, like); err != nil {
		t.Fatalf("create like: %v", err)
	}

	dup := like
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate like, got %v", err)
	}

	found, err := repo.FindForVideo(ctx, video.ID, viewer.ID)
	if err != nil {
		t.Fatalf("find like: %v", err)
	}
	if found.ID != like.ID {
		t.Fatalf("expected like %s, got %s", like.ID, found.ID)
	}

	if err := repo.Delete(ctx, like.ID); err != nil {
		t.Fatalf("delete like: %v", err)
	}
	if _, err := repo.FindForVideo(ctx, video.ID, viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	count, err := repo.CountForChannelVideos(ctx, owner.ID)
	if err != nil {
		t.Fatalf("count channel likes: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 likes after delete, got %d", count)
	}
}

func TestPostgresSubscriptionRepositoryEdges(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	channel := createTestUser(t, userRepo, "channel")
	fan := createTestUser(t, userRepo, "fan")

	repo := NewPostgresSubscriptionRepository(testPool)

	sub := models.Subscription{ID: uuid.NewString(), SubscriberID: fan.ID, ChannelID: channel.ID, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate subscription, got %v", err)
	}

	subs, pagination, err := repo.ListSubscribers(ctx, channel.ID, ListParams{})
	if err != nil {
		t.Fatalf("list subscribers: %v", err)
	}
	if pagination.Total != 1 || len(subs) != 1 {
		t.Fatalf("expected one subscriber, got %d (total %d)", len(subs), pagination.Total)
	}
	if subs[0].Subscriber.Username != "fan" {
		t.Fatalf("expected subscriber profile embedded, got %+v", subs[0].Subscriber)
	}

	profile, err := userRepo.ChannelProfile(ctx, "channel", fan.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscriberCount != 1 || !profile.IsSubscribed {
		t.Fatalf("unexpected channel profile: %+v", profile)
	}

	if err := repo.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if _, err := repo.Find(ctx, fan.ID, channel.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after unsubscribe, got %v", err)
	}
}

func TestPostgresPlaylistRepositoryMembership(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "curator")

	videoRepo := NewPostgresVideoRepository(testPool)
	first := createTestVideo(t, videoRepo, owner.ID, "First", true, time.Now().UTC())
	second := createTestVideo(t, videoRepo, owner.ID, "Second", true, time.Now().UTC())

	repo := NewPostgresPlaylistRepository(testPool)
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        "Favorites",
		Description: "the good stuff",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if err := repo.AddVideo(ctx, playlist.ID, first.ID); err != nil {
		t.Fatalf("add first video: %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, second.ID); err != nil {
		t.Fatalf("add second video: %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, first.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict re-adding video, got %v", err)
	}

	fetched, err := repo.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(fetched.VideoIDs) != 2 || fetched.VideoIDs[0] != first.ID {
		t.Fatalf("expected videos in insertion order, got %v", fetched.VideoIDs)
	}

	if err := repo.RemoveVideo(ctx, playlist.ID, first.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}
	if err := repo.RemoveVideo(ctx, playlist.ID, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing absent video, got %v", err)
	}
}

func TestPostgresCommentRepositoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "creator")
	commenter := createTestUser(t, userRepo, "commenter")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Discussed", true, time.Now().UTC())

	repo := NewPostgresCommentRepository(testPool)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		comment := models.Comment{
			ID:        uuid.NewString(),
			VideoID:   video.ID,
			OwnerID:   commenter.ID,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, comment); err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}

	comments, pagination, err := repo.ListForVideo(ctx, video.ID, ListParams{})
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if pagination.Total != 3 {
		t.Fatalf("expected total 3, got %d", pagination.Total)
	}
	if comments[0].Content != "comment 2" {
		t.Fatalf("expected newest comment first, got %q", comments[0].Content)
	}
	if comments[0].Owner.Username != "commenter" {
		t.Fatalf("expected owner profile embedded, got %+v", comments[0].Owner)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `TRUNCATE TABLE watch_history, likes, subscriptions, playlist_videos, playlists, comments, tweets, videos, users CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username,
		Avatar:    "https://cdn.test/avatars/" + username + ".png",
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, published bool, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		VideoFile:   "https://cdn.test/videos/" + uuid.NewString() + ".mp4",
		Thumbnail:   "https://cdn.test/thumbnails/" + uuid.NewString() + ".png",
		Title:       title,
		Description: "test video",
		Duration:    120,
		IsPublished: published,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}
