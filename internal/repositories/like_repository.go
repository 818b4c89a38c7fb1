package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
// Partial unique indexes on (liked_by, video_id), (liked_by, comment_id) and
// (liked_by, tweet_id) make the toggle's insert side atomic: a concurrent
// duplicate surfaces as ErrConflict instead of a second row.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func (r *PostgresLikeRepository) find(ctx context.Context, column, targetID, userID string) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, COALESCE(video_id, ''), COALESCE(comment_id, ''), COALESCE(tweet_id, ''), liked_by, created_at
        FROM likes
        WHERE `+column+` = $1 AND liked_by = $2
    `, targetID, userID)

	var like models.Like
	err = row.Scan(&like.ID, &like.VideoID, &like.CommentID, &like.TweetID, &like.LikedByID, &like.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}

	return like, nil
}

// FindForVideo returns the user's like on a video, if any.
func (r *PostgresLikeRepository) FindForVideo(ctx context.Context, videoID, userID string) (models.Like, error) {
	return r.find(ctx, "video_id", videoID, userID)
}

// FindForComment returns the user's like on a comment, if any.
func (r *PostgresLikeRepository) FindForComment(ctx context.Context, commentID, userID string) (models.Like, error) {
	return r.find(ctx, "comment_id", commentID, userID)
}

// FindForTweet returns the user's like on a tweet, if any.
func (r *PostgresLikeRepository) FindForTweet(ctx context.Context, tweetID, userID string) (models.Like, error) {
	return r.find(ctx, "tweet_id", tweetID, userID)
}

// Create persists a like. Exactly one target id must be set.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, video_id, comment_id, tweet_id, liked_by, created_at)
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6)
    `, like.ID, like.VideoID, like.CommentID, like.TweetID, like.LikedByID, like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// Delete removes a like by primary key.
func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListLikedVideos returns the videos a user has liked, most recently liked
// first, with owners embedded.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        LEFT JOIN users u ON u.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return collectVideosWithOwner(rows)
}

// CountForChannelVideos totals the likes across all videos a channel owns.
func (r *PostgresLikeRepository) CountForChannelVideos(ctx context.Context, channelID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total sql.NullInt64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        WHERE v.owner_id = $1
    `, channelID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count channel likes: %w", err)
	}

	return total.Int64, nil
}
