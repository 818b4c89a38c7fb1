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

// videoSortFields is the allow-list for the video list endpoint. Anything
// else falls back to created_at.
var videoSortFields = map[string]string{
	"title":     "v.title",
	"views":     "v.views",
	"createdAt": "v.created_at",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoWithOwnerColumns = `
        v.id, v.owner_id, v.video_file, v.thumbnail, v.title, v.description,
        v.duration, v.views, v.is_published, v.created_at, v.updated_at,
        u.id, u.username, u.email, u.full_name, u.avatar, u.cover_image`

// collectVideosWithOwner scans rows produced by a videos LEFT JOIN users
// query. A missing owner row leaves the embedded profile empty.
func collectVideosWithOwner(rows pgx.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		var (
			video models.Video
			owner nullProfile
		)
		err := rows.Scan(
			&video.ID, &video.OwnerID, &video.VideoFile, &video.Thumbnail,
			&video.Title, &video.Description, &video.Duration, &video.Views,
			&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
			&owner.ID, &owner.Username, &owner.Email, &owner.FullName,
			&owner.Avatar, &owner.CoverImage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		video.Owner = owner.profile()
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// nullProfile scans a possibly absent joined user row.
type nullProfile struct {
	ID         sql.NullString
	Username   sql.NullString
	Email      sql.NullString
	FullName   sql.NullString
	Avatar     sql.NullString
	CoverImage sql.NullString
}

func (p nullProfile) profile() models.Profile {
	return models.Profile{
		ID:         p.ID.String,
		Username:   p.Username.String,
		Email:      p.Email.String,
		FullName:   p.FullName.String,
		Avatar:     p.Avatar.String,
		CoverImage: p.CoverImage.String,
	}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoFile, video.Thumbnail, video.Title,
		video.Description, video.Duration, video.Views, video.IsPublished,
		video.CreatedAt, video.UpdatedAt)
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
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video without joins.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	err = row.Scan(
		&video.ID, &video.OwnerID, &video.VideoFile, &video.Thumbnail,
		&video.Title, &video.Description, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// List returns a page of published videos matching the filter, each with its
// owner embedded, plus pagination metadata counted over the same filter.
func (r *PostgresVideoRepository) List(ctx context.Context, params ListParams) ([]models.Video, models.Pagination, error) {
	params = params.Normalize()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	const filter = `
        WHERE v.is_published
          AND ($1 = '' OR v.owner_id = $1)
          AND ($2 = '' OR v.title ~* $2)`

	pattern := params.SearchPattern()

	// The sort column comes from the allow-list, never from the request.
	orderBy := params.SortColumn(videoSortFields, "v.created_at")
	query := `
        SELECT ` + videoWithOwnerColumns + `
        FROM videos v
        LEFT JOIN users u ON u.id = v.owner_id
        ` + filter + `
        ORDER BY ` + orderBy + ` ` + params.SortDirection() + `
        OFFSET $3 LIMIT $4`

	rows, err := conn.Query(ctx, query, params.OwnerID, pattern, params.Offset(), params.Limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos, err := collectVideosWithOwner(rows)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	rows.Close()

	var total int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM videos v
        `+filter, params.OwnerID, pattern).Scan(&total)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count videos: %w", err)
	}

	return videos, NewPagination(total, params), nil
}

// ListByOwner returns all videos of a channel regardless of publish status,
// newest first. Used by the owner's dashboard.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        LEFT JOIN users u ON u.id = v.owner_id
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	return collectVideosWithOwner(rows)
}

// Update replaces the mutable video details.
func (r *PostgresVideoRepository) Update(ctx context.Context, id, title, description, thumbnail string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail = $4, updated_at = NOW()
        WHERE id = $1
    `, id, title, description, thumbnail)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetPublishStatus flips the publish flag.
func (r *PostgresVideoRepository) SetPublishStatus(ctx context.Context, id string, published bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET is_published = $2, updated_at = NOW() WHERE id = $1`, id, published)
	if err != nil {
		return fmt.Errorf("update publish status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews bumps the view counter.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the video row. Dependent rows (comments, likes, playlist
// entries, watch history) go with it via ON DELETE CASCADE.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountForOwner returns the number of videos a channel has uploaded.
func (r *PostgresVideoRepository) CountForOwner(ctx context.Context, ownerID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}

	return total, nil
}

// SumViewsForOwner totals the views across a channel's videos.
func (r *PostgresVideoRepository) SumViewsForOwner(ctx context.Context, ownerID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum views: %w", err)
	}

	return total, nil
}
