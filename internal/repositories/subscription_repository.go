package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscriber -> channel edges. A unique index on the ordered pair backs the
// toggle: concurrent duplicate subscribes collapse into ErrConflict.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Find returns the edge between a subscriber and a channel, if present.
func (r *PostgresSubscriptionRepository) Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)

	var sub models.Subscription
	err = row.Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}

	return sub, nil
}

// Create persists a new subscription edge.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
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
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Delete removes a subscription edge by primary key.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListSubscribers returns a page of a channel's subscribers with their
// profiles embedded, plus the total subscriber count.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string, params ListParams) ([]models.Subscription, models.Pagination, error) {
	params = params.Normalize()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT s.id, s.subscriber_id, s.channel_id, s.created_at,
               u.id, u.username, u.email, u.full_name, u.avatar, u.cover_image
        FROM subscriptions s
        LEFT JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
        OFFSET $2 LIMIT $3
    `, channelID, params.Offset(), params.Limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	subs, err := collectSubscriptions(rows, true)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	rows.Close()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count subscribers: %w", err)
	}

	return subs, NewPagination(total, params), nil
}

// ListSubscribedChannels returns a page of the channels a user subscribes
// to, with the channel profiles embedded.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string, params ListParams) ([]models.Subscription, models.Pagination, error) {
	params = params.Normalize()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT s.id, s.subscriber_id, s.channel_id, s.created_at,
               u.id, u.username, u.email, u.full_name, u.avatar, u.cover_image
        FROM subscriptions s
        LEFT JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
        OFFSET $2 LIMIT $3
    `, subscriberID, params.Offset(), params.Limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("query subscribed channels: %w", err)
	}
	defer rows.Close()

	subs, err := collectSubscriptions(rows, false)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	rows.Close()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count subscribed channels: %w", err)
	}

	return subs, NewPagination(total, params), nil
}

// CountSubscribers returns a channel's subscriber count.
func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}

	return total, nil
}

// collectSubscriptions scans edges joined with the profile on one side.
func collectSubscriptions(rows pgx.Rows, subscriberSide bool) ([]models.Subscription, error) {
	var subs []models.Subscription
	for rows.Next() {
		var (
			sub     models.Subscription
			profile nullProfile
		)
		err := rows.Scan(
			&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt,
			&profile.ID, &profile.Username, &profile.Email, &profile.FullName,
			&profile.Avatar, &profile.CoverImage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if subscriberSide {
			sub.Subscriber = profile.profile()
		} else {
			sub.Channel = profile.profile()
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}
