package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/videotube/internal/domain/repository"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) count(ctx context.Context, sql, id string) (int64, error) {
	if !validID(id) {
		return 0, nil
	}
	var n int64
	err := r.pool.QueryRow(ctx, sql, id).Scan(&n)
	return n, err
}

func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

func (r *SubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if !validID(subscriberID) || !validID(channelID) {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)
	`, subscriberID, channelID).Scan(&exists)
	return exists, err
}

func (r *SubscriptionRepository) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	if !validID(subscriberID) || !validID(channelID) {
		return repository.ErrNotFound
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (subscriber_id, channel_id)
		VALUES ($1, $2)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING
	`, subscriberID, channelID)
	return translate(err)
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	if !validID(subscriberID) || !validID(channelID) {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`, subscriberID, channelID)
	return err
}

var _ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
