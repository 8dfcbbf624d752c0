package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Repository persists a buyer's cart. Backed by Redis: one JSON document
// per user, no TTL — the cart survives until checkout clears it.
type Repository interface {
	GetItems(ctx context.Context, userID uint) ([]Item, error)
	SaveItems(ctx context.Context, userID uint, items []Item) error
	Clear(ctx context.Context, userID uint) error
}

type repository struct {
	rdb *redis.Client
}

func NewRepository(rdb *redis.Client) Repository {
	return &repository{rdb: rdb}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (r *repository) GetItems(ctx context.Context, userID uint) ([]Item, error) {
	data, err := r.rdb.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (r *repository) SaveItems(ctx context.Context, userID uint, items []Item) error {
	if len(items) == 0 {
		return r.Clear(ctx, userID)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, cartKey(userID), data, 0).Err()
}

func (r *repository) Clear(ctx context.Context, userID uint) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
