package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/redis/go-redis/v9"
	"time"
)

// OrderCache keeps read-through copies of orders. Orders are never updated
// after creation, so entries only expire.
type OrderCache struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = TTLOrder
	}
	return &OrderCache{RDB: rdb, TTL: ttl}
}

func OrderKey(id int64) string { return fmt.Sprintf(KeyOrder, id) }

// Get reports ok=false on a miss.
func (c *OrderCache) Get(ctx context.Context, id int64) (shop.Order, bool, error) {
	b, err := c.RDB.Get(ctx, OrderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return shop.Order{}, false, nil
	}
	if err != nil {
		return shop.Order{}, false, err
	}
	o, err := DecodeOrder(b)
	if err != nil {
		return shop.Order{}, false, err
	}
	return o, true, nil
}

func (c *OrderCache) Set(ctx context.Context, o shop.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, OrderKey(o.ID), b, c.TTL).Err()
}

func DecodeOrder(b []byte) (shop.Order, error) {
	var o shop.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return shop.Order{}, fmt.Errorf("decode cached order: %w", err)
	}
	return o, nil
}
