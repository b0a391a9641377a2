package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps one JSON-serialized cart per session key. Sessions are
// single-user, so load-mutate-save without a cross-process lock matches the
// consistency the live cart needs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

const cartKeyPrefix = "cart:"

func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) SetBusiness(ctx context.Context, sessionID, businessID, businessName string) error {
	return s.update(ctx, sessionID, func(c *Cart) {
		c.BusinessID = businessID
		c.BusinessName = businessName
	})
}

func (s *RedisStore) AddItem(ctx context.Context, sessionID string, item LineItem) error {
	return s.update(ctx, sessionID, func(c *Cart) { c.Add(item) })
}

func (s *RedisStore) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	return s.update(ctx, sessionID, func(c *Cart) { c.SetQuantity(productID, quantity) })
}

func (s *RedisStore) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	return s.update(ctx, sessionID, func(c *Cart) { c.Remove(productID) })
}

func (s *RedisStore) ClearCategory(ctx context.Context, sessionID, category string) error {
	return s.update(ctx, sessionID, func(c *Cart) { c.ClearCategory(category) })
}

func (s *RedisStore) ClearRequirement(ctx context.Context, sessionID, requirement, category string) error {
	return s.update(ctx, sessionID, func(c *Cart) { c.ClearRequirement(requirement, category) })
}

func (s *RedisStore) update(ctx context.Context, sessionID string, mutate func(*Cart)) error {
	c, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return err
	}

	mutate(c)

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
