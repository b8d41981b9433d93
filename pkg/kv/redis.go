package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/perfumichi/storefront/pkg/logger"
	"github.com/perfumichi/storefront/pkg/redis"
)

const changeChannel = "kv:changes"

// Redis adapts the shared redis client to the Store and Watcher interfaces.
// Each write publishes a change event tagged with the writer's origin so a
// subscriber can skip notifications for its own writes.
type Redis struct {
	client *redis.Client
	origin string
	logg   *logger.Logger
}

// NewRedis wires a Store over an established redis client. origin identifies
// this process instance in the change feed.
func NewRedis(client *redis.Client, origin string, logg *logger.Logger) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if origin == "" {
		return nil, errors.New("origin is required")
	}
	return &Redis{client: client, origin: origin, logg: logg}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	r.publishChange(ctx, key)
	return nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if err := r.client.Del(ctx, keys...); err != nil {
		return err
	}
	for _, key := range keys {
		r.publishChange(ctx, key)
	}
	return nil
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl)
}

// Watch subscribes to the change feed and invokes fn for every key changed by
// a different origin. It blocks until ctx is done or the subscription fails.
func (r *Redis) Watch(ctx context.Context, fn func(key string)) error {
	sub, err := r.client.Subscribe(ctx, changeChannel)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("kv: change subscription closed")
			}
			origin, key, found := strings.Cut(msg.Payload, "|")
			if !found || origin == r.origin {
				continue
			}
			fn(key)
		}
	}
}

func (r *Redis) publishChange(ctx context.Context, key string) {
	payload := fmt.Sprintf("%s|%s", r.origin, key)
	if err := r.client.Publish(ctx, changeChannel, payload); err != nil && r.logg != nil {
		ctx = r.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()})
		r.logg.Warn(ctx, "publishing kv change event failed")
	}
}
