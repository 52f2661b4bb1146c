package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how stale any entry can get.
const DefaultTTL = time.Hour

// Redis is the cache-aside backend. Values are JSON documents; message
// histories are Redis lists of JSON documents so a send can append without
// a read-modify-write.
//
// Every write sets the TTL. Nothing here is authoritative: callers fall
// back to the store on any error.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Connect parses a redis:// URL, builds a client and pings it.
func Connect(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis connection established",
		zap.String("addr", opts.Addr),
		zap.Duration("ttl", ttl),
	)
	return New(client, ttl, logger), nil
}

func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Client exposes the underlying client so the redis broker can share the
// connection pool.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Health pings Redis.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	r.logger.Info("closing redis client")
	return r.client.Close()
}

// GetJSON decodes the entry at key into dest. found is false on a miss.
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value at key with the cache TTL.
func (r *Redis) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete %v: %w", keys, err)
	}
	return nil
}

// GetList returns the raw JSON items of the list at key. An empty result
// is a miss: Redis has no empty lists.
func (r *Redis) GetList(ctx context.Context, key string) ([][]byte, bool, error) {
	items, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lrange %s: %w", key, err)
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = []byte(item)
	}
	return out, true, nil
}

// ListVersion returns the write counter kept at versionKey, 0 if none.
// Every AppendList and DropList on the list bumps it.
func (r *Redis) ListVersion(ctx context.Context, versionKey string) (int64, error) {
	v, err := r.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s: %w", versionKey, err)
	}
	return v, nil
}

// FillList overwrites the list at key with values and sets the TTL, but
// only if versionKey still holds version. A reader takes the version before
// loading from the store; any append or drop landing in between moves it,
// and the fill is skipped so the next read loads again. filled reports
// whether the list was written. An empty values slice just deletes the key.
func (r *Redis) FillList(ctx context.Context, key, versionKey string, version int64, values []any) (bool, error) {
	items := make([]any, 0, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return false, fmt.Errorf("encode %s item: %w", key, err)
		}
		items = append(items, raw)
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errListMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(items) > 0 {
				pipe.RPush(ctx, key, items...)
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errListMoved), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("fill list %s: %w", key, err)
	}
}

var errListMoved = errors.New("list version moved")

// AppendList pushes value onto the list at key only if the list exists
// (RPUSHX). Appending to a missing entry would create a list holding just
// the new item, which later reads would take for the whole history.
// The version bump goes out in the same transaction, so a fill that loaded
// before this append can never land after it. appended reports whether the
// entry was present.
func (r *Redis) AppendList(ctx context.Context, key, versionKey string, value any) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode %s item: %w", key, err)
	}

	var pushed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, r.ttl)
		pushed = pipe.RPushX(ctx, key, raw)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rpushx %s: %w", key, err)
	}
	return pushed.Val() > 0, nil
}

// DropList deletes the list at key and bumps its version, so an in-flight
// fill holding older data is skipped.
func (r *Redis) DropList(ctx context.Context, key, versionKey string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("drop list %s: %w", key, err)
	}
	return nil
}
