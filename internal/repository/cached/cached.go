// Package cached decorates the repository interfaces with cache-aside
// reads over Redis.
//
// Rules every method here follows:
//   - The store is the authority. A cache value is only ever derived from a
//     store read or a store write that already succeeded.
//   - A cache failure is logged and otherwise ignored: reads fall through
//     to the store, writes still report success.
//   - No lock is held across any I/O. Concurrent user writers race on the
//     cache with last-writer-wins; the TTL bounds how long a lost race can
//     show. Conversation lists are versioned instead, so a fill never
//     overwrites a send that landed after its store read.
package cached

import (
	"context"
)

// Cache is what the decorators need from the cache backend. *cache.Redis
// satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	GetList(ctx context.Context, key string) ([][]byte, bool, error)
	ListVersion(ctx context.Context, versionKey string) (int64, error)
	FillList(ctx context.Context, key, versionKey string, version int64, values []any) (bool, error)
	AppendList(ctx context.Context, key, versionKey string, value any) (bool, error)
	DropList(ctx context.Context, key, versionKey string) error
}
