package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldValue     = "value"
	fieldWrittenAt = "written_at"
)

// Redis is a Store that keeps each key as a hash of value and written_at.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("kvstore: ping redis: %w", err)
	}
	return NewRedis(rdb, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (Record, bool, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Record{}, false, nil
	}
	writtenAt, err := parseNanos(fields[fieldWrittenAt])
	if err != nil {
		return Record{}, false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return Record{Value: []byte(fields[fieldValue]), WrittenAt: writtenAt}, true, nil
}

// Stat implements Store.
func (r *Redis) Stat(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := r.rdb.HGet(ctx, r.key(key), fieldWrittenAt).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("kvstore: stat %s: %w", key, err)
	}
	writtenAt, err := parseNanos(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("kvstore: stat %s: %w", key, err)
	}
	return writtenAt, true, nil
}

// Put writes every record in a MULTI/EXEC transaction.
func (r *Redis) Put(ctx context.Context, records map[string]Record) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, rec := range records {
			pipe.Del(ctx, r.key(key))
			pipe.HSet(ctx, r.key(key),
				fieldValue, rec.Value,
				fieldWrittenAt, strconv.FormatInt(rec.WrittenAt.UnixNano(), 10),
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("kvstore: put: %w", err)
	}
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	if err := r.rdb.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("kvstore: delete: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func parseNanos(raw string) (time.Time, error) {
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse written_at %q: %w", raw, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

var _ Store = (*Redis)(nil)
