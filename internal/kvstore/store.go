// Package kvstore provides durable key-value storage with write timestamps.
package kvstore

import (
	"context"
	"fmt"
	"time"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Record is a stored value together with the time it was written.
type Record struct {
	Value     []byte
	WrittenAt time.Time
}

// Store is a durable key-value mechanism. Consumers should depend on this
// interface rather than a concrete driver so tests can swap in Memory.
type Store interface {
	// Get returns the record for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (rec Record, ok bool, err error)
	// Stat returns only the write timestamp for key, without reading the value.
	Stat(ctx context.Context, key string) (writtenAt time.Time, ok bool, err error)
	// Put writes all records atomically: either every key is written or none is.
	Put(ctx context.Context, records map[string]Record) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Close releases the underlying resources.
	Close() error
}

// Options selects and configures a driver.
type Options struct {
	Driver        string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the Store for opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return OpenSQLite(opts.SQLitePath)
	case DriverRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kvstore: unknown driver %q", opts.Driver)
	}
}
