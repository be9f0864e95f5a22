// Package store persists the single saved selector through a pluggable
// key/value backend.
package store

import (
	"context"
	"fmt"

	"github.com/use-agent/vidopen/config"
)

// SelectorKey is the fixed key the selector is stored under.
const SelectorKey = "savedVideoXPath"

// KV is the durable key/value capability the selector store is built on.
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error

	Close() error
}

// SelectorStore exposes get/set/clear of the one saved XPath. There is a
// single global value, not one per page or site. Values are never validated
// here; syntax errors surface at resolution time.
type SelectorStore struct {
	kv KV
}

// NewSelectorStore wraps kv.
func NewSelectorStore(kv KV) *SelectorStore {
	return &SelectorStore{kv: kv}
}

// Get returns the saved selector. ok is false when the selector is unset,
// which includes an explicitly stored empty string.
func (s *SelectorStore) Get(ctx context.Context) (xpath string, ok bool, err error) {
	v, found, err := s.kv.Get(ctx, SelectorKey)
	if err != nil {
		return "", false, fmt.Errorf("store: get selector: %w", err)
	}
	if !found || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set persists xpath, overwriting any prior value. Setting "" unsets it.
func (s *SelectorStore) Set(ctx context.Context, xpath string) error {
	if err := s.kv.Set(ctx, SelectorKey, xpath); err != nil {
		return fmt.Errorf("store: set selector: %w", err)
	}
	return nil
}

// Clear is Set("").
func (s *SelectorStore) Clear(ctx context.Context) error {
	return s.Set(ctx, "")
}

// Close releases the underlying backend.
func (s *SelectorStore) Close() error {
	return s.kv.Close()
}

// Open builds the backend selected by cfg.Backend.
func Open(cfg config.StoreConfig) (KV, error) {
	switch cfg.Backend {
	case "", "sqlite":
		kv, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "redis":
		kv, err := OpenRedis(RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
