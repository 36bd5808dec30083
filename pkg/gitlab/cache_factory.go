package gitlab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// CacheType selects the response cache backend.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	// CacheTypeNATS shares cached responses between processes through a
	// JetStream key-value bucket.
	CacheTypeNATS CacheType = "nats"
	// CacheTypeTiered puts a process-local memory cache in front of NATS.
	// A write from another process clears the NATS bucket but not this
	// process's memory tier, so a tiered cache can serve a stale response
	// for up to the configured TTL.
	CacheTypeTiered CacheType = "tiered"
	CacheTypeNone   CacheType = "none"
)

var (
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
)

// CacheConfig configures the response cache.
type CacheConfig struct {
	Type CacheType

	// MaxSize bounds the number of memory cache entries.
	MaxSize int

	// NATS is required for the nats and tiered types.
	NATS *NATSKVConfig

	// TTL is the lifetime of cached responses.
	TTL time.Duration
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		MaxSize: constants.DefaultCacheSize,
		TTL:     constants.DefaultCacheTTL,
	}
}

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return newMemoryCacheFromConfig(config), nil
	case CacheTypeNATS:
		shared, err := newNATSCacheFromConfig(config)
		if err != nil {
			return nil, err
		}

		return shared, nil
	case CacheTypeTiered:
		shared, err := newNATSCacheFromConfig(config)
		if err != nil {
			return nil, err
		}

		return NewCacheChain(newMemoryCacheFromConfig(config), shared), nil
	case CacheTypeNone:
		return NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

func newMemoryCacheFromConfig(config *CacheConfig) *MemoryCache {
	if config.MaxSize <= 0 {
		return NewMemoryCache(constants.DefaultCacheSize)
	}

	return NewMemoryCache(config.MaxSize)
}

func newNATSCacheFromConfig(config *CacheConfig) (*NATSKVCache, error) {
	if config.NATS == nil {
		return nil, ErrNATSConfigRequired
	}

	natsConfig := *config.NATS
	if natsConfig.TTL == 0 {
		natsConfig.TTL = config.TTL
	}

	return NewNATSKVCache(&natsConfig)
}

// CacheChain consults caches in order. A hit in a later cache is copied
// into the earlier ones; writes and invalidations reach every cache.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain returns a chain over caches, fastest first.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for depth, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.caches[:depth] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

// Close releases every cache in the chain that holds a connection.
func (c *CacheChain) Close() {
	for _, cache := range c.caches {
		if closer, ok := cache.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}

func (c *CacheChain) each(apply func(Cache) error) error {
	errs := make([]error, 0, len(c.caches))
	for _, cache := range c.caches {
		errs = append(errs, apply(cache))
	}

	return errors.Join(errs...)
}
