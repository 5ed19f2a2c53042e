// Package metadata caches immutable ERC-20 token metadata.
package metadata

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

// defaultFetchTimeout bounds a shared fetch, which outlives the caller that started it.
const defaultFetchTimeout = 30 * time.Second

type fetcher interface {
	TokenMetadata(ctx context.Context, token domain.Token) (domain.TokenMetadata, error)
}

// Cache resolves token metadata lazily, fetching each address at most once.
// Entries are never invalidated; failed fetches are not cached.
type Cache struct {
	fetcher      fetcher
	logger       *zap.Logger
	fetchTimeout time.Duration

	mu    sync.RWMutex
	data  map[common.Address]domain.TokenMetadata
	group singleflight.Group
}

// NewCache creates an empty cache backed by fetcher.
func NewCache(fetcher fetcher, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		fetcher:      fetcher,
		logger:       logger,
		fetchTimeout: defaultFetchTimeout,
		data:         make(map[common.Address]domain.TokenMetadata),
	}
}

// Resolve returns cached metadata or fetches it on first use.
// Concurrent first requests for the same address share one fetch. The shared
// fetch is not tied to any single caller: a caller whose ctx ends stops waiting
// while the others keep theirs.
func (c *Cache) Resolve(ctx context.Context, token domain.Token) (domain.TokenMetadata, error) {
	if meta, ok := c.Cached(token); ok {
		return meta, nil
	}

	key := token.Address.Hex()
	ch := c.group.DoChan(key, func() (any, error) {
		// a previous flight may have finished between the read above and DoChan
		if meta, ok := c.Cached(token); ok {
			return meta, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		meta, err := c.fetcher.TokenMetadata(fetchCtx, token)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.data[token.Address] = meta
		c.mu.Unlock()

		c.logger.Debug("token metadata cached",
			zap.String("token", key),
			zap.String("symbol", meta.Symbol),
			zap.Uint8("decimals", meta.Decimals))
		return meta, nil
	})

	select {
	case <-ctx.Done():
		return domain.TokenMetadata{}, &domain.ResolutionError{Identifier: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			var resErr *domain.ResolutionError
			if errors.As(res.Err, &resErr) {
				return domain.TokenMetadata{}, res.Err
			}
			return domain.TokenMetadata{}, &domain.ResolutionError{Identifier: key, Err: res.Err}
		}
		if res.Shared {
			c.logger.Debug("token metadata fetch shared", zap.String("token", key))
		}
		return res.Val.(domain.TokenMetadata), nil
	}
}

// Symbol returns the token symbol.
func (c *Cache) Symbol(ctx context.Context, token domain.Token) (string, error) {
	meta, err := c.Resolve(ctx, token)
	return meta.Symbol, err
}

// Name returns the token name.
func (c *Cache) Name(ctx context.Context, token domain.Token) (string, error) {
	meta, err := c.Resolve(ctx, token)
	return meta.Name, err
}

// Decimals returns the token decimal precision.
func (c *Cache) Decimals(ctx context.Context, token domain.Token) (uint8, error) {
	meta, err := c.Resolve(ctx, token)
	return meta.Decimals, err
}

// Cached returns metadata without fetching.
func (c *Cache) Cached(token domain.Token) (domain.TokenMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.data[token.Address]
	return meta, ok
}

// Preload seeds metadata known up front. Existing entries are kept.
func (c *Cache) Preload(token domain.Token, meta domain.TokenMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[token.Address]; !ok {
		c.data[token.Address] = meta
	}
}

// Len returns the number of cached tokens.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
