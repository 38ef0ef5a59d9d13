package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"payment-service/internal/gateway"
	"payment-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Gateway rows are static reference data, so a long TTL is safe; it exists
// only so a redeploy that reseeds the table eventually propagates.
const gatewayCacheTTL = time.Hour

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetGatewayID reads a cached gateway ID. The second return reports a hit.
func (c *Client) GetGatewayID(ctx context.Context, name string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, gatewayKey(name)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt gateway cache entry for %s: %w", name, err)
	}
	return id, true, nil
}

// SetGatewayID caches a gateway ID with TTL.
func (c *Client) SetGatewayID(ctx context.Context, name string, id int64) error {
	return c.rdb.Set(ctx, gatewayKey(name), strconv.FormatInt(id, 10), gatewayCacheTTL).Err()
}

func gatewayKey(name string) string {
	return fmt.Sprintf("gateway:%s", name)
}

// CachedDirectory fronts a gateway directory lookup with the redis cache so
// webhook handling does not hit Postgres for a row that never changes.
// Cache failures degrade to the underlying lookup.
type CachedDirectory struct {
	next   gateway.Directory
	cache  *Client
	logger *zap.Logger
}

// NewCachedDirectory wraps next with the redis cache.
func NewCachedDirectory(next gateway.Directory, cache *Client) *CachedDirectory {
	return &CachedDirectory{
		next:   next,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// GatewayIDByName resolves a gateway name, consulting the cache first.
func (d *CachedDirectory) GatewayIDByName(ctx context.Context, name string) (int64, error) {
	id, hit, err := d.cache.GetGatewayID(ctx, name)
	if err != nil {
		d.logger.Warn("Gateway cache read failed", zap.String("gateway", name), zap.Error(err))
	} else if hit {
		return id, nil
	}

	id, err = d.next.GatewayIDByName(ctx, name)
	if err != nil {
		return 0, err
	}

	if err := d.cache.SetGatewayID(ctx, name, id); err != nil {
		d.logger.Warn("Gateway cache write failed", zap.String("gateway", name), zap.Error(err))
	}
	return id, nil
}
