package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection for session, rate-limiting and
// capability-cache operations.
type Client struct {
	rdb *goredis.Client
}

// NewClient creates a Redis client from a URL and verifies the connection.
func NewClient(redisURL string) (*Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// NewClientFromRedis wraps an existing go-redis client. Used by tests.
func NewClientFromRedis(rdb *goredis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

const (
	refreshTokenPrefix = "refresh:"
	serverVersionKey   = "ver:server:"
	capCachePrefix     = "caps:"
	capCacheTTL        = 5 * time.Minute
)

// StoreRefreshToken stores a refresh token mapped to a user ID with an expiry.
func (c *Client) StoreRefreshToken(ctx context.Context, token string, userID int64, expiry time.Duration) error {
	return c.rdb.Set(ctx, refreshTokenPrefix+token, userID, expiry).Err()
}

// GetRefreshTokenUserID returns the user ID associated with a refresh token.
func (c *Client) GetRefreshTokenUserID(ctx context.Context, token string) (int64, error) {
	val, err := c.rdb.Get(ctx, refreshTokenPrefix+token).Result()
	if err == goredis.Nil {
		return 0, fmt.Errorf("refresh token not found")
	}
	if err != nil {
		return 0, fmt.Errorf("getting refresh token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing user ID: %w", err)
	}
	return userID, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (c *Client) DeleteRefreshToken(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, refreshTokenPrefix+token).Err()
}

// rateLimitScript atomically increments a counter, sets its TTL on first use
// and returns both the count and the remaining window in milliseconds.
var rateLimitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// CheckRateLimit runs a fixed-window counter for the key. It returns whether
// the request is allowed, the current count and the window's remaining TTL
// in milliseconds.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, int64, error) {
	res, err := rateLimitScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("checking rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit script result")
	}
	count, ttlMs := res[0], res[1]
	return count <= int64(limit), count, ttlMs, nil
}

// ServerVersion returns the permission version counter for a server. The
// counter starts at 0 and is bumped whenever roles, memberships or channel
// overrides change, which implicitly drops all cached capability masks for
// the server.
func (c *Client) ServerVersion(ctx context.Context, serverID int64) (int64, error) {
	val, err := c.rdb.Get(ctx, serverVersionKey+strconv.FormatInt(serverID, 10)).Result()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting server version: %w", err)
	}
	version, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing server version: %w", err)
	}
	return version, nil
}

// BumpServerVersion increments a server's permission version counter.
func (c *Client) BumpServerVersion(ctx context.Context, serverID int64) error {
	return c.rdb.Incr(ctx, serverVersionKey+strconv.FormatInt(serverID, 10)).Err()
}

func capCacheKey(serverID, version, userID, channelID int64) string {
	return fmt.Sprintf("%s%d:%d:%d:%d", capCachePrefix, serverID, version, userID, channelID)
}

// GetCachedCapabilities returns a memoized capability mask for a user in a
// channel (channelID 0 means the server-wide base mask). The second return
// value reports whether a cached value was present.
func (c *Client) GetCachedCapabilities(ctx context.Context, serverID, version, userID, channelID int64) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, capCacheKey(serverID, version, userID, channelID)).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("getting cached capabilities: %w", err)
	}
	mask, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing cached capabilities: %w", err)
	}
	return mask, true, nil
}

// SetCachedCapabilities memoizes a capability mask. Entries expire on their
// own; version bumps make stale entries unreachable before that.
func (c *Client) SetCachedCapabilities(ctx context.Context, serverID, version, userID, channelID, mask int64) error {
	return c.rdb.Set(ctx, capCacheKey(serverID, version, userID, channelID), mask, capCacheTTL).Err()
}
