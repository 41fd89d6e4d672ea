package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/infra/config"
)

const (
	connectAttempts = 3
	pingTimeout     = 2 * time.Second
)

// Client owns the go-redis pool shared by the revocation, snapshot and rate-limit repositories.
type Client struct {
	rdb       *redis.Client
	addr      string
	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// Options translates settings into go-redis options.
func Options(cfg config.RedisSettings) *redis.Options {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	opts := &redis.Options{
		Addr:       addr,
		ClientName: "board-api",
		Password:   cfg.Password,
		DB:         cfg.DB,

		PoolSize:        10,
		MinIdleConns:    2,
		MaxRetries:      3,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.Host,
		}
	}
	return opts
}

// NewClient opens the pool and retries the first ping a few times so the API can
// start alongside a Redis container that is still booting.
func NewClient(ctx context.Context, cfg config.RedisSettings, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := Options(cfg)
	c := &Client{
		rdb:    redis.NewClient(opts),
		addr:   opts.Addr,
		logger: logger,
	}

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = c.HealthCheck(ctx); err == nil {
			break
		}
		logger.Warn("redis not reachable yet",
			zap.String("addr", c.addr),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = connectAttempts
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	if err != nil {
		_ = c.rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", c.addr, err)
	}

	logger.Info("redis connection established",
		zap.String("addr", c.addr),
		zap.Int("db", cfg.DB),
		zap.Bool("tls_enabled", cfg.TLSEnabled),
	)
	return c, nil
}

// Client exposes the pool to repositories.
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// HealthCheck pings Redis with a short deadline; the readiness endpoint calls it on every request.
func (c *Client) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the pool. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		stats := c.rdb.PoolStats()
		c.logger.Info("closing redis connection",
			zap.String("addr", c.addr),
			zap.Uint32("total_conns", stats.TotalConns),
			zap.Uint32("timeouts", stats.Timeouts),
		)
		if err := c.rdb.Close(); err != nil {
			c.closeErr = fmt.Errorf("close redis client: %w", err)
		}
	})
	return c.closeErr
}
