package connections

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Client holds the database connection pool.
type Client struct {
	Pool *pgxpool.Pool
}

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(databaseURL string, logger *slog.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return &Client{Pool: pool}, nil
}

// Close gracefully closes the database connection pool.
func (c *Client) Close() {
	c.Pool.Close()
}

// Ping verifies the connection to the database is still alive.
func (c *Client) Ping() error {
	return c.Pool.Ping(context.Background())
}

// ConnectRedis creates a Redis client and verifies the connection.
func ConnectRedis(addr, password string, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Redis connection established", "addr", addr)
	return rdb, nil
}
