package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	appName        = "farmfresh-connect"
	defaultTimeout = 10 * time.Second
	pingAttempts   = 3
	initialBackoff = 200 * time.Millisecond
)

// Config holds the account store connection settings.
type Config struct {
	URI      string
	Database string
	// Timeout bounds each connectivity check. Defaults to 10s.
	Timeout time.Duration
}

// Connect opens a client and returns the configured database once a ping
// succeeds. Pings are retried with doubling backoff (200ms, 400ms) so a
// database that is still starting does not fail the boot.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < pingAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("mongo ping: %w", ctx.Err())
			case <-time.After(initialBackoff << uint(attempt-1)):
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = client.Ping(pingCtx, nil)
		cancel()
		if lastErr == nil {
			return client.Database(cfg.Database), nil
		}
	}

	_ = client.Disconnect(context.Background())
	return nil, fmt.Errorf("mongo ping after %d attempts: %w", pingAttempts, lastErr)
}

// OpenAccounts connects and prepares the account collection, returning the
// repository and its database. The caller disconnects db.Client().
func OpenAccounts(ctx context.Context, cfg Config) (*AccountRepository, *mongo.Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	repo := NewAccountRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, nil, fmt.Errorf("account indexes: %w", err)
	}
	return repo, db, nil
}
