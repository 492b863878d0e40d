package database

import (
	"context"
	"fmt"
	"time"

	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// RetryPolicy bounds connection acquisition. Backoff doubles after each failed attempt.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// ConnectFunc acquires a client; ConnectMongo satisfies it once bound to a URI.
type ConnectFunc func(ctx context.Context) (*mongo.Client, error)

// ConnectWithRetry calls connect until it succeeds, the policy is exhausted or ctx is done.
func ConnectWithRetry(ctx context.Context, policy RetryPolicy, connect ConnectFunc) (*mongo.Client, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := policy.Backoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := connect(ctx)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mongo connect aborted: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", attempts, lastErr)
}

// Connect is the retrying entry point used by the binaries.
func Connect(ctx context.Context, uri string, timeout time.Duration, policy RetryPolicy) (*mongo.Client, error) {
	return ConnectWithRetry(ctx, policy, func(ctx context.Context) (*mongo.Client, error) {
		return ConnectMongo(ctx, uri, timeout)
	})
}
