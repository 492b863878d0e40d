package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	want := &mongo.Client{}
	got, err := ConnectWithRetry(context.Background(), RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, func(ctx context.Context) (*mongo.Client, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return want, nil
	})
	require.NoError(t, err)
	require.Same(t, want, got)
	require.Equal(t, 3, calls)
}

func TestConnectWithRetry_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("connection refused")
	_, err := ConnectWithRetry(context.Background(), RetryPolicy{Attempts: 2, Backoff: time.Millisecond}, func(ctx context.Context) (*mongo.Client, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestConnectWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := ConnectWithRetry(ctx, RetryPolicy{Attempts: 5, Backoff: time.Hour}, func(ctx context.Context) (*mongo.Client, error) {
		calls++
		cancel()
		return nil, errors.New("connection refused")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
