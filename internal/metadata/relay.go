package metadata

import (
	"context"
	"time"

	"github.com/imaginify/imaginify/backend/go-services/internal/models"
	"github.com/imaginify/imaginify/backend/go-services/internal/users"
	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
	"github.com/imaginify/imaginify/backend/go-services/pkg/metrics"
)

const (
	defaultBatchSize = 25
	defaultInterval  = 5 * time.Second
	defaultLease     = time.Minute
	maxRetryDelay    = 300 * time.Second
)

// Relay delivers pending metadata write-backs. Each user is claimed with a lease
// so concurrent relays do not send the same user inside one lease window.
// Delivery is at least once.
type Relay struct {
	outbox     users.MetadataOutbox
	propagator Propagator
	batchSize  int
	interval   time.Duration
	lease      time.Duration
	now        func() time.Time
}

type Options struct {
	BatchSize int
	Interval  time.Duration
	Lease     time.Duration
}

func NewRelay(outbox users.MetadataOutbox, p Propagator, opts Options) *Relay {
	r := &Relay{
		outbox:     outbox,
		propagator: p,
		batchSize:  opts.BatchSize,
		interval:   opts.Interval,
		lease:      opts.Lease,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.interval <= 0 {
		r.interval = defaultInterval
	}
	if r.lease <= 0 {
		r.lease = defaultLease
	}
	return r
}

// Run polls the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.FlushOnce(ctx); err != nil {
				logger.Errorf("metadata relay flush error: %v", err)
			}
		}
	}
}

// FlushOnce claims one batch and delivers it. It returns the number of users
// synced in this pass.
func (r *Relay) FlushOnce(ctx context.Context) (int, error) {
	pending, err := r.outbox.ClaimPendingMetadata(ctx, r.now(), r.lease, r.batchSize)
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, u := range pending {
		if err := r.Deliver(ctx, u); err == nil {
			synced++
		}
	}
	return synced, nil
}

// Deliver pushes the internal id of u to the provider and records the outcome.
// A failure schedules the next attempt; the user record itself is never removed.
func (r *Relay) Deliver(ctx context.Context, u models.User) error {
	log := logger.With(logger.Fields{"external_id": u.ExternalID, "attempt": u.MetadataAttempts + 1})

	if err := r.propagator.PropagateUserID(ctx, u.ExternalID, u.ID.Hex()); err != nil {
		metrics.MetadataWriteBacks.WithLabelValues("failed").Inc()
		retryAt := r.now().Add(retryDelay(u.MetadataAttempts + 1))
		if markErr := r.outbox.MarkMetadataFailed(ctx, u.ExternalID, retryAt, err.Error()); markErr != nil {
			log.Errorf("failed to record metadata write-back failure: %v", markErr)
		}
		log.Warnf("metadata write-back failed, retry at %s: %v", retryAt.Format(time.RFC3339), err)
		return err
	}

	metrics.MetadataWriteBacks.WithLabelValues("synced").Inc()
	if err := r.outbox.MarkMetadataSynced(ctx, u.ExternalID, r.now()); err != nil {
		log.Errorf("failed to mark metadata synced: %v", err)
	}
	log.Debugf("metadata write-back delivered")
	return nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return time.Second
	}
	if attempt > 8 {
		attempt = 8
	}
	d := time.Duration(1<<attempt) * time.Second
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
