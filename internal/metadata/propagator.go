package metadata

import (
	"context"

	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
)

// Propagator stores the internal user id on the identity provider's user record.
type Propagator interface {
	PropagateUserID(ctx context.Context, externalID, internalID string) error
}

// LogPropagator only logs. Used when no provider API key is configured.
type LogPropagator struct{}

func (LogPropagator) PropagateUserID(ctx context.Context, externalID, internalID string) error {
	logger.With(logger.Fields{"external_id": externalID, "user_id": internalID}).
		Debugf("metadata write-back skipped: provider API key not configured")
	return nil
}

// NewPropagator returns the Clerk propagator when a secret key is configured and
// a LogPropagator otherwise.
func NewPropagator(secretKey, apiURL string) (Propagator, error) {
	if secretKey == "" {
		return LogPropagator{}, nil
	}
	return NewClerkPropagator(secretKey, apiURL)
}
