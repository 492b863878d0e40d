package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// ClerkPropagator writes {"userId": <internal id>} into the user's public metadata
// through the Clerk Backend API.
type ClerkPropagator struct {
	client *user.Client
}

// NewClerkPropagator builds a propagator for the given secret key. apiURL may be
// empty to use the SDK default.
func NewClerkPropagator(secretKey, apiURL string) (*ClerkPropagator, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("clerk secret key is empty")
	}
	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String(secretKey)
	cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	if apiURL != "" {
		cfg.URL = clerk.String(apiURL)
	}
	return &ClerkPropagator{client: user.NewClient(cfg)}, nil
}

func (p *ClerkPropagator) PropagateUserID(ctx context.Context, externalID, internalID string) error {
	raw, err := json.Marshal(map[string]string{"userId": internalID})
	if err != nil {
		return err
	}
	meta := json.RawMessage(raw)
	if _, err := p.client.UpdateMetadata(ctx, externalID, &user.UpdateMetadataParams{PublicMetadata: &meta}); err != nil {
		return fmt.Errorf("update clerk metadata for %s: %w", externalID, err)
	}
	return nil
}
