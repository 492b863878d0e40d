package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/imaginify/imaginify/backend/go-services/internal/models"
	"github.com/imaginify/imaginify/backend/go-services/internal/users"
	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
)

// inlineGrace keeps the background relay away from a freshly created user while
// the dispatcher performs the inline write-back.
const inlineGrace = time.Minute

// WriteBack delivers the internal id of a new user to the identity provider and
// records the outcome on the user.
type WriteBack interface {
	Deliver(ctx context.Context, u models.User) error
}

// Response is the JSON body returned for every delivery.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`

	// EventType is empty when the request failed before the envelope was decoded.
	EventType EventType `json:"-"`
}

// Dispatcher verifies a delivery and applies it to the user store.
// It keeps no state between requests.
type Dispatcher struct {
	verifier    *Verifier
	verifierErr error
	users       *users.Service
	writeBack   WriteBack
	now         func() time.Time
}

// NewDispatcher never fails: a missing or malformed secret is reported on every
// Handle call as a configuration error.
func NewDispatcher(secret string, svc *users.Service, wb WriteBack) *Dispatcher {
	d := &Dispatcher{users: svc, writeBack: wb, now: func() time.Time { return time.Now().UTC() }}
	d.verifier, d.verifierErr = NewVerifier(secret)
	return d
}

// Handle processes one delivery. The returned Response is never nil; the error
// classifies failures for HTTPStatus.
func (d *Dispatcher) Handle(ctx context.Context, h Headers, body []byte) (*Response, error) {
	resp, err := d.handle(ctx, h, body)
	if err != nil {
		msg := "Internal server error"
		var we *Error
		if errors.As(err, &we) {
			msg = we.Message
		}
		if resp == nil {
			resp = &Response{}
		}
		resp.Success = false
		resp.Message = msg
		resp.User = nil
	}
	return resp, err
}

func (d *Dispatcher) handle(ctx context.Context, h Headers, body []byte) (*Response, error) {
	if d.verifierErr != nil {
		return nil, configError("Webhook secret is not configured", d.verifierErr)
	}
	if len(h.Missing()) > 0 {
		return nil, badRequest("Error occurred -- no svix headers", nil)
	}

	log := logger.With(logger.Fields{"svix_id": h.ID})
	evt, err := d.verifier.Verify(body, h)
	if err != nil {
		var ve *VerificationError
		if errors.As(err, &ve) {
			log.Warnf("error verifying webhook: %v", err)
			return nil, badRequest("Error verifying webhook", err)
		}
		log.Warnf("invalid webhook payload: %v", err)
		return nil, badRequest("Invalid webhook payload", err)
	}

	resp := &Response{EventType: evt.Type}
	log = log.With(logger.Fields{"event_type": evt.Type})

	switch evt.Type {
	case EventUserCreated, EventUserUpdated, EventUserDeleted:
	default:
		log.Debugf("ignoring unhandled event type")
		resp.Success = true
		resp.Message = "Webhook processed successfully"
		return resp, nil
	}

	var data UserData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return resp, badRequest("Invalid webhook payload", err)
	}
	if data.ID == "" {
		return resp, badRequest("No user ID provided", nil)
	}
	log = log.With(logger.Fields{"external_id": data.ID})

	var u *models.User
	switch evt.Type {
	case EventUserCreated:
		u, err = d.createUser(ctx, log, data)
		resp.Message = "User created successfully"
	case EventUserUpdated:
		u, err = d.updateUser(ctx, log, data)
		resp.Message = "User updated successfully"
	case EventUserDeleted:
		u, err = d.deleteUser(ctx, log, data)
		resp.Message = "User deleted successfully"
	}
	if err != nil {
		return resp, err
	}
	resp.Success = true
	resp.User = u
	return resp, nil
}

func (d *Dispatcher) createUser(ctx context.Context, log *logger.Entry, data UserData) (*models.User, error) {
	u, err := MapCreate(data)
	if err != nil {
		return nil, err
	}
	if d.writeBack != nil {
		u.MetadataRetryAt = d.now().Add(inlineGrace)
	}
	created, err := d.users.CreateUser(ctx, u)
	if err != nil || created == nil {
		log.Errorf("error creating user: %v", err)
		return nil, upstreamError("Error creating user", err)
	}

	// The create is not rolled back when the write-back fails: the user stays
	// pending and the relay retries later.
	if d.writeBack != nil {
		if err := d.writeBack.Deliver(ctx, *created); err != nil {
			log.Warnf("metadata write-back deferred to relay: %v", err)
		}
	}
	return created, nil
}

func (d *Dispatcher) updateUser(ctx context.Context, log *logger.Entry, data UserData) (*models.User, error) {
	updated, err := d.users.UpdateUser(ctx, data.ID, MapUpdate(data))
	if err != nil || updated == nil {
		log.Errorf("error updating user: %v", err)
		return nil, upstreamError("Error updating user", err)
	}
	return updated, nil
}

func (d *Dispatcher) deleteUser(ctx context.Context, log *logger.Entry, data UserData) (*models.User, error) {
	deleted, err := d.users.DeleteUser(ctx, data.ID)
	if err != nil || deleted == nil {
		log.Errorf("error deleting user: %v", err)
		return nil, upstreamError("Error deleting user", err)
	}
	return deleted, nil
}
