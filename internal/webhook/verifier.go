package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// Headers are the three delivery headers required for signature verification.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFrom extracts the delivery headers from an HTTP header set.
func HeadersFrom(h http.Header) Headers {
	return Headers{
		ID:        h.Get(HeaderID),
		Timestamp: h.Get(HeaderTimestamp),
		Signature: h.Get(HeaderSignature),
	}
}

// Missing lists the names of empty headers.
func (h Headers) Missing() []string {
	var out []string
	if h.ID == "" {
		out = append(out, HeaderID)
	}
	if h.Timestamp == "" {
		out = append(out, HeaderTimestamp)
	}
	if h.Signature == "" {
		out = append(out, HeaderSignature)
	}
	return out
}

func (h Headers) httpHeader() http.Header {
	hdr := http.Header{}
	hdr.Set(HeaderID, h.ID)
	hdr.Set(HeaderTimestamp, h.Timestamp)
	hdr.Set(HeaderSignature, h.Signature)
	return hdr
}

// VerificationError means the delivery could not be authenticated. It is an
// authentication failure, never a data error.
type VerificationError struct {
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return "webhook verification failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "webhook verification failed: " + e.Reason
}

func (e *VerificationError) Unwrap() error { return e.Err }

// Verifier checks Svix signatures with a shared secret.
type Verifier struct {
	wh *svix.Webhook
}

// NewVerifier builds a verifier from a "whsec_"-prefixed base64 secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify authenticates body against the headers and returns the decoded envelope.
// body must be the exact bytes received; re-encoded JSON will not match the signature.
func (v *Verifier) Verify(body []byte, h Headers) (*Event, error) {
	if missing := h.Missing(); len(missing) > 0 {
		return nil, &VerificationError{Reason: "missing headers " + strings.Join(missing, ", ")}
	}
	if err := v.wh.Verify(body, h.httpHeader()); err != nil {
		return nil, &VerificationError{Reason: "signature mismatch", Err: err}
	}
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}
	return &evt, nil
}
