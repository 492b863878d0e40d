package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/imaginify/imaginify/backend/go-services/internal/config"
	"github.com/imaginify/imaginify/backend/go-services/internal/users"
	"github.com/imaginify/imaginify/backend/go-services/internal/webhook"
	"github.com/imaginify/imaginify/backend/go-services/pkg/metrics"
	"github.com/imaginify/imaginify/backend/go-services/pkg/middleware"
)

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *struct {
		ID            string `json:"_id"`
		ExternalID    string `json:"externalId"`
		Email         string `json:"email"`
		Username      string `json:"username"`
		Photo         string `json:"photo"`
		PlanID        int    `json:"planId"`
		CreditBalance int    `json:"creditBalance"`
	} `json:"user"`
}

func newWebhookRouter(t *testing.T, secret string, maxBody int64) (*gin.Engine, *users.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Webhook: config.WebhookConfig{Secret: secret, Path: "/api/webhooks/clerk", MaxBodyBytes: maxBody}}
	repo := users.NewMemoryRepository()
	d := webhook.NewDispatcher(cfg.Webhook.Secret, users.NewService(repo), nil)

	r := gin.New()
	r.Use(middleware.RequestID())
	NewWebhookHandler(cfg, d).Register(r.Group("/"))
	return r, repo
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	wh, err := svix.NewWebhook(testWebhookSecret)
	require.NoError(t, err)
	now := time.Now()
	sig, err := wh.Sign("msg_1", now, []byte(body))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("svix-signature", sig)
	return req
}

func decodeWebhookResponse(t *testing.T, w *httptest.ResponseRecorder) webhookResponse {
	t.Helper()
	var out webhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestWebhookUserCreatedEndToEnd(t *testing.T) {
	r, repo := newWebhookRouter(t, testWebhookSecret, 0)
	before := testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues("user.created", "ok"))

	body := `{"type":"user.created","data":{"id":"u1","email_addresses":[{"id":"e1","email_address":"a@b.com"}],"primary_email_address_id":"e1"}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, body))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeWebhookResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "User created successfully", resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u1", resp.User.ExternalID)
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.Equal(t, "a", resp.User.Username)
	assert.Equal(t, webhook.PlaceholderPhoto, resp.User.Photo)
	assert.Equal(t, 1, resp.User.PlanID)
	assert.Equal(t, 3, resp.User.CreditBalance)
	assert.NotEmpty(t, resp.User.ID)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.NotContains(t, w.Body.String(), "metadataPending")

	stored, err := repo.GetByExternalID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues("user.created", "ok")))
}

func TestWebhookMissingHeaders(t *testing.T) {
	r, _ := newWebhookRouter(t, testWebhookSecret, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(`{"type":"user.created"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeWebhookResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Error occurred -- no svix headers", resp.Message)
}

func TestWebhookBadSignature(t *testing.T) {
	r, repo := newWebhookRouter(t, testWebhookSecret, 0)
	body := `{"type":"user.created","data":{"id":"u1","email_addresses":[{"id":"e1","email_address":"a@b.com"}],"primary_email_address_id":"e1"}}`
	req := signedRequest(t, body)
	req.Body = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Replace(body, "a@b.com", "x@b.com", 1))).Body

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Error verifying webhook", decodeWebhookResponse(t, w).Message)

	u, err := repo.GetByExternalID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestWebhookWithoutSecretIsServerError(t *testing.T) {
	r, _ := newWebhookRouter(t, "", 0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, `{"type":"user.deleted","data":{"id":"u1"}}`))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, decodeWebhookResponse(t, w).Success)
}

func TestWebhookReplayedCreate(t *testing.T) {
	r, _ := newWebhookRouter(t, testWebhookSecret, 0)
	body := `{"type":"user.created","data":{"id":"u1","email_addresses":[{"id":"e1","email_address":"a@b.com"}],"primary_email_address_id":"e1"}}`

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, body))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, body))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error creating user", decodeWebhookResponse(t, w).Message)
}

func TestWebhookBodyTooLarge(t *testing.T) {
	r, _ := newWebhookRouter(t, testWebhookSecret, 64)
	body := `{"type":"user.created","data":{"id":"u1","first_name":"` + string(bytes.Repeat([]byte("x"), 128)) + `"}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, body))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestWebhookUnhandledType(t *testing.T) {
	r, _ := newWebhookRouter(t, testWebhookSecret, 0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, `{"type":"email.created","data":{"id":"em_1"}}`))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeWebhookResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Webhook processed successfully", resp.Message)
	assert.Nil(t, resp.User)
}
