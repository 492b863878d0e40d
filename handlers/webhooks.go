package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imaginify/imaginify/backend/go-services/internal/config"
	"github.com/imaginify/imaginify/backend/go-services/internal/webhook"
	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
	"github.com/imaginify/imaginify/backend/go-services/pkg/metrics"
	"github.com/imaginify/imaginify/backend/go-services/pkg/middleware"
)

// WebhookHandler receives identity-provider webhooks.
type WebhookHandler struct {
	cfg        *config.Config
	dispatcher *webhook.Dispatcher
}

func NewWebhookHandler(cfg *config.Config, d *webhook.Dispatcher) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, dispatcher: d}
}

// Register mounts the receiver on the configured webhook path.
func (h *WebhookHandler) Register(rg *gin.RouterGroup) {
	path := h.cfg.Webhook.Path
	if path == "" {
		path = "/api/webhooks/clerk"
	}
	rg.POST(path, h.Receive)
}

// Receive reads the raw body, dispatches it and writes {success, message, user?}.
func (h *WebhookHandler) Receive(c *gin.Context) {
	hdr := webhook.HeadersFrom(c.Request.Header)
	log := logger.With(logger.Fields{"request_id": middleware.GetRequestID(c), "svix_id": hdr.ID})

	limit := h.cfg.Webhook.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warnf("webhook body exceeds %d bytes", limit)
			metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Payload too large"})
			return
		}
		log.Warnf("failed to read webhook body: %v", err)
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid webhook payload"})
		return
	}

	resp, err := h.dispatcher.Handle(c.Request.Context(), hdr, body)
	status := webhook.HTTPStatus(err)

	eventType := string(resp.EventType)
	if eventType == "" {
		eventType = "unknown"
	}
	log = log.With(logger.Fields{"event_type": eventType, "status": status})
	switch {
	case err == nil:
		metrics.WebhookEvents.WithLabelValues(eventType, "ok").Inc()
		log.Infof("webhook processed: %s", resp.Message)
	case status == http.StatusBadRequest:
		metrics.WebhookEvents.WithLabelValues(eventType, "rejected").Inc()
		log.Warnf("webhook rejected: %v", err)
	default:
		metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		log.Errorf("webhook failed: %v", err)
	}

	c.JSON(status, resp)
}
