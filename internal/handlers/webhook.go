package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/models"
	"real4d-backend/internal/services"
)

const (
	HottokHeader = "X-Hotmart-Hottok"
	maxBodyBytes = 1 << 20
)

type WebhookHandler struct {
	purchases *services.PurchaseService
	hottok    string
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewWebhookHandler builds the Hotmart receiver. An empty hottok disables the
// shared-secret check.
func NewWebhookHandler(purchases *services.PurchaseService, hottok string, m *metrics.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		purchases: purchases,
		hottok:    hottok,
		metrics:   m,
		logger:    logger.Named("webhook"),
	}
}

func (h *WebhookHandler) HandleHotmart(c *gin.Context) {
	if h.hottok != "" && c.GetHeader(HottokHeader) != h.hottok {
		h.metrics.Webhook("unknown", "unauthorized")
		c.String(http.StatusUnauthorized, "invalid hottok")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		h.metrics.Webhook("unknown", "invalid")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.String(http.StatusBadRequest, "failed to read body")
		return
	}

	var payload models.HotmartWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		h.metrics.Webhook("unknown", "invalid")
		c.String(http.StatusBadRequest, "invalid JSON")
		return
	}
	if payload.Event == "" {
		h.metrics.Webhook("unknown", "invalid")
		c.String(http.StatusBadRequest, "missing event")
		return
	}

	if payload.Data == nil {
		h.reject(c, payload.Event, "missing data")
		return
	}
	purchase := payload.Purchase()
	if purchase.Email == "" || purchase.Transaction == "" {
		h.reject(c, payload.Event, "missing buyer email or transaction")
		return
	}

	log := h.logger.With(
		zap.String("event", payload.Event),
		zap.String("email", purchase.Email),
		zap.String("transaction", purchase.Transaction),
	)

	ctx := c.Request.Context()
	switch payload.Event {
	case models.EventPurchaseApproved:
		order, err := h.purchases.Approve(ctx, purchase)
		if err != nil {
			h.fail(c, log, payload.Event, err)
			return
		}
		log.Info("purchase approved", zap.String("order_id", order.ID.String()))

	case models.EventPurchaseRefunded, models.EventPurchaseChargeback:
		if err := h.purchases.Refund(ctx, purchase.Transaction); err != nil {
			h.fail(c, log, payload.Event, err)
			return
		}

	case models.EventReportReady:
		if _, err := h.purchases.ReportReady(ctx, purchase); err != nil {
			if errors.Is(err, models.ErrOrderNotFound) {
				log.Warn("report ready for unknown order")
				h.metrics.Webhook(payload.Event, "not_found")
				c.String(http.StatusNotFound, "order not found")
				return
			}
			h.fail(c, log, payload.Event, err)
			return
		}

	default:
		log.Info("event ignored")
		h.metrics.Webhook("other", "ignored")
		c.JSON(http.StatusOK, models.OKResponse{OK: true, Ignored: payload.Event})
		return
	}

	h.metrics.Webhook(payload.Event, "ok")
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

func (h *WebhookHandler) reject(c *gin.Context, event, msg string) {
	h.metrics.Webhook(eventLabel(event), "invalid")
	c.String(http.StatusBadRequest, msg)
}

func (h *WebhookHandler) fail(c *gin.Context, log *zap.Logger, event string, err error) {
	log.Error("webhook processing failed", zap.Error(err))
	h.metrics.Webhook(event, "error")
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "internal error")
}

// eventLabel bounds the metric label to the events this handler knows.
func eventLabel(event string) string {
	switch event {
	case models.EventPurchaseApproved, models.EventPurchaseRefunded,
		models.EventPurchaseChargeback, models.EventReportReady:
		return event
	}
	return "other"
}
