// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/electrostore/ecommerce-backend/internal/domain/payment"
	"github.com/electrostore/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	intents      *payment.IntentService
	reconciler   *payment.Reconciler
	ledger       *payment.Ledger
	redirectBase string
	log          logrus.FieldLogger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(intents *payment.IntentService, reconciler *payment.Reconciler, ledger *payment.Ledger, redirectBase string, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{
		intents:      intents,
		reconciler:   reconciler,
		ledger:       ledger,
		redirectBase: strings.TrimRight(redirectBase, "/"),
		log:          log,
	}
}

// CreateIntent handles POST /payments/create-intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req payment.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	intent, err := h.intents.CreateIntent(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Payment intent created successfully", intent)
}

type webhookBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID payment.ExternalID `json:"id"`
	} `json:"data"`
}

// Webhook handles POST /payments/webhook. The provider always gets a 200.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	n := h.parseNotification(c)

	results := h.reconciler.HandleNotification(c.Request.Context(), n)

	h.log.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"type":       n.Type,
		"data_id":    n.DataID,
		"payments":   len(results),
	}).Info("payment notification processed")

	c.JSON(http.StatusOK, gin.H{
		"status": "received",
	})
}

// parseNotification reads the JSON body, falling back to the query string form
// (?type=payment&data.id=1 or ?topic=payment&id=1) when the body carries no type.
func (h *PaymentHandler) parseNotification(c *gin.Context) payment.Notification {
	var body webhookBody
	if raw, err := io.ReadAll(c.Request.Body); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			h.log.WithError(err).Warn("unreadable payment notification body")
		}
	}

	n := payment.Notification{
		Type:   firstNonEmpty(body.Type, body.Topic),
		DataID: string(body.Data.ID),
	}
	if n.Type == "" {
		n.Type = firstNonEmpty(c.Query("type"), c.Query("topic"))
	}
	if n.DataID == "" {
		n.DataID = firstNonEmpty(c.Query("data.id"), c.Query("id"))
	}
	return n
}

// VerifyPayment handles GET /payments/verify/:paymentId
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.intents.VerifyPayment(c.Request.Context(), c.Param("paymentId"), userID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Payment retrieved successfully", status)
}

// PaymentSuccess handles GET /payments/success
func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	h.redirect(c, "success")
}

// PaymentFailure handles GET /payments/failure
func (h *PaymentHandler) PaymentFailure(c *gin.Context) {
	h.redirect(c, "failure")
}

// PaymentPending handles GET /payments/pending
func (h *PaymentHandler) PaymentPending(c *gin.Context) {
	h.redirect(c, "pending")
}

func (h *PaymentHandler) redirect(c *gin.Context, outcome string) {
	query := url.Values{}
	if v := c.Query("preference_id"); v != "" {
		query.Set("preference_id", v)
	}
	if v := firstNonEmpty(c.Query("payment_id"), c.Query("collection_id")); v != "" {
		query.Set("payment_id", v)
	}

	target := h.redirectBase + "/" + outcome
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusFound, target)
}

// AdminGetPayments handles GET /payments
func (h *PaymentHandler) AdminGetPayments(c *gin.Context) {
	var req payment.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	records, err := h.ledger.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Payments retrieved successfully", records)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
