package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-billing/pkg/logger"
)

// maxWebhookBody caps the size of a gateway notification
const maxWebhookBody = 64 << 10

// PaymentHandler handles payment-related HTTP requests and gateway webhooks
type PaymentHandler struct {
	paymentService *service.PaymentService
	webhookService *service.WebhookService
	log            *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService, webhookService *service.WebhookService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookService: webhookService,
		log:            log.With("component", "payment_handler"),
	}
}

// List handles listing payments
// @Summary List payments
// @Tags payments
// @Param status query string false "Comma separated statuses"
// @Param invoice_id query string false "Invoice"
// @Param customer_id query string false "Customer"
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	sts, ok := statuses(c, enum.PaymentStatus.IsValid)
	if !ok {
		return
	}
	invoiceID, ok := queryID(c, "invoice_id")
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), &service.ListPaymentsInput{
		Pagination: pageParams(c),
		Statuses:   sts,
		InvoiceID:  invoiceID,
		CustomerID: customerID,
		Search:     c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Payments retrieved successfully", result)
}

// Create takes a payment through the gateway
// @Summary Process payment
// @Tags payments
// @Param Idempotency-Key header string true "Client generated key"
// @Param request body request.CreatePaymentRequest true "Payment"
// @Success 201 {object} response.APIResponse
// @Failure 502 {object} response.APIResponse
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req request.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.paymentService.ProcessPayment(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Payment processed", p)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment retrieved successfully", p)
}

// Confirm confirms a pending intent, optionally with a new payment method
func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.ConfirmPaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	p, err := h.paymentService.ConfirmPayment(c.Request.Context(), id, req.PaymentMethodID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment confirmed", p)
}

// Refund returns part or all of a completed payment
// @Summary Refund payment
// @Tags payments
// @Param request body request.RefundRequest false "Amount and reason"
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.RefundRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	p, err := h.paymentService.RefundPayment(c.Request.Context(), &service.RefundPaymentInput{
		ID:     id,
		UserID: userID,
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Refund processed", p)
}

func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	p, err := h.paymentService.CancelPayment(c.Request.Context(), id, req.Reason, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment cancelled", p)
}

// UpdateStatus overrides a payment's status by hand
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.PaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.paymentService.UpdatePaymentStatus(c.Request.Context(), id, req.Status, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment status updated", p)
}

// Webhook receives gateway notifications. Only a bad signature is refused;
// once verified the event is acknowledged even if applying it failed, since
// the gateway would otherwise retry a delivery that cannot succeed.
// @Summary Payment gateway webhook
// @Tags payments
// @Param Stripe-Signature header string true "Signature"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.APIResponse
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "Unable to read webhook body")
		return
	}

	event, err := h.webhookService.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.webhookService.HandleEvent(c.Request.Context(), event); err != nil {
		h.log.Errorw("webhook handling failed", "event_id", event.ID, "type", event.Type, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
