package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/sangkips/investify-billing/pkg/payment"
	"github.com/shopspring/decimal"
)

// PaymentService handles payment and refund operations
type PaymentService struct {
	paymentRepo  repository.PaymentRepository
	customerRepo repository.CustomerRepository
	invoices     *InvoiceService
	gateway      payment.Gateway
	numbers      numberer
	settings     Settings
	log          *logger.Logger
	now          Clock
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	customerRepo repository.CustomerRepository,
	counterRepo repository.CounterRepository,
	invoices *InvoiceService,
	gateway payment.Gateway,
	settings Settings,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		invoices:     invoices,
		gateway:      gateway,
		numbers:      numberer{counters: counterRepo},
		settings:     settings,
		log:          log,
		now:          systemClock,
	}
}

// WithClock replaces the time source
func (s *PaymentService) WithClock(c Clock) *PaymentService {
	s.now = c
	return s
}

// ProcessPaymentInput represents the input for taking a payment
type ProcessPaymentInput struct {
	UserID     uuid.UUID
	InvoiceID  *uuid.UUID
	CustomerID *uuid.UUID
	// Amount defaults to the invoice's remaining balance
	Amount          decimal.Decimal
	Currency        string
	Method          enum.PaymentMethod
	PaymentMethodID string
	Description     string
	// Confirm charges the payment method immediately
	Confirm bool
}

// ProcessPayment records a pending payment, charges it through the gateway
// for card payments and settles the linked invoice once it completes.
// Offline methods complete immediately.
func (s *PaymentService) ProcessPayment(ctx context.Context, input *ProcessPaymentInput) (*entity.Payment, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	currency := input.Currency
	var customerID uuid.UUID
	if input.CustomerID != nil {
		customerID = *input.CustomerID
	}

	if input.InvoiceID != nil {
		invoice, err := s.invoices.GetInvoice(ctx, *input.InvoiceID)
		if err != nil {
			return nil, err
		}
		if invoice.Status.IsTerminal() || invoice.Status == enum.InvoiceStatusPaid {
			return nil, apperror.NewInvalidStateError("cannot take payment for an invoice that is %s", invoice.Status)
		}
		if customerID == uuid.Nil {
			customerID = invoice.CustomerID
		}
		if currency == "" {
			currency = invoice.Currency
		}
		if amount.IsZero() {
			amount = invoice.RemainingBalance
		}
		if amount.GreaterThan(invoice.RemainingBalance) {
			return nil, apperror.NewInvalidStateError("payment of %s exceeds the remaining balance of %s",
				amount.StringFixed(2), invoice.RemainingBalance.StringFixed(2))
		}
	}
	if customerID == uuid.Nil {
		return nil, apperror.NewFieldValidationError("customer_id", "customer_id or invoice_id is required")
	}
	if !amount.IsPositive() {
		return nil, apperror.NewFieldValidationError("amount", "amount must be greater than zero")
	}
	if currency == "" {
		currency = s.settings.DefaultCurrency
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	method := input.Method
	if method == "" {
		method = enum.PaymentMethodCard
	}

	now := s.now()
	number, err := s.numbers.next(ctx, tenantID, enum.DocumentScopePayment, now)
	if err != nil {
		return nil, err
	}

	p := &entity.Payment{
		TenantID:   tenantID,
		Number:     number,
		InvoiceID:  input.InvoiceID,
		CustomerID: customerID,
		Amount:     amount,
		Currency:   currency,
		Status:     enum.PaymentStatusPending,
		Method:     method,
		CreatedBy:  input.UserID,
	}
	if input.Description != "" {
		p.Description = &input.Description
	}
	if customer.GatewayCustomerID != nil {
		p.GatewayCustomerID = *customer.GatewayCustomerID
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	if !method.UsesGateway() {
		s.transition(ctx, p, enum.PaymentStatusCompleted, input.UserID)
		return p, s.paymentRepo.Update(ctx, p)
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
		Amount:          amount,
		Currency:        currency,
		CustomerID:      p.GatewayCustomerID,
		PaymentMethodID: input.PaymentMethodID,
		Description:     p.Number,
		Confirm:         input.Confirm,
		Metadata:        s.metadata(p),
	})
	if err != nil {
		return nil, s.fail(ctx, p, "payment intent creation failed", err)
	}

	p.GatewayPaymentIntentID = intent.ID
	p.GatewayChargeID = intent.ChargeID
	p.ClientSecret = intent.ClientSecret
	if p.GatewayCustomerID == "" {
		p.GatewayCustomerID = intent.CustomerID
	}
	s.transition(ctx, p, enum.PaymentStatusFromGateway(intent.Status), input.UserID)
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.Infow("payment processed", "payment_id", p.ID, "number", p.Number, "status", p.Status, "amount", p.Amount)
	return p, nil
}

// ConfirmPayment confirms a pending gateway intent with a payment method
func (s *PaymentService) ConfirmPayment(ctx context.Context, id uuid.UUID, paymentMethodID string, userID uuid.UUID) (*entity.Payment, error) {
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != enum.PaymentStatusPending && p.Status != enum.PaymentStatusProcessing {
		return nil, apperror.NewInvalidStateError("cannot confirm a payment that is %s", p.Status)
	}
	if p.GatewayPaymentIntentID == "" {
		return nil, apperror.NewInvalidStateError("payment has no gateway intent to confirm")
	}

	intent, err := s.gateway.ConfirmPaymentIntent(ctx, p.GatewayPaymentIntentID, paymentMethodID)
	if err != nil {
		return nil, s.fail(ctx, p, "payment confirmation failed", err)
	}
	if intent.ChargeID != "" {
		p.GatewayChargeID = intent.ChargeID
	}
	s.transition(ctx, p, enum.PaymentStatusFromGateway(intent.Status), userID)
	return p, s.paymentRepo.Update(ctx, p)
}

// GetPayment retrieves a payment with its refunds
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return p, nil
}

// ListPaymentsInput represents the input for listing payments
type ListPaymentsInput struct {
	Pagination *pagination.PaginationParams
	Statuses   []enum.PaymentStatus
	InvoiceID  *uuid.UUID
	CustomerID *uuid.UUID
	Search     string
}

// ListPayments lists payments with filtering
func (s *PaymentService) ListPayments(ctx context.Context, input *ListPaymentsInput) (*pagination.PaginatedResult[entity.Payment], error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	payments, total, err := s.paymentRepo.List(ctx, &repository.PaymentFilter{
		Pagination: input.Pagination,
		Statuses:   input.Statuses,
		InvoiceID:  input.InvoiceID,
		CustomerID: input.CustomerID,
		Search:     input.Search,
	})
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(payments, pag), nil
}

// RefundPaymentInput represents a refund request. A nil Amount refunds
// everything still refundable.
type RefundPaymentInput struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Amount *decimal.Decimal
	Reason string
}

// RefundPayment returns money from a completed payment. The refund is stored
// as pending before the gateway call so a concurrent request sees it.
func (s *PaymentService) RefundPayment(ctx context.Context, input *RefundPaymentInput) (*entity.Payment, error) {
	p, err := s.GetPayment(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !p.Status.IsRefundable() {
		return nil, apperror.NewInvalidStateError("cannot refund a payment that is %s", p.Status)
	}

	refundable := p.RefundableAmount()
	amount := refundable
	if input.Amount != nil {
		amount = *input.Amount
	}
	if !amount.IsPositive() {
		return nil, apperror.NewFieldValidationError("amount", "refund amount must be greater than zero")
	}
	if amount.GreaterThan(refundable) {
		return nil, apperror.NewInvalidStateError("refund of %s exceeds the refundable amount of %s",
			amount.StringFixed(2), refundable.StringFixed(2))
	}

	reason := input.Reason
	if reason == "" {
		reason = "requested_by_customer"
	}
	p.Refunds = append(p.Refunds, entity.Refund{
		ID:        uuid.New(),
		PaymentID: p.ID,
		Amount:    amount,
		Reason:    reason,
		Status:    enum.RefundStatusPending,
	})
	refund := &p.Refunds[len(p.Refunds)-1]
	s.touch(p, input.UserID)
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	now := s.now()
	if p.GatewayPaymentIntentID != "" {
		result, err := s.gateway.CreateRefund(ctx, payment.RefundRequest{
			IntentID: p.GatewayPaymentIntentID,
			Amount:   amount,
			Currency: p.Currency,
			Reason:   reason,
			Metadata: s.metadata(p),
		})
		if err != nil {
			msg := err.Error()
			refund.Status = enum.RefundStatusFailed
			refund.FailureReason = &msg
			if uerr := s.paymentRepo.Update(ctx, p); uerr != nil {
				s.log.Errorw("failed to record refund failure", "payment_id", p.ID, "error", uerr)
			}
			return nil, apperror.NewGatewayError("refund failed", err)
		}
		refund.GatewayRefundID = result.ID
		refund.Status = enum.RefundStatusFromGateway(result.Status)
		if result.FailureReason != "" {
			refund.FailureReason = &result.FailureReason
		}
	} else {
		refund.Status = enum.RefundStatusCompleted
	}
	if refund.Status == enum.RefundStatusCompleted {
		refund.ProcessedAt = &now
	}

	if p.RefundedAmount().GreaterThanOrEqual(p.Amount) {
		p.Status = enum.PaymentStatusRefunded
	} else if p.RefundedAmount().IsPositive() {
		p.Status = enum.PaymentStatusPartiallyRefunded
	}
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	if p.InvoiceID != nil && refund.Status != enum.RefundStatusFailed && refund.Status != enum.RefundStatusCancelled {
		if _, err := s.invoices.ApplyRefund(ctx, *p.InvoiceID, amount, input.UserID); err != nil {
			s.log.Errorw("failed to apply refund to invoice", "payment_id", p.ID, "invoice_id", *p.InvoiceID, "error", err)
		}
	}

	s.log.Infow("payment refunded", "payment_id", p.ID, "refund_id", refund.ID, "amount", amount, "status", p.Status)
	return p, nil
}

// CancelPayment abandons a payment that has not completed. Cancelling the
// gateway intent is best effort.
func (s *PaymentService) CancelPayment(ctx context.Context, id uuid.UUID, reason string, userID uuid.UUID) (*entity.Payment, error) {
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case enum.PaymentStatusCompleted, enum.PaymentStatusRefunded, enum.PaymentStatusPartiallyRefunded:
		return nil, apperror.NewInvalidStateError("cannot cancel a payment that is %s; refund it instead", p.Status)
	case enum.PaymentStatusCancelled:
		return nil, apperror.NewInvalidStateError("payment is already cancelled")
	}

	if p.GatewayPaymentIntentID != "" && p.Status != enum.PaymentStatusFailed {
		if _, err := s.gateway.CancelPaymentIntent(ctx, p.GatewayPaymentIntentID); err != nil {
			s.log.Warnw("failed to cancel gateway payment intent", "payment_id", p.ID, "intent_id", p.GatewayPaymentIntentID, "error", err)
		}
	}

	p.Status = enum.PaymentStatusCancelled
	if reason != "" {
		p.CancellationReason = &reason
	}
	s.touch(p, userID)
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Infow("payment cancelled", "payment_id", p.ID, "reason", reason)
	return p, nil
}

// UpdatePaymentStatus overrides the status directly. Moving to completed
// settles the linked invoice.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus, userID uuid.UUID) (*entity.Payment, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldValidationError("status", "unknown payment status")
	}
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}
	if !p.Status.CanTransitionTo(status) {
		return nil, apperror.NewInvalidStateError("cannot move a payment from %s to %s", p.Status, status)
	}
	s.transition(ctx, p, status, userID)
	return p, s.paymentRepo.Update(ctx, p)
}

// HandleIntentEvent applies a verified payment intent webhook. The payment is
// located by intent id within the tenant named in the intent's metadata.
func (s *PaymentService) HandleIntentEvent(ctx context.Context, eventType string, intent *payment.Intent) error {
	if intent == nil {
		return nil
	}
	ctx = s.eventScope(ctx, intent.Metadata)

	p, err := s.paymentRepo.GetByGatewayIntentID(ctx, intent.ID)
	if err != nil {
		return err
	}
	if p == nil {
		if raw, ok := intent.Metadata[payment.MetaPaymentID]; ok {
			if pid, perr := uuid.Parse(raw); perr == nil {
				if p, err = s.paymentRepo.GetByID(ctx, pid); err != nil {
					return err
				}
			}
		}
	}
	if p == nil {
		s.log.Warnw("webhook for unknown payment intent", "intent_id", intent.ID, "event", eventType)
		return nil
	}
	ctx = repository.ScopeForTenant(ctx, p.TenantID)

	var target enum.PaymentStatus
	switch eventType {
	case payment.EventIntentSucceeded:
		target = enum.PaymentStatusCompleted
	case payment.EventIntentFailed:
		target = enum.PaymentStatusFailed
		if intent.FailureMessage != "" {
			msg := intent.FailureMessage
			p.FailureReason = &msg
		}
	case payment.EventIntentProcessing:
		target = enum.PaymentStatusProcessing
	case payment.EventIntentCanceled:
		target = enum.PaymentStatusCancelled
	default:
		return nil
	}

	if p.Status == target {
		return nil
	}
	// gateway events arrive out of order; a late one never moves a payment back
	if !p.Status.CanTransitionTo(target) {
		s.log.Infow("ignoring out of order payment intent event", "payment_id", p.ID, "event", eventType, "status", p.Status)
		return nil
	}
	if intent.ChargeID != "" {
		p.GatewayChargeID = intent.ChargeID
	}
	s.transition(ctx, p, target, uuid.Nil)
	return s.paymentRepo.Update(ctx, p)
}

// transition sets a new status and settles the invoice the first time the
// payment completes. ProcessedAt marks a payment as settled.
func (s *PaymentService) transition(ctx context.Context, p *entity.Payment, status enum.PaymentStatus, userID uuid.UUID) {
	p.Status = status
	s.touch(p, userID)
	if status != enum.PaymentStatusCompleted || p.ProcessedAt != nil {
		return
	}

	now := s.now()
	p.ProcessedAt = &now
	if p.InvoiceID == nil {
		return
	}
	invoice, err := s.invoices.GetInvoice(ctx, *p.InvoiceID)
	if err != nil {
		s.log.Errorw("failed to load invoice for settlement", "payment_id", p.ID, "invoice_id", *p.InvoiceID, "error", err)
		return
	}
	if invoice.Status.IsTerminal() {
		s.log.Warnw("payment completed for a closed invoice", "payment_id", p.ID, "invoice_id", invoice.ID, "status", invoice.Status)
		return
	}
	if _, err := s.invoices.MarkAsPaid(ctx, &MarkAsPaidInput{
		ID:       invoice.ID,
		UserID:   userID,
		Amount:   invoice.AmountPaid.Add(p.Amount),
		PaidDate: &now,
	}); err != nil {
		s.log.Errorw("failed to settle invoice", "payment_id", p.ID, "invoice_id", invoice.ID, "error", err)
	}
}

// fail records a gateway failure on the payment and returns it as a GatewayError
func (s *PaymentService) fail(ctx context.Context, p *entity.Payment, message string, cause error) error {
	reason := cause.Error()
	p.Status = enum.PaymentStatusFailed
	p.FailureReason = &reason
	if err := s.paymentRepo.Update(ctx, p); err != nil {
		s.log.Errorw("failed to record payment failure", "payment_id", p.ID, "error", err)
	}
	s.log.Warnw(message, "payment_id", p.ID, "error", cause)
	return apperror.NewGatewayError(message, cause)
}

func (s *PaymentService) touch(p *entity.Payment, userID uuid.UUID) {
	if userID != uuid.Nil {
		p.UpdatedBy = &userID
	}
}

func (s *PaymentService) metadata(p *entity.Payment) map[string]string {
	meta := map[string]string{
		payment.MetaTenantID:  p.TenantID.String(),
		payment.MetaPaymentID: p.ID.String(),
	}
	if p.InvoiceID != nil {
		meta[payment.MetaInvoiceID] = p.InvoiceID.String()
	}
	return meta
}

// eventScope picks the tenant a webhook belongs to, falling back to a
// cross-tenant lookup when the gateway object carries no tenant metadata
func (s *PaymentService) eventScope(ctx context.Context, meta map[string]string) context.Context {
	if raw, ok := meta[payment.MetaTenantID]; ok {
		if tenantID, err := uuid.Parse(raw); err == nil {
			return repository.ScopeForTenant(ctx, tenantID)
		}
	}
	return repository.WithSkipTenantScope(ctx, true)
}
