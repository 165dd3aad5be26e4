package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/internal/testutil"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	ctx      context.Context
	tenantID uuid.UUID
	userID   uuid.UUID
	clock    *testutil.Clock

	invoiceRepo      *testutil.InvoiceRepository
	quoteRepo        *testutil.QuoteRepository
	paymentRepo      *testutil.PaymentRepository
	subscriptionRepo *testutil.SubscriptionRepository
	customerRepo     *testutil.CustomerRepository
	gateway          *testutil.Gateway
	mailer           *testutil.Mailer

	invoices      *service.InvoiceService
	quotes        *service.QuoteService
	payments      *service.PaymentService
	subscriptions *service.SubscriptionService
	webhooks      *service.WebhookService
	reminders     *service.ReminderService
	reports       *service.ReportService
	customers     *service.CustomerService

	customer *entity.Customer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	renderer, err := pdf.NewFileRenderer(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		tenantID:         uuid.New(),
		userID:           uuid.New(),
		clock:            testutil.NewClock(start),
		invoiceRepo:      testutil.NewInvoiceRepository(),
		quoteRepo:        testutil.NewQuoteRepository(),
		paymentRepo:      testutil.NewPaymentRepository(),
		subscriptionRepo: testutil.NewSubscriptionRepository(),
		customerRepo:     testutil.NewCustomerRepository(),
		gateway:          testutil.NewGateway(),
		mailer:           &testutil.Mailer{},
	}
	h.ctx = repository.WithTenant(context.Background(), h.tenantID)

	settings := service.Settings{
		CompanyName:      "Acme Ltd",
		DefaultCurrency:  "USD",
		PaymentTermsDays: 30,
		QuoteValidDays:   30,
		FrontendURL:      "https://app.example.com",
	}
	log := logger.NewNop()
	counters := testutil.NewCounterRepository()

	h.invoices = service.NewInvoiceService(h.invoiceRepo, h.customerRepo, counters, renderer, h.mailer, settings, log).
		WithClock(h.clock.Now)
	h.quotes = service.NewQuoteService(h.quoteRepo, h.customerRepo, counters, h.invoices, renderer, h.mailer, settings, log).
		WithClock(h.clock.Now)
	h.payments = service.NewPaymentService(h.paymentRepo, h.customerRepo, counters, h.invoices, h.gateway, settings, log).
		WithClock(h.clock.Now)
	h.subscriptions = service.NewSubscriptionService(h.subscriptionRepo, h.customerRepo, h.gateway, log).
		WithClock(h.clock.Now)
	h.webhooks = service.NewWebhookService(h.gateway, h.payments, h.subscriptions, log)
	h.reminders = service.NewReminderService(h.invoices, h.quotes, 4, log).WithClock(h.clock.Now)
	h.reports = service.NewReportService(h.invoiceRepo, h.quoteRepo, h.paymentRepo, h.subscriptionRepo)
	h.customers = service.NewCustomerService(h.customerRepo)

	h.customer, err = h.customers.CreateCustomer(h.ctx, &service.CreateCustomerInput{
		UserID:            h.userID,
		Name:              "Jane Wanjiku",
		Company:           ptr("Wanjiku Traders"),
		Email:             ptr("jane@example.com"),
		GatewayCustomerID: ptr("cus_test"),
	})
	require.NoError(t, err)
	return h
}

func ptr[T any](v T) *T { return &v }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

// standardItems prices to subtotal 200, tax 20, total 220 at a 10% rate
func standardItems() service.PricingInput {
	return service.PricingInput{
		TaxRate: d("10"),
		Items: []service.LineItemInput{
			{Description: "Widget", Quantity: d("2"), UnitPrice: d("50")},
			{Description: "Setup", Quantity: d("1"), UnitPrice: d("100")},
		},
	}
}

func (h *harness) createInvoice(t *testing.T) *entity.Invoice {
	t.Helper()
	inv, err := h.invoices.CreateInvoice(h.ctx, &service.CreateInvoiceInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		Pricing:    standardItems(),
	})
	require.NoError(t, err)
	return inv
}

func (h *harness) sentInvoice(t *testing.T, due time.Time) *entity.Invoice {
	t.Helper()
	issue := h.clock.Now()
	inv, err := h.invoices.CreateInvoice(h.ctx, &service.CreateInvoiceInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		IssueDate:  &issue,
		DueDate:    &due,
		Pricing:    standardItems(),
	})
	require.NoError(t, err)
	inv, err = h.invoices.SendInvoice(h.ctx, inv.ID, h.userID)
	require.NoError(t, err)
	return inv
}
