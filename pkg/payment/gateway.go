// Package payment adapts an external payment provider to the operations the
// billing services need. Amounts cross this boundary as decimals in major
// units; statuses cross as the provider's own strings and are mapped by callers.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata keys attached to gateway objects so webhooks can find their owner
const (
	MetaTenantID  = "tenant_id"
	MetaPaymentID = "payment_id"
	MetaInvoiceID = "invoice_id"
)

// Gateway is the capability set consumed by the payment, subscription and
// webhook services
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*Intent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) (*Intent, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error)

	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*RemoteSubscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, req SubscriptionUpdate) (*RemoteSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) (*RemoteSubscription, error)
	PauseSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error)
	ResumeSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error)

	// ConstructEvent verifies the signature header and decodes the payload
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

type IntentRequest struct {
	Amount          decimal.Decimal
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Description     string
	// Confirm asks the gateway to confirm the intent immediately
	Confirm  bool
	Metadata map[string]string
}

type Intent struct {
	ID             string
	Status         string
	ClientSecret   string
	CustomerID     string
	ChargeID       string
	FailureMessage string
	Metadata       map[string]string
}

type RefundRequest struct {
	IntentID string
	Amount   decimal.Decimal
	Currency string
	Reason   string
	Metadata map[string]string
}

type RefundResult struct {
	ID            string
	Status        string
	FailureReason string
}

type SubscriptionRequest struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	TrialDays  int64
	Metadata   map[string]string
}

// SubscriptionUpdate changes plan and/or quantity; zero values leave a field alone
type SubscriptionUpdate struct {
	PriceID  string
	Quantity int64
	Prorate  bool
}

// RemoteSubscription is the gateway's authoritative view of a subscription
type RemoteSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	ItemID             string
	Interval           string
	IntervalCount      int64
	UnitAmount         decimal.Decimal
	Currency           string
	Quantity           int64
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialStart         *time.Time
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	Paused             bool
	Metadata           map[string]string
}

// Event types the webhook service reacts to
const (
	EventIntentSucceeded       = "payment_intent.succeeded"
	EventIntentFailed          = "payment_intent.payment_failed"
	EventIntentProcessing      = "payment_intent.processing"
	EventIntentCanceled        = "payment_intent.canceled"
	EventSubscriptionCreated   = "customer.subscription.created"
	EventSubscriptionUpdated   = "customer.subscription.updated"
	EventSubscriptionDeleted   = "customer.subscription.deleted"
	EventSubscriptionPaused    = "customer.subscription.paused"
	EventSubscriptionResumed   = "customer.subscription.resumed"
	EventSubscriptionTrialEnds = "customer.subscription.trial_will_end"
)

// Event is a verified webhook notification. Exactly one of Intent and
// Subscription is set for the event types above.
type Event struct {
	ID           string
	Type         string
	Intent       *Intent
	Subscription *RemoteSubscription
}

// zeroDecimal lists the currencies Stripe charges in whole units
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// threeDecimal lists the currencies Stripe charges in thousandths
var threeDecimal = map[string]bool{
	"BHD": true, "JOD": true, "KWD": true, "OMR": true, "TND": true,
}

// CurrencyExponent returns the number of minor-unit digits for an ISO currency
func CurrencyExponent(currency string) int32 {
	code := strings.ToUpper(currency)
	switch {
	case zeroDecimal[code]:
		return 0
	case threeDecimal[code]:
		return 3
	}
	return 2
}

// ToMinorUnits converts a major-unit amount to the currency's smallest unit,
// rounding half away from zero
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(CurrencyExponent(currency)).Round(0).IntPart()
}

// FromMinorUnits converts an amount in the currency's smallest unit to major units
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -CurrencyExponent(currency))
}
