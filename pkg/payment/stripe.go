package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway implements Gateway on the Stripe API
type StripeGateway struct {
	client        *stripe.Client
	webhookSecret string
	log           *logger.Logger
}

// NewStripeGateway creates a gateway for the given secret key
func NewStripeGateway(secretKey, webhookSecret string, log *logger.Logger) *StripeGateway {
	return &StripeGateway{
		client:        stripe.NewClient(secretKey, nil),
		webhookSecret: webhookSecret,
		log:           log,
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(ToMinorUnits(req.Amount, req.Currency)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		Metadata: req.Metadata,
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
		params.Confirm = stripe.Bool(req.Confirm)
	}

	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}
	g.log.Infow("payment intent created", "intent_id", pi.ID, "status", pi.Status)
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
	}
	pi, err := g.client.V1PaymentIntents.Confirm(ctx, intentID, params)
	if err != nil {
		return nil, errors.Wrapf(err, "confirm payment intent %s", intentID)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String("requested_by_customer"),
	}
	pi, err := g.client.V1PaymentIntents.Cancel(ctx, intentID, params)
	if err != nil {
		return nil, errors.Wrapf(err, "cancel payment intent %s", intentID)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	metadata := map[string]string{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.Reason != "" {
		metadata["reason"] = req.Reason
	}

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(req.IntentID),
		Amount:        stripe.Int64(ToMinorUnits(req.Amount, req.Currency)),
		Reason:        stripe.String("requested_by_customer"),
		Metadata:      metadata,
	}
	r, err := g.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "refund payment intent %s", req.IntentID)
	}
	return &RefundResult{
		ID:            r.ID,
		Status:        string(r.Status),
		FailureReason: string(r.FailureReason),
	}, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*RemoteSubscription, error) {
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	params := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(req.CustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(quantity),
		}},
		Metadata: req.Metadata,
	}
	if req.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(req.TrialDays)
	}

	sub, err := g.client.V1Subscriptions.Create(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "create subscription")
	}
	return subscriptionFromStripe(sub), nil
}

func (g *StripeGateway) UpdateSubscription(ctx context.Context, subscriptionID string, req SubscriptionUpdate) (*RemoteSubscription, error) {
	current, err := g.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve subscription %s", subscriptionID)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, errors.Newf("subscription %s has no items", subscriptionID)
	}

	item := &stripe.SubscriptionUpdateItemParams{ID: stripe.String(current.Items.Data[0].ID)}
	if req.PriceID != "" {
		item.Price = stripe.String(req.PriceID)
	}
	if req.Quantity > 0 {
		item.Quantity = stripe.Int64(req.Quantity)
	}

	behavior := "none"
	if req.Prorate {
		behavior = "create_prorations"
	}
	params := &stripe.SubscriptionUpdateParams{
		Items:             []*stripe.SubscriptionUpdateItemParams{item},
		ProrationBehavior: stripe.String(behavior),
	}

	sub, err := g.client.V1Subscriptions.Update(ctx, subscriptionID, params)
	if err != nil {
		return nil, errors.Wrapf(err, "update subscription %s", subscriptionID)
	}
	return subscriptionFromStripe(sub), nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) (*RemoteSubscription, error) {
	if atPeriodEnd {
		sub, err := g.client.V1Subscriptions.Update(ctx, subscriptionID, &stripe.SubscriptionUpdateParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "schedule cancellation of %s", subscriptionID)
		}
		return subscriptionFromStripe(sub), nil
	}

	sub, err := g.client.V1Subscriptions.Cancel(ctx, subscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return nil, errors.Wrapf(err, "cancel subscription %s", subscriptionID)
	}
	return subscriptionFromStripe(sub), nil
}

func (g *StripeGateway) PauseSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error) {
	sub, err := g.client.V1Subscriptions.Update(ctx, subscriptionID, &stripe.SubscriptionUpdateParams{
		PauseCollection: &stripe.SubscriptionUpdatePauseCollectionParams{
			Behavior: stripe.String("void"),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pause subscription %s", subscriptionID)
	}
	return subscriptionFromStripe(sub), nil
}

func (g *StripeGateway) ResumeSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error) {
	params := &stripe.SubscriptionUpdateParams{}
	// an empty value clears pause_collection
	params.AddExtra("pause_collection", "")
	sub, err := g.client.V1Subscriptions.Update(ctx, subscriptionID, params)
	if err != nil {
		return nil, errors.Wrapf(err, "resume subscription %s", subscriptionID)
	}
	return subscriptionFromStripe(sub), nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*RemoteSubscription, error) {
	sub, err := g.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve subscription %s", subscriptionID)
	}
	return subscriptionFromStripe(sub), nil
}

// ConstructEvent verifies a webhook delivery, ignoring API version mismatches
// between the endpoint and the library
func (g *StripeGateway) ConstructEvent(payload []byte, signature string) (*Event, error) {
	return constructEvent(payload, signature, g.webhookSecret)
}

func constructEvent(payload []byte, signature, secret string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSignature, err.Error())
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, errors.Wrap(err, "decode payment intent")
		}
		out.Intent = intentFromStripe(&pi)
	case strings.HasPrefix(out.Type, "customer.subscription."):
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, errors.Wrap(err, "decode subscription")
		}
		out.Subscription = subscriptionFromStripe(&sub)
	}
	return out, nil
}

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		in.CustomerID = pi.Customer.ID
	}
	if pi.LatestCharge != nil {
		in.ChargeID = pi.LatestCharge.ID
	}
	if pi.LastPaymentError != nil {
		in.FailureMessage = pi.LastPaymentError.Msg
	}
	return in
}

func subscriptionFromStripe(sub *stripe.Subscription) *RemoteSubscription {
	rs := &RemoteSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Paused:            sub.PauseCollection != nil,
		Metadata:          sub.Metadata,
		TrialStart:        unixPtr(sub.TrialStart),
		TrialEnd:          unixPtr(sub.TrialEnd),
		CanceledAt:        unixPtr(sub.CanceledAt),
	}
	if sub.Customer != nil {
		rs.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		rs.ItemID = item.ID
		rs.Quantity = item.Quantity
		rs.CurrentPeriodStart = unix(item.CurrentPeriodStart)
		rs.CurrentPeriodEnd = unix(item.CurrentPeriodEnd)
		if item.Price != nil {
			rs.PriceID = item.Price.ID
			rs.UnitAmount = FromMinorUnits(item.Price.UnitAmount, string(item.Price.Currency))
			rs.Currency = strings.ToUpper(string(item.Price.Currency))
			if item.Price.Recurring != nil {
				rs.Interval = string(item.Price.Recurring.Interval)
				rs.IntervalCount = item.Price.Recurring.IntervalCount
			}
		}
	}
	return rs
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := unix(sec)
	return &t
}
