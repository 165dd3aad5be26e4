package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/payment"
)

// webhookDedupeWindow is how long a delivered event id is remembered
const webhookDedupeWindow = 24 * time.Hour

// WebhookService verifies and dispatches payment gateway notifications
type WebhookService struct {
	gateway       payment.Gateway
	payments      *PaymentService
	subscriptions *SubscriptionService
	seen          *cache.Cache
	log           *logger.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(gateway payment.Gateway, payments *PaymentService, subscriptions *SubscriptionService, log *logger.Logger) *WebhookService {
	return &WebhookService{
		gateway:       gateway,
		payments:      payments,
		subscriptions: subscriptions,
		seen:          cache.New(webhookDedupeWindow, time.Hour),
		log:           log,
	}
}

// ParseEvent checks the signature header and decodes the payload
func (s *WebhookService) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		s.log.Warnw("rejected webhook", "error", err)
		return nil, apperror.ErrInvalidSignature
	}
	return event, nil
}

// HandleEvent applies a verified event once. A redelivered event id is
// ignored; a failed one is forgotten so the next delivery retries it.
func (s *WebhookService) HandleEvent(ctx context.Context, event *payment.Event) error {
	if event.ID != "" {
		if err := s.seen.Add(event.ID, struct{}{}, cache.DefaultExpiration); err != nil {
			s.log.Debugw("duplicate webhook ignored", "event_id", event.ID, "type", event.Type)
			return nil
		}
	}

	var err error
	switch {
	case event.Intent != nil:
		err = s.payments.HandleIntentEvent(ctx, event.Type, event.Intent)
	case event.Subscription != nil:
		err = s.subscriptions.SyncFromEvent(ctx, event.Type, event.Subscription)
	default:
		s.log.Debugw("unhandled webhook event", "event_id", event.ID, "type", event.Type)
	}
	if err != nil {
		s.seen.Delete(event.ID)
		s.log.Errorw("webhook handling failed", "event_id", event.ID, "type", event.Type, "error", err)
		return err
	}
	return nil
}
