package testutil

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sangkips/investify-billing/pkg/email"
	"github.com/sangkips/investify-billing/pkg/payment"
)

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Mailer records every message instead of sending it
type Mailer struct {
	mu   sync.Mutex
	sent []email.Message
	// Err, when set, fails every send
	Err error
}

func (m *Mailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (m *Mailer) Sent() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}

// ValidSignature is the only signature Gateway.ConstructEvent accepts
const ValidSignature = "t=1,v1=valid"

// Gateway is a scripted payment.Gateway. Intents succeed when confirmed
// immediately unless IntentStatus says otherwise.
type Gateway struct {
	mu sync.Mutex
	n  int

	IntentStatus  string
	CreateErr     error
	ConfirmErr    error
	CancelErr     error
	RefundErr     error
	RefundStatus  string
	SubscribeErr  error
	Subscriptions map[string]*payment.RemoteSubscription

	Intents   []payment.IntentRequest
	Refunds   []payment.RefundRequest
	Cancelled []string
}

func NewGateway() *Gateway {
	return &Gateway{Subscriptions: map[string]*payment.RemoteSubscription{}}
}

func (g *Gateway) nextID(prefix string) string {
	g.n++
	return prefix + "_" + strconv.Itoa(g.n)
}

func (g *Gateway) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Intents = append(g.Intents, req)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	status := g.IntentStatus
	if status == "" {
		status = "requires_payment_method"
		if req.Confirm {
			status = "succeeded"
		}
	}
	id := g.nextID("pi")
	return &payment.Intent{
		ID:           id,
		Status:       status,
		ClientSecret: id + "_secret",
		CustomerID:   req.CustomerID,
		ChargeID:     g.nextID("ch"),
		Metadata:     req.Metadata,
	}, nil
}

func (g *Gateway) ConfirmPaymentIntent(_ context.Context, intentID, _ string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ConfirmErr != nil {
		return nil, g.ConfirmErr
	}
	return &payment.Intent{ID: intentID, Status: "succeeded", ChargeID: g.nextID("ch")}, nil
}

func (g *Gateway) CancelPaymentIntent(_ context.Context, intentID string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Cancelled = append(g.Cancelled, intentID)
	if g.CancelErr != nil {
		return nil, g.CancelErr
	}
	return &payment.Intent{ID: intentID, Status: "canceled"}, nil
}

func (g *Gateway) CreateRefund(_ context.Context, req payment.RefundRequest) (*payment.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Refunds = append(g.Refunds, req)
	if g.RefundErr != nil {
		return nil, g.RefundErr
	}
	status := g.RefundStatus
	if status == "" {
		status = "succeeded"
	}
	return &payment.RefundResult{ID: g.nextID("re"), Status: status}, nil
}

func (g *Gateway) CreateSubscription(_ context.Context, req payment.SubscriptionRequest) (*payment.RemoteSubscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SubscribeErr != nil {
		return nil, g.SubscribeErr
	}
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := &payment.RemoteSubscription{
		ID:                 g.nextID("sub"),
		CustomerID:         req.CustomerID,
		Status:             "active",
		PriceID:            req.PriceID,
		ItemID:             g.nextID("si"),
		Interval:           "month",
		IntervalCount:      1,
		Currency:           "usd",
		Quantity:           req.Quantity,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
		Metadata:           req.Metadata,
	}
	g.Subscriptions[sub.ID] = sub
	return copySub(sub), nil
}

func (g *Gateway) UpdateSubscription(_ context.Context, id string, req payment.SubscriptionUpdate) (*payment.RemoteSubscription, error) {
	return g.mutate(id, func(s *payment.RemoteSubscription) {
		if req.PriceID != "" {
			s.PriceID = req.PriceID
		}
		if req.Quantity > 0 {
			s.Quantity = req.Quantity
		}
	})
}

func (g *Gateway) CancelSubscription(_ context.Context, id string, atPeriodEnd bool) (*payment.RemoteSubscription, error) {
	return g.mutate(id, func(s *payment.RemoteSubscription) {
		if atPeriodEnd {
			s.CancelAtPeriodEnd = true
			return
		}
		now := time.Now().UTC()
		s.Status = "canceled"
		s.CanceledAt = &now
	})
}

func (g *Gateway) PauseSubscription(_ context.Context, id string) (*payment.RemoteSubscription, error) {
	return g.mutate(id, func(s *payment.RemoteSubscription) { s.Paused = true })
}

func (g *Gateway) ResumeSubscription(_ context.Context, id string) (*payment.RemoteSubscription, error) {
	return g.mutate(id, func(s *payment.RemoteSubscription) { s.Paused = false })
}

func (g *Gateway) GetSubscription(_ context.Context, id string) (*payment.RemoteSubscription, error) {
	return g.mutate(id, func(*payment.RemoteSubscription) {})
}

func (g *Gateway) mutate(id string, fn func(*payment.RemoteSubscription)) (*payment.RemoteSubscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, errors.Newf("no such subscription: %s", id)
	}
	fn(sub)
	return copySub(sub), nil
}

// ConstructEvent accepts a JSON encoded payment.Event signed with ValidSignature
func (g *Gateway) ConstructEvent(payload []byte, signature string) (*payment.Event, error) {
	if signature != ValidSignature {
		return nil, payment.ErrInvalidSignature
	}
	var event payment.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Wrap(err, "decode event")
	}
	return &event, nil
}

func copySub(s *payment.RemoteSubscription) *payment.RemoteSubscription {
	c := *s
	return &c
}

var (
	_ payment.Gateway = (*Gateway)(nil)
	_ email.Sender    = (*Mailer)(nil)
)
