package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testSecret,
	})
	return signed.Header, signed.Payload
}

func TestConstructEvent_PaymentIntent(t *testing.T) {
	header, body := sign(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_123",
			"object": "payment_intent",
			"status": "requires_payment_method",
			"metadata": {"tenant_id": "t-1", "payment_id": "p-1"},
			"last_payment_error": {"message": "card declined"}
		}}
	}`)

	ev, err := constructEvent(body, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentFailed, ev.Type)
	require.NotNil(t, ev.Intent)
	assert.Equal(t, "pi_123", ev.Intent.ID)
	assert.Equal(t, "card declined", ev.Intent.FailureMessage)
	assert.Equal(t, "t-1", ev.Intent.Metadata[MetaTenantID])
	assert.Nil(t, ev.Subscription)
}

func TestConstructEvent_Subscription(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	header, body := sign(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_9",
			"object": "subscription",
			"status": "past_due",
			"cancel_at_period_end": true,
			"items": {"object": "list", "data": [{
				"id": "si_1",
				"quantity": 3,
				"current_period_start": `+itoa(start.Unix())+`,
				"current_period_end": `+itoa(end.Unix())+`,
				"price": {"id": "price_pro", "unit_amount": 1999, "currency": "usd",
					"recurring": {"interval": "month", "interval_count": 1}}
			}]}
		}}
	}`)

	ev, err := constructEvent(body, header, testSecret)
	require.NoError(t, err)
	require.NotNil(t, ev.Subscription)

	sub := ev.Subscription
	assert.Equal(t, "sub_9", sub.ID)
	assert.Equal(t, "past_due", sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, int64(3), sub.Quantity)
	assert.Equal(t, "price_pro", sub.PriceID)
	assert.Equal(t, "USD", sub.Currency)
	assert.True(t, decimal.RequireFromString("19.99").Equal(sub.UnitAmount))
	assert.Equal(t, start, sub.CurrentPeriodStart)
	assert.Equal(t, end, sub.CurrentPeriodEnd)
	assert.Nil(t, sub.TrialEnd)
}

func TestConstructEvent_BadSignature(t *testing.T) {
	header, body := sign(t, `{"id":"evt_3","object":"event","type":"payment_intent.succeeded","data":{"object":{}}}`)

	_, err := constructEvent(body, header, "whsec_other")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = constructEvent(body, "t=1,v1=deadbeef", testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(22000), ToMinorUnits(decimal.NewFromInt(220), "USD"))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99"), "usd"))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.005"), "EUR"))
	assert.True(t, decimal.RequireFromString("120.50").Equal(FromMinorUnits(12050, "usd")))
}

func TestMinorUnitsFollowCurrencyExponent(t *testing.T) {
	assert.Equal(t, int64(5000), ToMinorUnits(decimal.NewFromInt(5000), "JPY"))
	assert.Equal(t, int64(1235), ToMinorUnits(decimal.RequireFromString("1234.5"), "krw"))
	assert.True(t, decimal.NewFromInt(5000).Equal(FromMinorUnits(5000, "jpy")))

	assert.Equal(t, int64(12340), ToMinorUnits(decimal.RequireFromString("12.34"), "KWD"))
	assert.True(t, decimal.RequireFromString("12.34").Equal(FromMinorUnits(12340, "kwd")))
}
