package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONPath(t *testing.T) {
	cases := map[string]string{
		"CreateInvoiceRequest.Items[0].Description": "items[0].description",
		"CreateCustomerRequest.GatewayCustomerID":   "gateway_customer_id",
		"CreateCustomerRequest.KRAPin":              "kra_pin",
		"CreateInvoiceRequest.DueDate":              "due_date",
		"CreatePaymentRequest.PaymentMethodID":      "payment_method_id",
	}
	for in, want := range cases {
		assert.Equal(t, want, jsonPath(in), in)
	}
}
