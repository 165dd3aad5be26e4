package enum

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusCancelled, PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// IsRefundable reports whether money was captured and may be returned
func (s PaymentStatus) IsRefundable() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusPartiallyRefunded
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:           {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing:        {PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusFailed:            {PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusCancelled},
	PaymentStatusCompleted:         {PaymentStatusPartiallyRefunded, PaymentStatusRefunded},
	PaymentStatusPartiallyRefunded: {PaymentStatusRefunded},
}

// CanTransitionTo reports whether a payment may move from s to next.
// Captured money only moves forward into the refunded states, and
// cancelled and refunded payments are final.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatusFromGateway maps a gateway payment intent status onto ours.
// Unknown values map to pending.
func PaymentStatusFromGateway(status string) PaymentStatus {
	switch status {
	case "succeeded":
		return PaymentStatusCompleted
	case "processing":
		return PaymentStatusProcessing
	case "canceled":
		return PaymentStatusCancelled
	default:
		return PaymentStatusPending
	}
}

// RefundStatus represents the state of a single refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
	RefundStatusCancelled RefundStatus = "cancelled"
)

func (s RefundStatus) String() string {
	return string(s)
}

// RefundStatusFromGateway maps a gateway refund status onto ours
func RefundStatusFromGateway(status string) RefundStatus {
	switch status {
	case "succeeded":
		return RefundStatusCompleted
	case "failed":
		return RefundStatusFailed
	case "canceled":
		return RefundStatusCancelled
	default:
		return RefundStatusPending
	}
}

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) String() string {
	return string(m)
}

// UsesGateway reports whether the method is charged through the payment gateway
func (m PaymentMethod) UsesGateway() bool {
	return m == "" || m == PaymentMethodCard
}
