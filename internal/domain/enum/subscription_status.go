package enum

// SubscriptionStatus mirrors the gateway subscription state
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusInactive  SubscriptionStatus = "inactive"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusInactive, SubscriptionStatusCancelled,
		SubscriptionStatusPastDue, SubscriptionStatusTrialing, SubscriptionStatusPaused:
		return true
	}
	return false
}

// SubscriptionStatusFromGateway maps a gateway subscription status onto ours
func SubscriptionStatusFromGateway(status string) SubscriptionStatus {
	switch status {
	case "active":
		return SubscriptionStatusActive
	case "trialing":
		return SubscriptionStatusTrialing
	case "past_due", "unpaid":
		return SubscriptionStatusPastDue
	case "canceled":
		return SubscriptionStatusCancelled
	case "paused":
		return SubscriptionStatusPaused
	default:
		return SubscriptionStatusInactive
	}
}

// BillingInterval is the recurrence unit of a subscription
type BillingInterval string

const (
	BillingIntervalDay   BillingInterval = "day"
	BillingIntervalWeek  BillingInterval = "week"
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

func (i BillingInterval) String() string {
	return string(i)
}
