package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProrationEstimate is a linear preview of the charge for changing plan mid-period
type ProrationEstimate struct {
	CurrentAmount decimal.Decimal `json:"current_amount"`
	NewAmount     decimal.Decimal `json:"new_amount"`
	RemainingDays int             `json:"remaining_days"`
	PeriodDays    int             `json:"period_days"`
	Amount        decimal.Decimal `json:"amount"`
}

// EstimateProration scales the price difference by the unused share of the
// current period. The gateway computes the real figure with second precision
// and may differ by cents; this is only a preview.
func EstimateProration(currentAmount, newAmount decimal.Decimal, periodStart, periodEnd, now time.Time) ProrationEstimate {
	est := ProrationEstimate{
		CurrentAmount: currentAmount,
		NewAmount:     newAmount,
		Amount:        decimal.Zero,
	}

	periodDays := wholeDays(periodEnd.Sub(periodStart))
	if periodDays <= 0 {
		return est
	}
	remaining := wholeDays(periodEnd.Sub(now))
	if remaining < 0 {
		remaining = 0
	}
	if remaining > periodDays {
		remaining = periodDays
	}

	est.PeriodDays = periodDays
	est.RemainingDays = remaining
	est.Amount = RoundMoney(newAmount.Sub(currentAmount).
		Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(periodDays))))
	return est
}

func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
