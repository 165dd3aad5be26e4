package repository

import "github.com/shopspring/decimal"

// StatusAggregate is one row of a count/sum grouped by document status
type StatusAggregate struct {
	Status      string          `json:"status"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
