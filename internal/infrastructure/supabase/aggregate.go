package supabase

import (
	"sort"

	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// aggregate groups rows by status, summing total and outstanding per group
func aggregate[T any](rows []T, status func(T) string, total, outstanding func(T) decimal.Decimal) []domainRepo.StatusAggregate {
	groups := lo.GroupBy(rows, status)
	out := make([]domainRepo.StatusAggregate, 0, len(groups))
	for s, members := range groups {
		agg := domainRepo.StatusAggregate{Status: s, Count: int64(len(members)), Total: decimal.Zero, Outstanding: decimal.Zero}
		for _, m := range members {
			agg.Total = agg.Total.Add(total(m))
			if outstanding != nil {
				agg.Outstanding = agg.Outstanding.Add(outstanding(m))
			}
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}
