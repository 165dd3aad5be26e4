package supabase

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
)

const maxCounterAttempts = 10

type counterRepository struct {
	client *Client
}

// NewCounterRepository returns a counter that advances with compare-and-swap
// updates, since PostgREST offers no atomic increment
func NewCounterRepository(c *Client) domainRepo.CounterRepository {
	return &counterRepository{client: c}
}

func (r *counterRepository) Next(ctx context.Context, tenantID uuid.UUID, scope enum.DocumentScope, year int) (int64, error) {
	key := []cond{
		{column: "tenant_id", value: tenantID.String()},
		{column: "scope", value: string(scope)},
		{column: "year", value: strconv.Itoa(year)},
	}

	for attempt := 0; attempt < maxCounterAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var rows []entity.DocumentCounter
		if err := r.client.selectWhere(tableCounters, key, &rows); err != nil {
			return 0, errors.Wrap(err, "read counter")
		}

		if len(rows) == 0 {
			var out []entity.DocumentCounter
			row := entity.DocumentCounter{TenantID: tenantID, Scope: scope, Year: year, Value: 1}
			if err := r.client.insert(tableCounters, row, &out); err != nil {
				// another writer created the row first
				continue
			}
			return 1, nil
		}

		current := rows[0].Value
		var out []entity.DocumentCounter
		cas := append(key, cond{column: "value", value: strconv.FormatInt(current, 10)})
		if err := r.client.updateWhere(tableCounters, map[string]any{"value": current + 1}, cas, &out); err != nil {
			return 0, errors.Wrap(err, "advance counter")
		}
		if len(out) == 1 {
			return current + 1, nil
		}
	}
	return 0, errors.Newf("counter %s/%d contended after %d attempts", scope, year, maxCounterAttempts)
}
