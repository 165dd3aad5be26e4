// Package supabase stores billing documents through the Supabase REST API.
// PostgREST has no server-side aggregation over our filter shapes, so rows
// are fetched per tenant and filtered, sorted and paged in memory.
package supabase

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	supa "github.com/nedpals/supabase-go"
	"github.com/sangkips/investify-billing/internal/config"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
)

// Table names shared with the gorm schema
const (
	tableInvoices      = "invoices"
	tableQuotes        = "quotes"
	tablePayments      = "payments"
	tableRefunds       = "refunds"
	tableSubscriptions = "subscriptions"
	tableCustomers     = "customers"
	tableCounters      = "document_counters"
)

// errNoTenant marks a query issued without a tenant in scope
var errNoTenant = errors.New("no tenant in context")

// Client wraps the Supabase SDK client
type Client struct {
	sb *supa.Client
}

// NewClient connects to the project configured in cfg
func NewClient(cfg config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, errors.New("supabase url and api key are required")
	}
	return &Client{sb: supa.CreateClient(cfg.URL, cfg.APIKey)}, nil
}

type cond struct {
	column string
	value  string
}

// tenantConds returns the tenant filter for ctx. A cross-tenant context gets
// no filter; a context without tenant yields errNoTenant.
func tenantConds(ctx context.Context) ([]cond, error) {
	if domainRepo.SkipTenantScope(ctx) {
		return nil, nil
	}
	tenantID, ok := domainRepo.GetTenantID(ctx)
	if !ok {
		return nil, errNoTenant
	}
	return []cond{{column: "tenant_id", value: tenantID.String()}}, nil
}

func (c *Client) selectWhere(table string, conds []cond, out any) error {
	sel := c.sb.DB.From(table).Select("*")
	if len(conds) == 0 {
		return sel.Execute(out)
	}
	f := sel.Eq(conds[0].column, conds[0].value)
	for _, cd := range conds[1:] {
		f = f.Eq(cd.column, cd.value)
	}
	return f.Execute(out)
}

func (c *Client) insert(table string, row any, out any) error {
	return c.sb.DB.From(table).Insert(row).Execute(out)
}

func (c *Client) updateWhere(table string, patch any, conds []cond, out any) error {
	if len(conds) == 0 {
		return errors.New("refusing unfiltered update")
	}
	f := c.sb.DB.From(table).Update(patch).Eq(conds[0].column, conds[0].value)
	for _, cd := range conds[1:] {
		f = f.Eq(cd.column, cd.value)
	}
	return f.Execute(out)
}

func (c *Client) deleteWhere(table string, conds []cond) error {
	if len(conds) == 0 {
		return errors.New("refusing unfiltered delete")
	}
	f := c.sb.DB.From(table).Delete().Eq(conds[0].column, conds[0].value)
	for _, cd := range conds[1:] {
		f = f.Eq(cd.column, cd.value)
	}
	var discard []map[string]any
	return f.Execute(&discard)
}

// toRow converts an entity to a column map, dropping relation and transient keys.
// Keys the JSON encoding omits as empty are written explicitly so an update
// clears the column instead of leaving the stored value behind.
func toRow(v any, drop ...string) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode row")
	}
	row := map[string]any{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, errors.Wrap(err, "decode row")
	}
	if err := fillOmitted(reflect.Indirect(reflect.ValueOf(v)), row); err != nil {
		return nil, err
	}
	for _, k := range drop {
		delete(row, k)
	}
	return row, nil
}

// fillOmitted adds every tagged field of the struct value missing from row.
// Embedded structs without a tag are flattened the way encoding/json does.
func fillOmitted(v reflect.Value, row map[string]any) error {
	if v.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if field.Anonymous && name == "" && field.Type.Kind() == reflect.Struct {
			if err := fillOmitted(v.Field(i), row); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			name = field.Name
		}
		if _, ok := row[name]; ok {
			continue
		}
		raw, err := json.Marshal(v.Field(i).Interface())
		if err != nil {
			return errors.Wrapf(err, "encode column %s", name)
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return errors.Wrapf(err, "decode column %s", name)
		}
		row[name] = value
	}
	return nil
}

func idConds(ctx context.Context, id uuid.UUID) ([]cond, error) {
	conds, err := tenantConds(ctx)
	if err != nil {
		return nil, err
	}
	return append(conds, cond{column: "id", value: id.String()}), nil
}
