package billing

import (
	"fmt"

	"github.com/sangkips/investify-billing/internal/domain/enum"
)

// FormatNumber renders a document number such as INV-2026-0042
func FormatNumber(scope enum.DocumentScope, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", scope, year, seq)
}
