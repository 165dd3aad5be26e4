package enum

// DocumentScope selects the numbering sequence a document draws from
type DocumentScope string

const (
	DocumentScopeInvoice DocumentScope = "INV"
	DocumentScopeQuote   DocumentScope = "QUO"
	DocumentScopePayment DocumentScope = "PAY"
)

func (s DocumentScope) String() string {
	return string(s)
}
