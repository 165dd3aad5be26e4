package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/email"
	"github.com/sangkips/investify-billing/pkg/pdf"
)

const dateLayout = "2006-01-02"

// dispatcher renders PDFs and mails documents to customers
type dispatcher struct {
	renderer pdf.Renderer
	mailer   email.Sender
	settings Settings
}

func (d dispatcher) pricingTotals(p *entity.Pricing) []pdf.Total {
	totals := []pdf.Total{{Label: "Subtotal", Value: p.Subtotal.StringFixed(2)}}
	for _, t := range p.TaxDetails {
		totals = append(totals, pdf.Total{Label: t.Name + " (" + t.Rate.String() + "%)", Value: t.Amount.StringFixed(2)})
	}
	if p.DiscountAmount.IsPositive() {
		totals = append(totals, pdf.Total{Label: "Discount", Value: "-" + p.DiscountAmount.StringFixed(2)})
	}
	return append(totals, pdf.Total{Label: "Total", Value: p.TotalAmount.StringFixed(2), Bold: true})
}

func pdfLines(items []entity.LineItem) []pdf.Line {
	lines := make([]pdf.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pdf.Line{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Amount:      it.TotalPrice.StringFixed(2),
		})
	}
	return lines
}

func billTo(c *entity.Customer, companyName string) []string {
	lines := []string{companyName}
	if c == nil {
		return lines
	}
	if c.Name != companyName {
		lines = append(lines, c.Name)
	}
	if c.Address != nil {
		lines = append(lines, *c.Address)
	}
	return append(lines, c.EmailAddress())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (d dispatcher) invoiceDocument(inv *entity.Invoice, c *entity.Customer) pdf.Document {
	totals := d.pricingTotals(&inv.Pricing)
	if inv.AmountPaid.IsPositive() {
		totals = append(totals,
			pdf.Total{Label: "Amount Paid", Value: inv.AmountPaid.StringFixed(2)},
			pdf.Total{Label: "Balance Due", Value: inv.RemainingBalance.StringFixed(2), Bold: true},
		)
	}
	return pdf.Document{
		Title:  "INVOICE",
		Number: inv.Number,
		Issuer: d.settings.CompanyName,
		BillTo: billTo(c, inv.CompanyName),
		Dates: [][2]string{
			{"Issue Date", inv.IssueDate.Format(dateLayout)},
			{"Due Date", inv.DueDate.Format(dateLayout)},
		},
		Currency:    inv.Currency,
		Lines:       pdfLines(inv.LineItems),
		Totals:      totals,
		Notes:       deref(inv.Notes),
		Terms:       deref(inv.Terms),
		StatusStamp: strings.ToUpper(strings.ReplaceAll(string(inv.Status), "_", " ")),
	}
}

func (d dispatcher) quoteDocument(q *entity.Quote, c *entity.Customer) pdf.Document {
	return pdf.Document{
		Title:  "QUOTE",
		Number: q.Number,
		Issuer: d.settings.CompanyName,
		BillTo: billTo(c, q.CompanyName),
		Dates: [][2]string{
			{"Issue Date", q.IssueDate.Format(dateLayout)},
			{"Valid Until", q.ExpiryDate.Format(dateLayout)},
		},
		Currency: q.Currency,
		Lines:    pdfLines(q.LineItems),
		Totals:   d.pricingTotals(&q.Pricing),
		Notes:    deref(q.Notes),
		Terms:    deref(q.Terms),
	}
}

// render writes the PDF and wraps renderer failures
func (d dispatcher) render(doc pdf.Document) (string, error) {
	path, err := d.renderer.Render(doc)
	if err != nil {
		return "", apperror.NewGatewayError("failed to render "+strings.ToLower(doc.Title)+" pdf", err)
	}
	return path, nil
}

// mail sends an HTML message with the PDF at pdfPath attached
func (d dispatcher) mail(ctx context.Context, to, subject, html, pdfPath string) error {
	if to == "" {
		return apperror.NewFieldValidationError("email", "customer has no email address")
	}

	msg := email.Message{To: to, Subject: subject, HTML: html}
	if pdfPath != "" {
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return errors.Wrapf(err, "read %s", pdfPath)
		}
		msg.Attachments = []email.Attachment{{
			Filename:    filepath.Base(pdfPath),
			ContentType: "application/pdf",
			Data:        data,
		}}
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return apperror.NewGatewayError("failed to send email", err)
	}
	return nil
}

func (d dispatcher) viewURL(kind string, id string) string {
	if d.settings.FrontendURL == "" {
		return ""
	}
	return strings.TrimRight(d.settings.FrontendURL, "/") + "/" + kind + "/" + id
}
