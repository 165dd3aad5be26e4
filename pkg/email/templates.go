package email

import (
	"bytes"
	"html/template"

	"github.com/cockroachdb/errors"
)

// DocumentData fills the invoice, quote and reminder templates
type DocumentData struct {
	CompanyName  string
	CustomerName string
	Number       string
	Amount       string
	Currency     string
	IssueDate    string
	DueDate      string
	DaysPastDue  int
	ViewURL      string
}

// Reminder tiers, from mildest to most severe
const (
	TierFirst  = "first_reminder"
	TierSecond = "second_reminder"
	TierFinal  = "final_notice"
)

var (
	invoiceTmpl  = template.Must(template.New("invoice").Parse(layout(invoiceBody)))
	quoteTmpl    = template.Must(template.New("quote").Parse(layout(quoteBody)))
	reminderTmpl = map[string]*template.Template{
		TierFirst:  template.Must(template.New(TierFirst).Parse(layout(firstReminderBody))),
		TierSecond: template.Must(template.New(TierSecond).Parse(layout(secondReminderBody))),
		TierFinal:  template.Must(template.New(TierFinal).Parse(layout(finalNoticeBody))),
	}
)

// InvoiceEmail renders the subject and body sent with a new invoice
func InvoiceEmail(d DocumentData) (string, string, error) {
	html, err := render(invoiceTmpl, d)
	return "Invoice " + d.Number + " from " + d.CompanyName, html, err
}

// QuoteEmail renders the subject and body sent with a quote
func QuoteEmail(d DocumentData) (string, string, error) {
	html, err := render(quoteTmpl, d)
	return "Quote " + d.Number + " from " + d.CompanyName, html, err
}

// ReminderEmail renders the payment reminder for the given tier
func ReminderEmail(tier string, d DocumentData) (string, string, error) {
	tmpl, ok := reminderTmpl[tier]
	if !ok {
		return "", "", errors.Newf("unknown reminder tier %q", tier)
	}
	html, err := render(tmpl, d)
	if err != nil {
		return "", "", err
	}

	var subject string
	switch tier {
	case TierFirst:
		subject = "Payment reminder: invoice " + d.Number
	case TierSecond:
		subject = "Second reminder: invoice " + d.Number + " is overdue"
	default:
		subject = "Final notice: invoice " + d.Number
	}
	return subject, html, nil
}

func render(t *template.Template, d DocumentData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", errors.Wrapf(err, "render %s email", t.Name())
	}
	return buf.String(), nil
}

func layout(content string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.CompanyName}}</title></head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 32px 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px; font-weight: 600;">{{.CompanyName}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 36px 30px; color: #4a5568; font-size: 16px; line-height: 1.6;">
` + content + `
                            {{if .ViewURL}}<p style="text-align: center; margin: 30px 0 0 0;"><a href="{{.ViewURL}}" style="display: inline-block; background: #667eea; color: #ffffff; text-decoration: none; padding: 14px 36px; border-radius: 8px; font-weight: 600;">View online</a></p>{{end}}
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f8fafc; padding: 24px 30px; text-align: center; color: #a0aec0; font-size: 12px;">
                            Sent by {{.CompanyName}} billing.
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`
}

const invoiceBody = `
<p>Hello {{.CustomerName}},</p>
<p>Please find attached invoice <strong>{{.Number}}</strong> issued on {{.IssueDate}}.</p>
<p>Amount due: <strong>{{.Currency}} {{.Amount}}</strong>, payable by <strong>{{.DueDate}}</strong>.</p>`

const quoteBody = `
<p>Hello {{.CustomerName}},</p>
<p>Please find attached quote <strong>{{.Number}}</strong> for <strong>{{.Currency}} {{.Amount}}</strong>.</p>
<p>This quote is valid until <strong>{{.DueDate}}</strong>.</p>`

const firstReminderBody = `
<p>Hello {{.CustomerName}},</p>
<p>This is a friendly reminder that invoice <strong>{{.Number}}</strong> was due on {{.DueDate}}.</p>
<p>Outstanding balance: <strong>{{.Currency}} {{.Amount}}</strong>. If you have already paid, please ignore this message.</p>`

const secondReminderBody = `
<p>Hello {{.CustomerName}},</p>
<p>Invoice <strong>{{.Number}}</strong> is now {{.DaysPastDue}} days past due.</p>
<p>Please arrange payment of <strong>{{.Currency}} {{.Amount}}</strong> at your earliest convenience.</p>`

const finalNoticeBody = `
<p>Hello {{.CustomerName}},</p>
<p style="color: #c53030;"><strong>Final notice:</strong> invoice {{.Number}} is {{.DaysPastDue}} days past due.</p>
<p>The outstanding balance of <strong>{{.Currency}} {{.Amount}}</strong> must be settled immediately to avoid further action.</p>`
