package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_BuildsMultipartWithAttachment(t *testing.T) {
	svc := NewEmailService(EmailConfig{SMTPHost: "smtp.test", SMTPPort: 25, FromName: "Billing", FromEmail: "billing@test"})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	svc.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := svc.Send(context.Background(), Message{
		To:      "jane@example.com",
		Subject: "Invoice INV-2026-0001",
		HTML:    "<p>hi</p>",
		Attachments: []Attachment{{
			Filename:    "INV-2026-0001.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.3"),
		}},
	})
	require.NoError(t, err)

	raw := string(gotMsg)
	assert.Equal(t, "smtp.test:25", gotAddr)
	assert.Equal(t, []string{"jane@example.com"}, gotTo)
	assert.Contains(t, raw, "Content-Type: multipart/mixed")
	assert.Contains(t, raw, "<p>hi</p>")
	assert.Contains(t, raw, `filename="INV-2026-0001.pdf"`)
	assert.Contains(t, raw, "JVBERi0xLjM=")
}

func TestSend_RequiresRecipient(t *testing.T) {
	svc := NewEmailService(EmailConfig{})
	assert.Error(t, svc.Send(context.Background(), Message{Subject: "x"}))
}

func TestReminderEmail_Tiers(t *testing.T) {
	d := DocumentData{CompanyName: "Acme", CustomerName: "Jane", Number: "INV-2026-0007", Amount: "120.00", Currency: "USD", DaysPastDue: 31}

	subject, html, err := ReminderEmail(TierFinal, d)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(subject, "Final notice"))
	assert.Contains(t, html, "31 days past due")

	subject, _, err = ReminderEmail(TierFirst, d)
	require.NoError(t, err)
	assert.Contains(t, subject, "INV-2026-0007")

	_, _, err = ReminderEmail("nope", d)
	assert.Error(t, err)
}

func TestInvoiceEmail_EscapesInput(t *testing.T) {
	_, html, err := InvoiceEmail(DocumentData{CompanyName: "Acme", CustomerName: "<script>", Number: "INV-1"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
