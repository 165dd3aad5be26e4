package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService  *service.InvoiceService
	reminderService *service.ReminderService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService, reminderService *service.ReminderService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, reminderService: reminderService}
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(request.DateLayout, raw)
	if err != nil {
		response.BadRequest(c, "Invalid "+name+", expected "+request.DateLayout)
		return nil, false
	}
	return &t, true
}

// List handles listing invoices
// @Summary List invoices
// @Tags invoices
// @Param status query string false "Comma separated statuses"
// @Param customer_id query string false "Customer"
// @Param due_before query string false "YYYY-MM-DD"
// @Param due_after query string false "YYYY-MM-DD"
// @Param search query string false "Invoice number"
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	sts, ok := statuses(c, enum.InvoiceStatus.IsValid)
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}
	dueBefore, ok := queryDate(c, "due_before")
	if !ok {
		return
	}
	dueAfter, ok := queryDate(c, "due_after")
	if !ok {
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), &service.ListInvoicesInput{
		Pagination: pageParams(c),
		Statuses:   sts,
		CustomerID: customerID,
		DueBefore:  dueBefore,
		DueAfter:   dueAfter,
		Search:     c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Invoices retrieved successfully", result)
}

// Create handles creating a draft invoice
// @Summary Create invoice
// @Tags invoices
// @Param request body request.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req request.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Invoice created successfully", invoice)
}

// Get handles fetching one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice retrieved successfully", invoice)
}

// Update handles editing an unsettled invoice
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	var req request.UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), req.ToInput(id, userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice updated successfully", invoice)
}

// Delete handles deleting a draft invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice deleted successfully", nil)
}

// Send emails the invoice and moves a draft to sent
// @Summary Send invoice
// @Tags invoices
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice sent successfully", invoice)
}

// View records that the customer opened the invoice
func (h *InvoiceHandler) View(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkAsViewed(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice marked as viewed", invoice)
}

// Pay records the cumulative amount received outside the gateway
// @Summary Mark invoice paid
// @Tags invoices
// @Param request body request.MarkAsPaidRequest true "Cumulative amount"
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.MarkAsPaidRequest
	if !bindJSON(c, &req) {
		return
	}

	input := &service.MarkAsPaidInput{ID: id, UserID: userID, Amount: req.Amount}
	if req.PaidDate != nil {
		if t, err := time.Parse(request.DateLayout, *req.PaidDate); err == nil {
			input.PaidDate = &t
		}
	}

	invoice, err := h.invoiceService.MarkAsPaid(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice payment recorded", invoice)
}

// Cancel cancels an unpaid invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), id, req.Reason, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice cancelled", invoice)
}

// Remind sends a chosen reminder tier immediately
func (h *InvoiceHandler) Remind(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.ReminderRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.SendReminder(c.Request.Context(), id, req.Type, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Reminder sent", invoice)
}

// ScheduleReminder sends whichever reminder tier the invoice is due for
func (h *InvoiceHandler) ScheduleReminder(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	invoice, err := h.reminderService.ScheduleInvoiceReminder(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Reminder processed", invoice)
}

// Duplicate copies an invoice into a new draft
func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.DuplicateInvoice(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Invoice duplicated successfully", invoice)
}

// PDF renders the invoice and streams the file
// @Summary Download invoice PDF
// @Tags invoices
// @Produce application/pdf
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GeneratePDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(invoice.PDFPath, invoice.Number+".pdf")
}

// BulkRemind sends reminders to every overdue invoice in a days-past-due window
func (h *InvoiceHandler) BulkRemind(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req request.BulkReminderRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reminderService.SendBulkReminders(c.Request.Context(), &service.BulkReminderCriteria{
		UserID:         userID,
		MinDaysPastDue: req.MinDaysPastDue,
		MaxDaysPastDue: req.MaxDaysPastDue,
		Type:           req.Type,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Bulk reminders processed", report)
}
