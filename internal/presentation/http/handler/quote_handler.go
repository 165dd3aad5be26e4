package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
)

// QuoteHandler handles quote-related HTTP requests
type QuoteHandler struct {
	quoteService *service.QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteService *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// List handles listing quotes
// @Summary List quotes
// @Tags quotes
// @Param status query string false "Comma separated statuses"
// @Param customer_id query string false "Customer"
// @Param search query string false "Quote number or title"
// @Router /quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	sts, ok := statuses(c, enum.QuoteStatus.IsValid)
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}

	result, err := h.quoteService.ListQuotes(c.Request.Context(), &service.ListQuotesInput{
		Pagination: pageParams(c),
		Statuses:   sts,
		CustomerID: customerID,
		Search:     c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Quotes retrieved successfully", result)
}

// Create handles creating a draft quote
// @Summary Create quote
// @Tags quotes
// @Param request body request.CreateQuoteRequest true "Quote"
// @Router /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req request.CreateQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.CreateQuote(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Quote created successfully", quote)
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	quote, err := h.quoteService.GetQuote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quote retrieved successfully", quote)
}

func (h *QuoteHandler) Update(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	var req request.UpdateQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.UpdateQuote(c.Request.Context(), req.ToInput(id, userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quote updated successfully", quote)
}

func (h *QuoteHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.quoteService.DeleteQuote(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quote deleted successfully", nil)
}

// Send emails the quote to the customer
func (h *QuoteHandler) Send(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.SendQuote(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quote sent successfully", quote)
}

// Accept records the customer's acceptance
func (h *QuoteHandler) Accept(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.AcceptQuote(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quote accepted", quote)
}

// Reject records the customer's rejection with an optional reason
func (h *QuoteHandler) Reject(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.RejectQuote(c.Request.Context(), id, req.Reason, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Quote rejected", quote)
}

// Convert turns an accepted quote into a draft invoice
// @Summary Convert quote to invoice
// @Tags quotes
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /quotes/{id}/convert [post]
func (h *QuoteHandler) Convert(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	invoice, err := h.quoteService.ConvertToInvoice(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Quote converted to invoice", invoice)
}

func (h *QuoteHandler) Duplicate(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.DuplicateQuote(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Quote duplicated successfully", quote)
}

// AddItem appends a line item to an undecided quote
func (h *QuoteHandler) AddItem(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.LineItemRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.AddLineItem(c.Request.Context(), id, req.ToInput(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Line item added", quote)
}

func (h *QuoteHandler) UpdateItem(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	var req request.LineItemRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.UpdateLineItem(c.Request.Context(), id, itemID, req.ToInput(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line item updated", quote)
}

func (h *QuoteHandler) RemoveItem(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	quote, err := h.quoteService.RemoveLineItem(c.Request.Context(), id, itemID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line item removed", quote)
}
