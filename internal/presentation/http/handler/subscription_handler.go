package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
	"github.com/shopspring/decimal"
)

// SubscriptionHandler handles subscription-related HTTP requests
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	sts, ok := statuses(c, enum.SubscriptionStatus.IsValid)
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}

	result, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), &service.ListSubscriptionsInput{
		Pagination: pageParams(c),
		Statuses:   sts,
		CustomerID: customerID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Subscriptions retrieved successfully", result)
}

// Create starts a subscription at the gateway
// @Summary Create subscription
// @Tags subscriptions
// @Param request body request.CreateSubscriptionRequest true "Subscription"
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req request.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(c.Request.Context(), &service.CreateSubscriptionInput{
		UserID:     userID,
		CustomerID: req.CustomerID,
		PlanID:     req.PlanID,
		Quantity:   req.Quantity,
		TrialDays:  req.TrialDays,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Subscription created", sub)
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetSubscription(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subscription retrieved successfully", sub)
}

// Update changes plan or quantity
func (h *SubscriptionHandler) Update(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.UpdateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.UpdateSubscription(c.Request.Context(), &service.UpdateSubscriptionInput{
		ID:       id,
		UserID:   userID,
		PlanID:   req.PlanID,
		Quantity: req.Quantity,
		Prorate:  req.Prorate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subscription updated", sub)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}
	var req request.CancelSubscriptionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.CancelSubscription(c.Request.Context(), id, req.AtPeriodEnd, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subscription cancelled", sub)
}

func (h *SubscriptionHandler) Pause(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.PauseSubscription(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subscription paused", sub)
}

func (h *SubscriptionHandler) Resume(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.ResumeSubscription(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subscription resumed", sub)
}

// Sync pulls the gateway's view of the subscription
func (h *SubscriptionHandler) Sync(c *gin.Context) {
	id, userID, ok := target(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.SyncWithGateway(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subscription synced", sub)
}

// Proration previews the charge of moving to a new unit amount
// @Summary Estimate proration
// @Tags subscriptions
// @Param amount query string true "New unit amount"
// @Param quantity query int false "New quantity"
// @Router /subscriptions/{id}/proration [get]
func (h *SubscriptionHandler) Proration(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		response.BadRequest(c, "Invalid amount")
		return
	}
	var quantity int64
	if raw := c.Query("quantity"); raw != "" {
		quantity, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || quantity < 0 {
			response.BadRequest(c, "Invalid quantity")
			return
		}
	}

	estimate, err := h.subscriptionService.EstimateProration(c.Request.Context(), &service.EstimateProrationInput{
		ID:            id,
		NewUnitAmount: amount,
		Quantity:      quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Proration estimated", estimate)
}
