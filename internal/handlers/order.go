// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/querylab/internal/i18n"
	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/utils"
)

// HeaderQueryWarning carries the advisory warning for single-entity responses.
const HeaderQueryWarning = "X-Query-Warning"

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// GET /slow/orders/search
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	dateRange, ok := parseDateRange(c)
	if !ok {
		return
	}
	minAmount, ok := parseAmount(c, "minAmount")
	if !ok {
		return
	}

	params := services.OrderSearchParams{
		DateRange: dateRange,
		Status:    models.OrderStatus(c.Query("status")),
		MinAmount: minAmount,
	}

	result, err := h.orderService.SearchOrders(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}

// GET /slow/orders/:id
func (h *OrderHandler) GetOrderFullDetail(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	order, warning, err := h.orderService.GetOrderFullDetail(c.Request.Context(), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header(HeaderQueryWarning, warning)
	utils.SuccessResponse(c, order)
}

// GET /fast/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}
