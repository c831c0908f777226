// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /slow/users
func (h *UserHandler) ListAllUsers(c *gin.Context) {
	result, err := h.userService.ListAllUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}

// GET /fast/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.userService.ListUsers(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, result)
}

// GET /slow/users/search
func (h *UserHandler) SearchUsersByDate(c *gin.Context) {
	dateRange, ok := parseDateRange(c)
	if !ok {
		return
	}

	result, err := h.userService.SearchUsersByDate(c.Request.Context(), dateRange)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}

// GET /slow/users/:id/orders
func (h *UserHandler) GetUserOrdersNPlusOne(c *gin.Context) {
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	result, err := h.userService.GetUserOrdersNPlusOne(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}

// GET /fast/users/:id/orders
func (h *UserHandler) GetUserOrders(c *gin.Context) {
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	result, err := h.userService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}
