package handler

import (
	"net/http"

	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.CreateOrder)
		orders.POST("/:id/deliver", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.DeliverPartial)
		orders.POST("/:id/finalize", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.FinalizeOrder)
		orders.POST("/:id/apply-credit", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ApplyCredit)
		orders.POST("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CancelOrder)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetOrder)
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListOrders)
	}
}

// CreateOrder registers a new customer order
// @Summary      Create order
// @Description  Creates a pending order; stock is only decremented when deliveries happen
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	order, err := h.orderService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// DeliverPartial records a delivery, splitting off an order for any remainder
// @Summary      Deliver order lines
// @Description  Decrements stock for delivered quantities, issues a ticket, and splits the undelivered remainder into a child order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Order ID"
// @Param        payload  body      service.DeliverPartialRequest  true  "Delivery Payload"
// @Success      200      {object}  response.Response{data=service.DeliveryResult}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/deliver [post]
func (h *OrderHandler) DeliverPartial(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.DeliverPartialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	result, err := h.orderService.DeliverPartial(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// FinalizeOrder closes a fully delivered order into a sale
// @Summary      Finalize order
// @Description  Idempotently finalizes a fully delivered order and records the sale
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/finalize [post]
func (h *OrderHandler) FinalizeOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	order, err := h.orderService.Finalize(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ApplyCredit spends the customer's credit notes against the order balance
// @Summary      Apply credit
// @Description  Consumes active credit notes oldest-expiry-first against the order's outstanding total
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.ApplyCreditRequest  true  "Apply Credit Payload"
// @Success      200      {object}  response.Response{data=service.ApplyCreditResult}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/apply-credit [post]
func (h *OrderHandler) ApplyCredit(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.ApplyCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	result, err := h.orderService.ApplyCredit(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CancelOrder cancels a non-finalized order
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	order, err := h.orderService.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetOrder retrieves an order with its lines
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListOrders lists orders filtered by customer and status
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query  string  false  "Filter by customer"
// @Param        status       query  string  false  "Filter by status"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, limit := pageParams(c)
	customerID := optionalUUIDQuery(c, "customer_id")
	status := c.Query("status")

	orders, total, err := h.orderService.List(c.Request.Context(), customerID, status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	}))
}
