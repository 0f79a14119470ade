package handler

import (
	"net/http"

	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DirectoryHandler struct {
	directoryService service.DirectoryService
}

func NewDirectoryHandler(directoryService service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

func (h *DirectoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	directory := router.Group("/api")
	{
		directory.POST("/customers", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateCustomer)
		directory.PUT("/customers/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateCustomer)
		directory.GET("/customers/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetCustomer)
		directory.GET("/customers", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListCustomers)

		directory.POST("/suppliers", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateSupplier)
		directory.GET("/suppliers/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetSupplier)
		directory.GET("/suppliers", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListSuppliers)
	}
}

// CreateCustomer registers a new customer
// @Summary      Create customer
// @Tags         directory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCustomerRequest  true  "Create Customer Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *DirectoryHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.directoryService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// UpdateCustomer updates customer directory data
// @Summary      Update customer
// @Tags         directory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Customer ID"
// @Param        payload  body      service.UpdateCustomerRequest  true  "Update Customer Payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/customers/{id} [put]
func (h *DirectoryHandler) UpdateCustomer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.directoryService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// GetCustomer retrieves a customer with their credit balance
// @Summary      Get customer
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=service.CustomerDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *DirectoryHandler) GetCustomer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.directoryService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// ListCustomers lists customers
// @Summary      List customers
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Param        search  query  string  false  "Search by name"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/customers [get]
func (h *DirectoryHandler) ListCustomers(c *gin.Context) {
	page, limit := pageParams(c)
	search := c.Query("search")

	customers, total, err := h.directoryService.ListCustomers(c.Request.Context(), page, limit, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     total,
		"page":      page,
		"limit":     limit,
	}))
}

// CreateSupplier registers a new supplier
// @Summary      Create supplier
// @Tags         directory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSupplierRequest  true  "Create Supplier Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/suppliers [post]
func (h *DirectoryHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.directoryService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// GetSupplier retrieves a supplier
// @Summary      Get supplier
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *DirectoryHandler) GetSupplier(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	supplier, err := h.directoryService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// ListSuppliers lists suppliers
// @Summary      List suppliers
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/suppliers [get]
func (h *DirectoryHandler) ListSuppliers(c *gin.Context) {
	page, limit := pageParams(c)

	suppliers, total, err := h.directoryService.ListSuppliers(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"total":     total,
		"page":      page,
		"limit":     limit,
	}))
}
