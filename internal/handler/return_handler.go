package handler

import (
	"net/http"

	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/api/returns")
	{
		returns.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.FileReturn)
		returns.POST("/:id/confirm-supplier", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ConfirmSupplier)
		returns.POST("/:id/approve", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ApproveReturn)
		returns.POST("/:id/reject", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.RejectReturn)
		returns.POST("/:id/complete", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CompleteReturn)
		returns.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetReturn)
		returns.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListReturns)
	}
}

// FileReturn files a defect or exchange return against a delivered order line
// @Summary      File return
// @Description  Validates the return window against the order date before accepting
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.FileReturnRequest  true  "File Return Payload"
// @Success      201      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/returns [post]
func (h *ReturnHandler) FileReturn(c *gin.Context) {
	var req service.FileReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	ret, err := h.returnService.File(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// ConfirmSupplier records the supplier's sign-off on a defect return
// @Summary      Confirm supplier
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/returns/{id}/confirm-supplier [post]
func (h *ReturnHandler) ConfirmSupplier(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	ret, err := h.returnService.ConfirmSupplier(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// ApproveReturn approves a pending return
// @Summary      Approve return
// @Description  Defect returns must have supplier confirmation first
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/returns/{id}/approve [post]
func (h *ReturnHandler) ApproveReturn(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	ret, err := h.returnService.Approve(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// RejectReturn rejects a pending return
// @Summary      Reject return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/returns/{id}/reject [post]
func (h *ReturnHandler) RejectReturn(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	ret, err := h.returnService.Reject(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// CompleteReturn executes an approved return's side effects
// @Summary      Complete return
// @Description  Restocks exchanges and issues credit for defect returns, exactly once
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/returns/{id}/complete [post]
func (h *ReturnHandler) CompleteReturn(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	ret, err := h.returnService.Complete(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// GetReturn retrieves a single return
// @Summary      Get return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ret, err := h.returnService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// ListReturns lists returns filtered by customer and status
// @Summary      List returns
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query  string  false  "Filter by customer"
// @Param        status       query  string  false  "Filter by status"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/returns [get]
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	page, limit := pageParams(c)
	customerID := optionalUUIDQuery(c, "customer_id")
	status := c.Query("status")

	returns, total, err := h.returnService.List(c.Request.Context(), customerID, status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"returns": returns,
		"total":   total,
		"page":    page,
		"limit":   limit,
	}))
}
