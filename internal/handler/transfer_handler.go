package handler

import (
	"net/http"

	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api/transfers")
	{
		transfers.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateTransfer)
		transfers.POST("/:id/complete", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CompleteTransfer)
		transfers.POST("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CancelTransfer)
		transfers.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetTransfer)
		transfers.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListTransfers)
	}
}

// CreateTransfer registers a pending stock transfer between two stores
// @Summary      Create transfer
// @Description  Creates a pending transfer; stock does not move until completion
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTransferRequest  true  "Create Transfer Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	transfer, err := h.transferService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transfer))
}

// CompleteTransfer executes a pending transfer atomically
// @Summary      Complete transfer
// @Description  Moves every line's stock from source to destination in one transaction
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/complete [post]
func (h *TransferHandler) CompleteTransfer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	transfer, err := h.transferService.Complete(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// CancelTransfer cancels a still-pending transfer
// @Summary      Cancel transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := c.GetString("userID")
	transfer, err := h.transferService.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// GetTransfer retrieves a transfer with its lines
// @Summary      Get transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transferService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ListTransfers lists transfers optionally filtered by status
// @Summary      List transfers
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status (PENDING/COMPLETED/CANCELLED)"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	page, limit := pageParams(c)
	status := c.Query("status")

	transfers, total, err := h.transferService.List(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"total":     total,
		"page":      page,
		"limit":     limit,
	}))
}
