package handler

import (
	"net/http"

	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.POST("/register", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.RegisterStock)
		stock.GET("/records", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListRecords)
		stock.GET("/movements", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListMovements)
		stock.GET("/:store_id/:product_id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetStock)
	}
}

// RegisterStock adds received goods to a store's inventory
// @Summary      Register stock
// @Description  Adds a positive quantity of a product to a store, creating the inventory record on first sight
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterStockRequest  true  "Register Stock Payload"
// @Success      201      {object}  response.Response{data=service.InventoryRecordResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/stock/register [post]
func (h *StockHandler) RegisterStock(c *gin.Context) {
	var req service.RegisterStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	record, err := h.stockService.RegisterStock(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// GetStock returns the on-hand quantity for one store/product pair
// @Summary      Get stock level
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id    path      string  true  "Store ID"
// @Param        product_id  path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/stock/{store_id}/{product_id} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	storeID, ok := pathUUID(c, "store_id")
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	qty, err := h.stockService.Get(c.Request.Context(), storeID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"store_id":   storeID,
		"product_id": productID,
		"quantity":   qty,
	}))
}

// ListRecords lists per-store inventory records
// @Summary      List inventory records
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query  string  false  "Filter by store"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        limit     query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/stock/records [get]
func (h *StockHandler) ListRecords(c *gin.Context) {
	page, limit := pageParams(c)
	storeID := optionalUUIDQuery(c, "store_id")

	records, total, err := h.stockService.ListRecords(c.Request.Context(), storeID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
		"page":    page,
		"limit":   limit,
	}))
}

// ListMovements lists the append-only stock movement trail
// @Summary      List stock movements
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        store_id    query  string  false  "Filter by store"
// @Param        product_id  query  string  false  "Filter by product"
// @Param        page        query  int     false  "Page number (default 1)"
// @Param        limit       query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	page, limit := pageParams(c)
	storeID := optionalUUIDQuery(c, "store_id")
	productID := optionalUUIDQuery(c, "product_id")

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), storeID, productID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      page,
		"limit":     limit,
	}))
}
