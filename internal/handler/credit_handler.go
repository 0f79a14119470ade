package handler

import (
	"net/http"
	"time"

	"github.com/prontto/backend/internal/middleware"
	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/service"
	"github.com/prontto/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	creditService service.CreditService
}

func NewCreditHandler(creditService service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

func (h *CreditHandler) RegisterRoutes(router *gin.RouterGroup) {
	credit := router.Group("/api/credit-notes")
	{
		credit.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.IssueCreditNote)
		credit.POST("/expire-sweep", middleware.RequireRole(model.RoleAdmin), h.ExpireSweep)
		credit.GET("/balance/:customer_id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetBalance)
		credit.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetCreditNote)
		credit.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListCreditNotes)
	}
}

// IssueCreditNote issues a credit or debit note for a customer
// @Summary      Issue credit note
// @Description  Issues a note valid for 60 days from now
// @Tags         credit
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueCreditNoteRequest  true  "Issue Credit Note Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/credit-notes [post]
func (h *CreditHandler) IssueCreditNote(c *gin.Context) {
	var req service.IssueCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	note, err := h.creditService.Issue(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, note))
}

// GetBalance returns the customer's spendable credit balance
// @Summary      Get credit balance
// @Tags         credit
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Router       /api/credit-notes/balance/{customer_id} [get]
func (h *CreditHandler) GetBalance(c *gin.Context) {
	customerID, ok := pathUUID(c, "customer_id")
	if !ok {
		return
	}

	balance, err := h.creditService.Balance(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"customer_id": customerID,
		"balance":     balance,
	}))
}

// ExpireSweep marks every overdue active note as expired
// @Summary      Expire overdue credit notes
// @Description  Bulk-flips active notes past their expiry; intended to be hit by a scheduler
// @Tags         credit
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/credit-notes/expire-sweep [post]
func (h *CreditHandler) ExpireSweep(c *gin.Context) {
	userID := c.GetString("userID")
	expired, err := h.creditService.ExpireSweep(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"expired": expired,
	}))
}

// GetCreditNote retrieves a single note
// @Summary      Get credit note
// @Tags         credit
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Credit Note ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/credit-notes/{id} [get]
func (h *CreditHandler) GetCreditNote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	note, err := h.creditService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, note))
}

// ListCreditNotes lists notes filtered by customer and status
// @Summary      List credit notes
// @Tags         credit
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id  query  string  false  "Filter by customer"
// @Param        status       query  string  false  "Filter by status (ACTIVE/APPLIED/EXPIRED)"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/credit-notes [get]
func (h *CreditHandler) ListCreditNotes(c *gin.Context) {
	page, limit := pageParams(c)
	customerID := optionalUUIDQuery(c, "customer_id")
	status := c.Query("status")

	notes, total, err := h.creditService.List(c.Request.Context(), customerID, status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"credit_notes": notes,
		"total":        total,
		"page":         page,
		"limit":        limit,
	}))
}
