package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
	"meugestor/internal/services"
)

// PlanningHandler serves planned bills and their monthly statuses.
type PlanningHandler struct {
	plannedService services.PlannedExpenseServicer
	auditService   services.AuditServicer
}

// NewPlanningHandler creates a new PlanningHandler.
func NewPlanningHandler(plannedService services.PlannedExpenseServicer, auditService services.AuditServicer) *PlanningHandler {
	return &PlanningHandler{plannedService: plannedService, auditService: auditService}
}

// CreatePlannedExpenseRequest represents the request payload for a new planned bill.
type CreatePlannedExpenseRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	DueDay int    `json:"dueDay" binding:"required,min=1,max=31"`
}

// UpdatePlannedExpenseRequest represents the request payload for editing a planned bill.
type UpdatePlannedExpenseRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	DueDay *int    `json:"dueDay" binding:"omitempty,min=1,max=31"`
}

// SetPlannedStatusRequest sets the status label of one civil month.
type SetPlannedStatusRequest struct {
	MonthKey string `json:"month_key" binding:"required,month_key"`
	Status   string `json:"status" binding:"required,planned_status"`
}

// GetPlannedExpenses lists the user's planned bills
// @Summary     List planned expenses
// @Tags        planning
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.PlannedExpense "Planned expenses"
// @Router      /planning [get]
func (h *PlanningHandler) GetPlannedExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planned, err := h.plannedService.GetUserPlannedExpenses(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if planned == nil {
		planned = []models.PlannedExpense{}
	}
	c.JSON(http.StatusOK, gin.H{"planned_expenses": planned})
}

// CreatePlannedExpense adds a planned bill
// @Summary     Create a planned expense
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePlannedExpenseRequest true "Planned bill"
// @Success     201 {object} models.PlannedExpense "Created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /planning [post]
func (h *PlanningHandler) CreatePlannedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePlannedExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	planned, err := h.plannedService.CreatePlannedExpense(userID, req.Name, req.DueDay)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PLANNED_EXPENSE", "planned_expense", planned.ID, c.ClientIP(),
		map[string]interface{}{"name": planned.Name, "due_day": planned.DueDay})

	c.JSON(http.StatusCreated, gin.H{"planned_expense": planned})
}

// UpdatePlannedExpense edits a planned bill
// @Summary     Update a planned expense
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                      true "Planned expense ID"
// @Param       request body UpdatePlannedExpenseRequest true "Fields to change"
// @Success     200 {object} models.PlannedExpense "Updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /planning/{id} [put]
func (h *PlanningHandler) UpdatePlannedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	plannedID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePlannedExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	planned, err := h.plannedService.UpdatePlannedExpense(userID, plannedID, req.Name, req.DueDay)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PLANNED_EXPENSE", "planned_expense", planned.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "due_day": req.DueDay})

	c.JSON(http.StatusOK, gin.H{"planned_expense": planned})
}

// SetPlannedStatus records a month's status for a planned bill
// @Summary     Set a monthly status
// @Tags        planning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Planned expense ID"
// @Param       request body SetPlannedStatusRequest true "Month and status"
// @Success     200 {object} models.PlannedExpense "Updated"
// @Failure     400 {object} ErrorResponse "Invalid month or status"
// @Router      /planning/{id}/status [put]
func (h *PlanningHandler) SetPlannedStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	plannedID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetPlannedStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	planned, err := h.plannedService.SetStatus(userID, plannedID, req.MonthKey, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_PLANNED_STATUS", "planned_expense", planned.ID, c.ClientIP(),
		map[string]interface{}{"month_key": req.MonthKey, "status": req.Status})

	c.JSON(http.StatusOK, gin.H{"planned_expense": planned})
}

// DeletePlannedExpense removes a planned bill
// @Summary     Delete a planned expense
// @Tags        planning
// @Security    BearerAuth
// @Param       id path string true "Planned expense ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /planning/{id} [delete]
func (h *PlanningHandler) DeletePlannedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	plannedID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.plannedService.DeletePlannedExpense(userID, plannedID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PLANNED_EXPENSE", "planned_expense", plannedID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Conta planejada removida."})
}
