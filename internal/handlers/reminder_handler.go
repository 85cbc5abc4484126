package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meugestor/internal/clock"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
	"meugestor/internal/period"
	"meugestor/internal/services"
)

// ReminderHandler serves the dashboard's reminder list.
type ReminderHandler struct {
	reminderService services.ReminderServicer
	auditService    services.AuditServicer
	resolver        *period.Resolver
	cal             *clock.Calendar
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderService services.ReminderServicer, auditService services.AuditServicer, cal *clock.Calendar) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		auditService:    auditService,
		resolver:        period.NewResolver(cal),
		cal:             cal,
	}
}

// UpdateReminderRequest represents the request payload for editing a reminder.
type UpdateReminderRequest struct {
	Description *string `json:"description" binding:"omitempty,min=1,max=255"`
	DueDate     *string `json:"due_date"`
}

// GetReminders lists reminders in a period, or all pending ones when no period is given
// @Summary     List reminders
// @Tags        reminders
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "Period phrase (hoje, amanhã, 25/12/2024)"
// @Success     200 {array}  models.Reminder "Reminders"
// @Failure     400 {object} ErrorResponse "Unresolved period"
// @Router      /reminders [get]
func (h *ReminderHandler) GetReminders(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var reminders []models.Reminder
	if text := strings.TrimSpace(c.Query("period")); text != "" {
		iv, ok := h.resolver.Resolve(text, h.cal.Now(), period.Reminders)
		if !ok {
			respondWithError(c, apperrors.ErrPeriodUnresolved)
			return
		}
		reminders, err = h.reminderService.GetRemindersInInterval(userID, iv)
	} else {
		reminders, err = h.reminderService.GetPendingReminders(userID)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// UpdateReminder edits a reminder; moving its due date re-arms notifications
// @Summary     Update a reminder
// @Tags        reminders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Reminder ID"
// @Param       request body UpdateReminderRequest true "Fields to change"
// @Success     200 {object} models.Reminder "Updated reminder"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /reminders/{id} [put]
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	reminderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	due, err := optionalDate(h.cal, "due_date", req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reminder, err := h.reminderService.UpdateReminder(userID, reminderID, req.Description, due)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_REMINDER", "reminder", reminder.ID, c.ClientIP(),
		map[string]interface{}{"description": req.Description, "due_date": req.DueDate})

	c.JSON(http.StatusOK, gin.H{"reminder": reminder})
}

// DeleteReminder removes a reminder
// @Summary     Delete a reminder
// @Tags        reminders
// @Security    BearerAuth
// @Param       id path string true "Reminder ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /reminders/{id} [delete]
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	reminderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.reminderService.DeleteReminder(userID, reminderID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_REMINDER", "reminder", reminderID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Lembrete removido."})
}
