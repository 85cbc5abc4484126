package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meugestor/internal/clock"
	"meugestor/internal/logger"
	"meugestor/internal/services"
)

// maintenanceTimeout bounds one background tick.
const maintenanceTimeout = 5 * time.Minute

// MaintenanceHandler starts maintenance ticks on behalf of an external scheduler.
type MaintenanceHandler struct {
	maintenanceService services.MaintenanceServicer
	cal                *clock.Calendar
	background         func(func())
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(maintenanceService services.MaintenanceServicer, cal *clock.Calendar) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		cal:                cal,
		background:         func(fn func()) { go fn() },
	}
}

// TriggerTick runs a maintenance tick in the background
// @Summary     Run a maintenance tick
// @Description Generates due recurring reminders and sends pending notices. Returns immediately.
// @Tags        maintenance
// @Produce     json
// @Param       secret path string false "Cron secret (trigger route only)"
// @Success     202 {object} map[string]string "Started"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     403 {object} ErrorResponse "Invalid secret"
// @Router      /trigger/check-reminders/{secret} [get]
// @Router      /api/v1/internal/maintenance/tick [post]
func (h *MaintenanceHandler) TriggerTick(c *gin.Context) {
	requestID := c.GetString("requestID")
	now := h.cal.Now()

	h.background(func() {
		log := logger.Named("maintenance")
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		report, err := h.maintenanceService.RunMaintenanceTick(ctx, now)
		if err != nil {
			log.Errorw("maintenance tick failed", "request_id", requestID, "error", err)
			return
		}
		log.Infow("maintenance tick finished",
			"request_id", requestID,
			"skipped", report.Skipped,
			"engine", report.Engine,
			"scheduler", report.Scheduler,
			"duration", report.Duration.String(),
		)
	})

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Verificação e geração de lembretes iniciada.",
	})
}
