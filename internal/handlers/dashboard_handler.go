package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meugestor/internal/clock"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/period"
	"meugestor/internal/services"
)

// defaultSummaryPeriod is used when the dashboard asks for a summary without a period.
const defaultSummaryPeriod = "este mês"

// DashboardHandler serves the dashboard snapshot and period summaries.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
	ledgerService    services.LedgerServicer
	resolver         *period.Resolver
	cal              *clock.Calendar
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer, ledgerService services.LedgerServicer, cal *clock.Calendar) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		ledgerService:    ledgerService,
		resolver:         period.NewResolver(cal),
		cal:              cal,
	}
}

// SummaryQuery holds the summary query parameters.
type SummaryQuery struct {
	Period   string `form:"period" binding:"max=100"`
	Kind     string `form:"kind" binding:"omitempty,oneof=expense income"`
	Category string `form:"category" binding:"max=100"`
}

// GetData returns everything the dashboard loads on start
// @Summary     Dashboard snapshot
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardData "Snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /data [get]
func (h *DashboardHandler) GetData(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.dashboardService.GetData(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetSummary summarizes expenses or incomes over a period phrase
// @Summary     Period summary
// @Description Resolve a pt-BR/en period phrase ("este mês", "últimos 10 dias") and total the ledger over it
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       period   query string false "Period phrase (default: este mês)"
// @Param       kind     query string false "expense or income (default: expense)"
// @Param       category query string false "Expense category filter"
// @Success     200 {object} services.LedgerSummary "Summary"
// @Failure     400 {object} ErrorResponse "Unresolved period"
// @Router      /summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	kind, ok := services.ParseEntryKind(q.Kind)
	if !ok {
		respondWithError(c, apperrors.ErrInvalidEntryKind)
		return
	}
	text := strings.TrimSpace(q.Period)
	if text == "" {
		text = defaultSummaryPeriod
	}

	iv, ok := h.resolver.Resolve(text, h.cal.Now(), period.Summary)
	if !ok {
		respondWithError(c, apperrors.ErrPeriodUnresolved)
		return
	}

	summary, err := h.ledgerService.Summarize(userID, iv, kind, q.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": text, "summary": summary})
}
