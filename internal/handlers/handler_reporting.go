package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests related to financial reports
type reportingHandler struct {
	reportingService portssvc.ReportingService
	eventService     portssvc.EventQuerySvc
}

// registerReportingRoutes registers report and event read-back routes
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService, eventService portssvc.EventQuerySvc) {
	h := &reportingHandler{reportingService: reportingService, eventService: eventService}

	rg.GET("/reports/trial-balance", h.getTrialBalance)
	rg.GET("/events", h.listEvents)
}

// getTrialBalance godoc
// @Summary Generate trial balance report
// @Description Sums posted lines per account up to and including asOf
// @Tags reports
// @Produce json
// @Param asOf query string false "Report date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.TrialBalanceResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Failed to build trial balance"
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	var params dto.TrialBalanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	asOf := time.Now().UTC()
	if params.AsOf != nil && !params.AsOf.IsZero() {
		asOf = *params.AsOf
	}

	tb, err := h.reportingService.GetTrialBalance(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err, "build trial balance")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Trial balance generated",
		slog.String("as_of", asOf.Format(time.DateOnly)), slog.Bool("balanced", tb.IsBalanced))
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(tb))
}

// listEvents godoc
// @Summary Read delivered domain events
// @Description Events are read back from the event store in append order
// @Tags events
// @Produce json
// @Param aggregateId query string false "Only events of this aggregate"
// @Param type query []string false "Only these event types" collectionFormat(multi)
// @Success 200 {array} dto.EventResponse
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Security BearerAuth
// @Router /events [get]
func (h *reportingHandler) listEvents(c *gin.Context) {
	var params dto.ListEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	events, err := h.eventService.ListEvents(c.Request.Context(), params.AggregateID, params.Types)
	if err != nil {
		respondError(c, err, "list events")
		return
	}
	c.JSON(http.StatusOK, dto.ToEventResponses(events))
}
