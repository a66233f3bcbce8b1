package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

// registerPeriodRoutes registers the accounting period calendar routes.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := &periodHandler{periodService: periodService}

	periods := rg.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.GET("/resolve", h.resolvePeriod)
		periods.GET("/:id", h.getPeriod)
		periods.PUT("/:id", h.updatePeriod)
		periods.POST("/:id/close", h.closePeriod)
		periods.POST("/:id/reopen", h.reopenPeriod)
		periods.POST("/:id/lock", h.lockPeriod)
	}
}

// createPeriod godoc
// @Summary Create an accounting period
// @Description Periods are inclusive date ranges and may not overlap
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   period body dto.CreatePeriodRequest true "Period details"
// @Success 201 {object} dto.PeriodResponse
// @Failure 400 {object} ErrorResponse "Invalid range or overlap"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /periods [post]
func (h *periodHandler) createPeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "create period")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

// listPeriods godoc
// @Summary List accounting periods
// @Tags periods
// @Produce  json
// @Param   fiscalYear query int false "Only periods of this fiscal year"
// @Success 200 {array} dto.PeriodResponse
// @Security BearerAuth
// @Router /periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	var params dto.ListPeriodsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	periods, err := h.periodService.ListPeriods(c.Request.Context(), params.FiscalYear)
	if err != nil {
		respondError(c, err, "list periods")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPeriodResponse(periods))
}

// resolvePeriod godoc
// @Summary Find the period covering a date
// @Tags periods
// @Produce  json
// @Param   date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.PeriodResponse
// @Failure 422 {object} ErrorResponse "No period covers the date"
// @Security BearerAuth
// @Router /periods/resolve [get]
func (h *periodHandler) resolvePeriod(c *gin.Context) {
	var params dto.ResolvePeriodParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	if params.Date.IsZero() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date query parameter is required"})
		return
	}
	period, err := h.periodService.ResolvePeriod(c.Request.Context(), params.Date)
	if err != nil {
		respondError(c, err, "resolve period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// getPeriod godoc
// @Summary Get an accounting period
// @Tags periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} dto.PeriodResponse
// @Failure 404 {object} ErrorResponse "Period not found"
// @Security BearerAuth
// @Router /periods/{id} [get]
func (h *periodHandler) getPeriod(c *gin.Context) {
	period, err := h.periodService.GetPeriodByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// updatePeriod godoc
// @Summary Update an open period
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   id path string true "Period ID"
// @Param   period body dto.UpdatePeriodRequest true "Fields to change"
// @Success 200 {object} dto.PeriodResponse
// @Failure 409 {object} ErrorResponse "Period is not open"
// @Security BearerAuth
// @Router /periods/{id} [put]
func (h *periodHandler) updatePeriod(c *gin.Context) {
	var req dto.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	period, err := h.periodService.UpdatePeriod(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "update period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// closePeriod godoc
// @Summary Close a period
// @Description Snapshots the transaction count and computes the closing balance unless one is supplied
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   id path string true "Period ID"
// @Param   body body dto.ClosePeriodRequest false "Optional closing balance"
// @Success 200 {object} dto.PeriodResponse
// @Failure 409 {object} ErrorResponse "Already closed or locked"
// @Security BearerAuth
// @Router /periods/{id}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	var req dto.ClosePeriodRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	period, err := h.periodService.ClosePeriod(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "close period")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period closed", slog.String("period_id", period.PeriodID))
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// reopenPeriod godoc
// @Summary Reopen a closed period
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   id path string true "Period ID"
// @Param   body body dto.ReasonRequest true "Reopen reason"
// @Success 200 {object} dto.PeriodResponse
// @Failure 409 {object} ErrorResponse "Period is not closed or is locked"
// @Security BearerAuth
// @Router /periods/{id}/reopen [post]
func (h *periodHandler) reopenPeriod(c *gin.Context) {
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	period, err := h.periodService.ReopenPeriod(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondError(c, err, "reopen period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// lockPeriod godoc
// @Summary Lock a closed period
// @Description Locked periods can never be reopened
// @Tags periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} dto.PeriodResponse
// @Failure 409 {object} ErrorResponse "Period is not closed or already locked"
// @Security BearerAuth
// @Router /periods/{id}/lock [post]
func (h *periodHandler) lockPeriod(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	period, err := h.periodService.LockPeriod(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "lock period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}
