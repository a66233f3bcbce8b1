package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

// registerLoanRoutes registers disbursement, schedule and repayment routes.
func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := &loanHandler{loanService: loanService}

	loans := rg.Group("/loans/:loanId")
	{
		loans.POST("/disbursements", h.disburse)
		loans.GET("/schedule", h.getSchedule)
		loans.POST("/repayments", h.recordRepayment)
		loans.GET("/repayments", h.listRepayments)
	}
}

// disburse godoc
// @Summary Disburse a loan
// @Description Stores the repayment schedule and posts Dr loan portfolio / Cr cash. A loan is disbursed once.
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loanId path string true "Loan ID"
// @Param   disbursement body dto.DisburseLoanRequest true "Amount and schedule"
// @Success 201 {object} dto.LoanDisbursementResponse
// @Failure 400 {object} ErrorResponse "Invalid schedule"
// @Failure 409 {object} ErrorResponse "Loan already disbursed"
// @Security BearerAuth
// @Router /loans/{loanId}/disbursements [post]
func (h *loanHandler) disburse(c *gin.Context) {
	var req dto.DisburseLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	disbursement, schedule, err := h.loanService.DisburseLoan(c.Request.Context(), c.Param("loanId"), req, userID)
	if err != nil {
		respondError(c, err, "disburse loan")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Loan disbursed",
		slog.String("loan_id", disbursement.LoanID), slog.Int("installments", len(schedule)))
	c.JSON(http.StatusCreated, dto.ToLoanDisbursementResponse(disbursement, schedule))
}

// getSchedule godoc
// @Summary Get a loan's repayment schedule
// @Tags loans
// @Produce  json
// @Param   loanId path string true "Loan ID"
// @Success 200 {array} dto.LoanScheduleResponse
// @Security BearerAuth
// @Router /loans/{loanId}/schedule [get]
func (h *loanHandler) getSchedule(c *gin.Context) {
	schedule, err := h.loanService.GetSchedule(c.Request.Context(), c.Param("loanId"))
	if err != nil {
		respondError(c, err, "get loan schedule")
		return
	}
	c.JSON(http.StatusOK, dto.ToLoanScheduleResponse(schedule))
}

// recordRepayment godoc
// @Summary Record a loan repayment
// @Description Allocates the total across unpaid installments oldest due first
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loanId path string true "Loan ID"
// @Param   repayment body dto.RecordRepaymentRequest true "Repayment components"
// @Success 201 {object} dto.LoanRepaymentResponse
// @Failure 400 {object} ErrorResponse "Total exceeds the remaining schedule"
// @Failure 422 {object} ErrorResponse "No open period for the repayment date"
// @Security BearerAuth
// @Router /loans/{loanId}/repayments [post]
func (h *loanHandler) recordRepayment(c *gin.Context) {
	var req dto.RecordRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	repayment, err := h.loanService.RecordRepayment(c.Request.Context(), c.Param("loanId"), req, userID)
	if err != nil {
		respondError(c, err, "record loan repayment")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Loan repayment recorded",
		slog.String("loan_id", repayment.LoanID), slog.String("repayment_id", repayment.RepaymentID))
	c.JSON(http.StatusCreated, dto.ToLoanRepaymentResponse(repayment))
}

// listRepayments godoc
// @Summary List a loan's repayments
// @Tags loans
// @Produce  json
// @Param   loanId path string true "Loan ID"
// @Success 200 {array} dto.LoanRepaymentResponse
// @Security BearerAuth
// @Router /loans/{loanId}/repayments [get]
func (h *loanHandler) listRepayments(c *gin.Context) {
	repayments, err := h.loanService.ListRepayments(c.Request.Context(), c.Param("loanId"))
	if err != nil {
		respondError(c, err, "list loan repayments")
		return
	}
	c.JSON(http.StatusOK, dto.ToListLoanRepaymentResponse(repayments))
}
