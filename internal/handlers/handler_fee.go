package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type feeHandler struct {
	feeService portssvc.FeeSvcFacade
}

// registerFeeRoutes registers fee charge, payment and waiver routes.
func registerFeeRoutes(rg *gin.RouterGroup, feeService portssvc.FeeSvcFacade) {
	h := &feeHandler{feeService: feeService}

	charges := rg.Group("/fee-charges")
	{
		charges.POST("", h.createCharge)
		charges.GET("", h.listCharges)
		charges.GET("/:id", h.getCharge)
		charges.POST("/:id/payments", h.recordPayment)
		charges.GET("/:id/payments", h.listPayments)
		charges.GET("/:id/waivers", h.listWaivers)
		charges.POST("/:id/waive", h.waiveCharge)
		charges.POST("/:id/reverse", h.reverseCharge)
	}

	rg.POST("/fee-payments/:id/reverse", h.reversePayment)

	waivers := rg.Group("/fee-waivers")
	{
		waivers.POST("", h.requestWaiver)
		waivers.GET("/:id", h.getWaiver)
		waivers.PUT("/:id", h.updateWaiver)
		waivers.POST("/:id/approve", h.approveWaiver)
		waivers.POST("/:id/reject", h.rejectWaiver)
		waivers.POST("/:id/cancel", h.cancelWaiver)
	}
}

// createCharge godoc
// @Summary Raise a fee charge
// @Description Creates the charge and posts Dr receivable / Cr fee income
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   charge body dto.CreateFeeChargeRequest true "Charge details"
// @Success 201 {object} dto.FeeChargeResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 422 {object} ErrorResponse "No open period for the charge date"
// @Security BearerAuth
// @Router /fee-charges [post]
func (h *feeHandler) createCharge(c *gin.Context) {
	var req dto.CreateFeeChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	charge, err := h.feeService.CreateCharge(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "create fee charge")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fee charge created",
		slog.String("charge_id", charge.ChargeID), slog.String("member_id", charge.MemberID))
	c.JSON(http.StatusCreated, dto.ToFeeChargeResponse(charge))
}

// listCharges godoc
// @Summary List a member's fee charges
// @Tags fees
// @Produce  json
// @Param   memberId query string true "Member ID"
// @Param   limit query int false "Page size" default(50)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.FeeChargeResponse
// @Security BearerAuth
// @Router /fee-charges [get]
func (h *feeHandler) listCharges(c *gin.Context) {
	var params dto.ListFeeChargesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	params.Limit = clampLimit(params.Limit, 50, 500)
	if params.Offset < 0 {
		params.Offset = 0
	}
	charges, err := h.feeService.ListChargesByMember(c.Request.Context(), params.MemberID, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "list fee charges")
		return
	}
	c.JSON(http.StatusOK, dto.ToListFeeChargeResponse(charges))
}

// getCharge godoc
// @Summary Get a fee charge
// @Tags fees
// @Produce  json
// @Param   id path string true "Charge ID"
// @Success 200 {object} dto.FeeChargeResponse
// @Failure 404 {object} ErrorResponse "Charge not found"
// @Security BearerAuth
// @Router /fee-charges/{id} [get]
func (h *feeHandler) getCharge(c *gin.Context) {
	charge, err := h.feeService.GetCharge(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get fee charge")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeChargeResponse(charge))
}

// recordPayment godoc
// @Summary Record a payment against a charge
// @Description Rejects amounts above the payable balance. Posts Dr cash / Cr receivable.
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   id path string true "Charge ID"
// @Param   payment body dto.RecordFeePaymentRequest true "Payment details"
// @Success 201 {object} dto.FeePaymentResponse
// @Failure 400 {object} ErrorResponse "Invalid amount"
// @Failure 409 {object} ErrorResponse "Charge does not accept payments"
// @Security BearerAuth
// @Router /fee-charges/{id}/payments [post]
func (h *feeHandler) recordPayment(c *gin.Context) {
	var req dto.RecordFeePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	payment, err := h.feeService.RecordPayment(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "record fee payment")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fee payment recorded",
		slog.String("payment_id", payment.PaymentID), slog.String("charge_id", payment.ChargeID))
	c.JSON(http.StatusCreated, dto.ToFeePaymentResponse(payment))
}

// listPayments godoc
// @Summary List payments of a charge
// @Tags fees
// @Produce  json
// @Param   id path string true "Charge ID"
// @Success 200 {array} dto.FeePaymentResponse
// @Security BearerAuth
// @Router /fee-charges/{id}/payments [get]
func (h *feeHandler) listPayments(c *gin.Context) {
	payments, err := h.feeService.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "list fee payments")
		return
	}
	c.JSON(http.StatusOK, dto.ToListFeePaymentResponse(payments))
}

// listWaivers godoc
// @Summary List waivers of a charge
// @Tags fees
// @Produce  json
// @Param   id path string true "Charge ID"
// @Success 200 {array} dto.FeeWaiverResponse
// @Security BearerAuth
// @Router /fee-charges/{id}/waivers [get]
func (h *feeHandler) listWaivers(c *gin.Context) {
	waivers, err := h.feeService.ListWaivers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "list fee waivers")
		return
	}
	c.JSON(http.StatusOK, dto.ToListFeeWaiverResponse(waivers))
}

// waiveCharge godoc
// @Summary Waive the payable balance of a charge
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   id path string true "Charge ID"
// @Param   body body dto.ReasonRequest true "Waiver reason"
// @Success 200 {object} dto.FeeChargeResponse
// @Failure 409 {object} ErrorResponse "Charge cannot be waived"
// @Security BearerAuth
// @Router /fee-charges/{id}/waive [post]
func (h *feeHandler) waiveCharge(c *gin.Context) {
	h.chargeWithReason(c, "waive fee charge", h.feeService.WaiveCharge)
}

// reverseCharge godoc
// @Summary Reverse a fee charge
// @Description Reverses the charge posting and any waiver postings. Payments must be reversed first.
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   id path string true "Charge ID"
// @Param   body body dto.ReasonRequest true "Reversal reason"
// @Success 200 {object} dto.FeeChargeResponse
// @Failure 409 {object} ErrorResponse "Charge has payments or is already reversed"
// @Security BearerAuth
// @Router /fee-charges/{id}/reverse [post]
func (h *feeHandler) reverseCharge(c *gin.Context) {
	h.chargeWithReason(c, "reverse fee charge", h.feeService.ReverseCharge)
}

func (h *feeHandler) chargeWithReason(c *gin.Context, action string,
	fn func(ctx context.Context, chargeID, reason, userID string) (*domain.FeeCharge, error)) {
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	charge, err := fn(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondError(c, err, action)
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeChargeResponse(charge))
}

// reversePayment godoc
// @Summary Reverse a fee payment
// @Description Reverses the payment posting and rolls the charge back
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   body body dto.ReasonRequest true "Reversal reason"
// @Success 200 {object} dto.FeePaymentResponse
// @Failure 409 {object} ErrorResponse "Charge is waived or reversed"
// @Security BearerAuth
// @Router /fee-payments/{id}/reverse [post]
func (h *feeHandler) reversePayment(c *gin.Context) {
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	payment, err := h.feeService.ReversePayment(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondError(c, err, "reverse fee payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeePaymentResponse(payment))
}

// requestWaiver godoc
// @Summary Request a fee waiver
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   waiver body dto.CreateFeeWaiverRequest true "Waiver details"
// @Success 201 {object} dto.FeeWaiverResponse
// @Failure 400 {object} ErrorResponse "Invalid amount"
// @Security BearerAuth
// @Router /fee-waivers [post]
func (h *feeHandler) requestWaiver(c *gin.Context) {
	var req dto.CreateFeeWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	waiver, err := h.feeService.RequestWaiver(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "request fee waiver")
		return
	}
	c.JSON(http.StatusCreated, dto.ToFeeWaiverResponse(waiver))
}

// getWaiver godoc
// @Summary Get a fee waiver
// @Tags fees
// @Produce  json
// @Param   id path string true "Waiver ID"
// @Success 200 {object} dto.FeeWaiverResponse
// @Failure 404 {object} ErrorResponse "Waiver not found"
// @Security BearerAuth
// @Router /fee-waivers/{id} [get]
func (h *feeHandler) getWaiver(c *gin.Context) {
	waiver, err := h.feeService.GetWaiver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get fee waiver")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeWaiverResponse(waiver))
}

// updateWaiver godoc
// @Summary Update a pending fee waiver
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   id path string true "Waiver ID"
// @Param   waiver body dto.UpdateFeeWaiverRequest true "Fields to change"
// @Success 200 {object} dto.FeeWaiverResponse
// @Failure 409 {object} ErrorResponse "Waiver is not pending"
// @Security BearerAuth
// @Router /fee-waivers/{id} [put]
func (h *feeHandler) updateWaiver(c *gin.Context) {
	var req dto.UpdateFeeWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	waiver, err := h.feeService.UpdateWaiver(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "update fee waiver")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeWaiverResponse(waiver))
}

// approveWaiver godoc
// @Summary Approve a pending fee waiver
// @Description Applies the waived amount to the charge and posts it
// @Tags fees
// @Produce  json
// @Param   id path string true "Waiver ID"
// @Success 200 {object} dto.FeeWaiverResponse
// @Failure 409 {object} ErrorResponse "Waiver is not pending"
// @Security BearerAuth
// @Router /fee-waivers/{id}/approve [post]
func (h *feeHandler) approveWaiver(c *gin.Context) {
	h.waiverTransition(c, "approve fee waiver", h.feeService.ApproveWaiver)
}

// rejectWaiver godoc
// @Summary Reject a pending fee waiver
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   id path string true "Waiver ID"
// @Param   body body dto.ReasonRequest true "Rejection reason"
// @Success 200 {object} dto.FeeWaiverResponse
// @Failure 409 {object} ErrorResponse "Waiver is not pending"
// @Security BearerAuth
// @Router /fee-waivers/{id}/reject [post]
func (h *feeHandler) rejectWaiver(c *gin.Context) {
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.waiverTransition(c, "reject fee waiver", func(ctx context.Context, waiverID, userID string) (*domain.FeeWaiver, error) {
		return h.feeService.RejectWaiver(ctx, waiverID, req.Reason, userID)
	})
}

// cancelWaiver godoc
// @Summary Cancel a pending fee waiver
// @Tags fees
// @Produce  json
// @Param   id path string true "Waiver ID"
// @Success 200 {object} dto.FeeWaiverResponse
// @Failure 409 {object} ErrorResponse "Waiver is not pending"
// @Security BearerAuth
// @Router /fee-waivers/{id}/cancel [post]
func (h *feeHandler) cancelWaiver(c *gin.Context) {
	h.waiverTransition(c, "cancel fee waiver", h.feeService.CancelWaiver)
}

func (h *feeHandler) waiverTransition(c *gin.Context, action string,
	fn func(ctx context.Context, waiverID, userID string) (*domain.FeeWaiver, error)) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	waiver, err := fn(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, action)
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeWaiverResponse(waiver))
}
