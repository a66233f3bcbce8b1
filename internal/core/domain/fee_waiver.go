package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WaiverType is derived from the waived amount against the original amount.
type WaiverType string

const (
	WaiverFull    WaiverType = "FULL"
	WaiverPartial WaiverType = "PARTIAL"
)

// WaiverStatus tracks the approval workflow. Only Pending waivers transition.
type WaiverStatus string

const (
	WaiverPending   WaiverStatus = "PENDING"
	WaiverApproved  WaiverStatus = "APPROVED"
	WaiverRejected  WaiverStatus = "REJECTED"
	WaiverCancelled WaiverStatus = "CANCELLED"
)

// FeeWaiver is a request to write off part or all of a charge.
type FeeWaiver struct {
	WaiverID        string          `json:"waiverID"`
	ChargeID        string          `json:"chargeID"`
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	WaivedAmount    decimal.Decimal `json:"waivedAmount"`
	WaiverType      WaiverType      `json:"waiverType"`
	Reason          string          `json:"reason"`
	Status          WaiverStatus    `json:"status"`
	RequestedBy     string          `json:"requestedBy"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	EntryID         string          `json:"entryID,omitempty"`
	AuditFields
}

// WaiverTypeFor derives the waiver type.
func WaiverTypeFor(original, waived decimal.Decimal) WaiverType {
	if waived.GreaterThanOrEqual(original) {
		return WaiverFull
	}
	return WaiverPartial
}

// NewFeeWaiver requests a waiver of amount against charge. The original
// amount is the charge's payable balance at request time.
func NewFeeWaiver(waiverID string, charge FeeCharge, amount decimal.Decimal, reason, userID string, now time.Time) (FeeWaiver, error) {
	if err := charge.checkWaivable(); err != nil {
		return FeeWaiver{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return FeeWaiver{}, ErrReasonRequired
	}
	original := charge.Payable()
	if !amount.IsPositive() || amount.GreaterThan(original) {
		return FeeWaiver{}, fmt.Errorf("%w: waiver %s exceeds payable balance %s", ErrInvalidAmount, amount.String(), original.String())
	}
	return FeeWaiver{
		WaiverID:       waiverID,
		ChargeID:       charge.ChargeID,
		OriginalAmount: original,
		WaivedAmount:   amount,
		WaiverType:     WaiverTypeFor(original, amount),
		Reason:         reason,
		Status:         WaiverPending,
		RequestedBy:    userID,
		AuditFields:    newAuditFields(userID, now),
	}, nil
}

// RemainingAmount is originalAmount - waivedAmount.
func (w FeeWaiver) RemainingAmount() decimal.Decimal {
	return w.OriginalAmount.Sub(w.WaivedAmount)
}

func (w FeeWaiver) checkPending() error {
	if w.Status != WaiverPending {
		return fmt.Errorf("%w: waiver %s is %s", ErrInvalidWaiverState, w.WaiverID, w.Status)
	}
	return nil
}

// Update changes amount or reason while the waiver is Pending.
func (w FeeWaiver) Update(amount *decimal.Decimal, reason *string, userID string, now time.Time) (FeeWaiver, error) {
	if err := w.checkPending(); err != nil {
		return w, err
	}
	next := w
	if amount != nil {
		if !amount.IsPositive() || amount.GreaterThan(w.OriginalAmount) {
			return w, fmt.Errorf("%w: waiver %s exceeds original amount %s", ErrInvalidAmount, amount.String(), w.OriginalAmount.String())
		}
		next.WaivedAmount = *amount
		next.WaiverType = WaiverTypeFor(w.OriginalAmount, *amount)
	}
	if reason != nil {
		if strings.TrimSpace(*reason) == "" {
			return w, ErrReasonRequired
		}
		next.Reason = *reason
	}
	next.AuditFields = w.AuditFields.touch(userID, now)
	return next, nil
}

// Approve moves a Pending waiver to Approved. The caller applies the waived
// amount to the charge with FeeCharge.ApplyWaiver in the same unit of work.
func (w FeeWaiver) Approve(approverID string, now time.Time) (FeeWaiver, []Event, error) {
	if err := w.checkPending(); err != nil {
		return w, nil, err
	}
	next := w
	next.Status = WaiverApproved
	next.ApprovedBy = approverID
	next.ApprovedAt = &now
	next.AuditFields = w.AuditFields.touch(approverID, now)
	return next, []Event{w.event(EventFeeWaiverApproved, now, map[string]any{"approvedBy": approverID})}, nil
}

// Reject closes a Pending waiver with a reason.
func (w FeeWaiver) Reject(userID, reason string, now time.Time) (FeeWaiver, []Event, error) {
	if err := w.checkPending(); err != nil {
		return w, nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return w, nil, ErrReasonRequired
	}
	next := w
	next.Status = WaiverRejected
	next.RejectionReason = reason
	next.AuditFields = w.AuditFields.touch(userID, now)
	return next, []Event{w.event(EventFeeWaiverRejected, now, map[string]any{"reason": reason})}, nil
}

// Cancel withdraws a Pending waiver.
func (w FeeWaiver) Cancel(userID string, now time.Time) (FeeWaiver, error) {
	if err := w.checkPending(); err != nil {
		return w, err
	}
	next := w
	next.Status = WaiverCancelled
	next.AuditFields = w.AuditFields.touch(userID, now)
	return next, nil
}

// DetachEntry clears the journal entry link after that entry was discarded unposted.
func (w FeeWaiver) DetachEntry(userID string, now time.Time) FeeWaiver {
	next := w
	next.EntryID = ""
	next.AuditFields = w.AuditFields.touch(userID, now)
	return next
}

func (w FeeWaiver) event(t EventType, now time.Time, extra map[string]any) Event {
	payload := map[string]any{
		"aggregateId":  w.WaiverID,
		"chargeId":     w.ChargeID,
		"waivedAmount": w.WaivedAmount.String(),
		"waiverType":   string(w.WaiverType),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return newEvent(t, aggregateFeeWaiver, w.WaiverID, now, payload)
}
