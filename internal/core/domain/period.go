package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType is the granularity of an accounting period.
type PeriodType string

const (
	PeriodMonth   PeriodType = "MONTH"
	PeriodQuarter PeriodType = "QUARTER"
	PeriodYear    PeriodType = "YEAR"
)

// IsValid reports whether t is a known period type.
func (t PeriodType) IsValid() bool {
	return t == PeriodMonth || t == PeriodQuarter || t == PeriodYear
}

// PeriodStatus is the posting state of a period: Open -> Closed -> Locked, Closed -> Open allowed.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
	PeriodLocked PeriodStatus = "LOCKED"
)

const (
	minFiscalYear = 1900
	maxFiscalYear = 2100
)

// AccountingPeriod is an inclusive date range that gates postings.
type AccountingPeriod struct {
	PeriodID                string           `json:"periodID"`
	Name                    string           `json:"name"`
	StartDate               time.Time        `json:"startDate"`
	EndDate                 time.Time        `json:"endDate"`
	PeriodType              PeriodType       `json:"periodType"`
	FiscalYear              int              `json:"fiscalYear"`
	PeriodNumber            int              `json:"periodNumber"`
	IsAdjustmentPeriod      bool             `json:"isAdjustmentPeriod"`
	Status                  PeriodStatus     `json:"status"`
	TransactionCount        int64            `json:"transactionCount"`
	ClosingTransactionCount *int64           `json:"closingTransactionCount,omitempty"`
	ClosingBalance          *decimal.Decimal `json:"closingBalance,omitempty"`
	ClosedAt                *time.Time       `json:"closedAt,omitempty"`
	ClosedBy                string           `json:"closedBy,omitempty"`
	LockedAt                *time.Time       `json:"lockedAt,omitempty"`
	LockedBy                string           `json:"lockedBy,omitempty"`
	ReopenReason            string           `json:"reopenReason,omitempty"`
	AuditFields
}

// NewPeriodParams carries the inputs for a new period.
type NewPeriodParams struct {
	PeriodID           string
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	PeriodType         PeriodType
	FiscalYear         int
	PeriodNumber       int
	IsAdjustmentPeriod bool
}

// NewAccountingPeriod validates p and returns an Open period.
// Overlap with other periods is checked by the caller against the calendar.
func NewAccountingPeriod(p NewPeriodParams, userID string, now time.Time) (AccountingPeriod, []Event, error) {
	if strings.TrimSpace(p.Name) == "" {
		return AccountingPeriod{}, nil, fmt.Errorf("%w: name is required", ErrInvalidPeriod)
	}
	start, end := DateOnly(p.StartDate), DateOnly(p.EndDate)
	if !start.Before(end) {
		return AccountingPeriod{}, nil, fmt.Errorf("%w: start date must be before end date", ErrInvalidPeriod)
	}
	if !p.PeriodType.IsValid() {
		return AccountingPeriod{}, nil, fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriod, p.PeriodType)
	}
	if p.FiscalYear < minFiscalYear || p.FiscalYear > maxFiscalYear {
		return AccountingPeriod{}, nil, fmt.Errorf("%w: fiscal year must be between %d and %d", ErrInvalidPeriod, minFiscalYear, maxFiscalYear)
	}
	if p.PeriodNumber < 1 {
		return AccountingPeriod{}, nil, fmt.Errorf("%w: period number must be positive", ErrInvalidPeriod)
	}
	period := AccountingPeriod{
		PeriodID:           p.PeriodID,
		Name:               strings.TrimSpace(p.Name),
		StartDate:          start,
		EndDate:            end,
		PeriodType:         p.PeriodType,
		FiscalYear:         p.FiscalYear,
		PeriodNumber:       p.PeriodNumber,
		IsAdjustmentPeriod: p.IsAdjustmentPeriod,
		Status:             PeriodOpen,
		AuditFields:        newAuditFields(userID, now),
	}
	return period, []Event{period.event(EventAccountingPeriodCreated, now, map[string]any{
		"startDate": start.Format(time.DateOnly),
		"endDate":   end.Format(time.DateOnly),
	})}, nil
}

// Contains reports whether date falls inside the inclusive range.
func (p AccountingPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// Overlaps reports whether the two inclusive ranges intersect.
func (p AccountingPeriod) Overlaps(other AccountingPeriod) bool {
	return !p.EndDate.Before(other.StartDate) && !other.EndDate.Before(p.StartDate)
}

// IsPostable reports whether the period accepts postings.
func (p AccountingPeriod) IsPostable() bool {
	return p.Status == PeriodOpen
}

// CheckPostable returns ErrPeriodClosed unless the period is Open.
func (p AccountingPeriod) CheckPostable() error {
	if !p.IsPostable() {
		return fmt.Errorf("%w: %s is %s", ErrPeriodClosed, p.Name, p.Status)
	}
	return nil
}

// RecordPosting increments the permanent transaction counter.
func (p AccountingPeriod) RecordPosting(now time.Time) AccountingPeriod {
	next := p
	next.TransactionCount = p.TransactionCount + 1
	next.LastUpdatedAt = now
	return next
}

// Update changes the name and adjustment flag while the period is Open.
func (p AccountingPeriod) Update(name *string, isAdjustment *bool, userID string, now time.Time) (AccountingPeriod, error) {
	if p.Status != PeriodOpen {
		return p, fmt.Errorf("%w: %s is %s", ErrPeriodNotOpen, p.Name, p.Status)
	}
	next := p
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return p, fmt.Errorf("%w: name is required", ErrInvalidPeriod)
		}
		next.Name = strings.TrimSpace(*name)
	}
	if isAdjustment != nil {
		next.IsAdjustmentPeriod = *isAdjustment
	}
	next.AuditFields = p.AuditFields.touch(userID, now)
	return next, nil
}

// Close fences the period off from postings. closingBalance may be nil and
// recorded later with RecordClosingBalance.
func (p AccountingPeriod) Close(closedBy string, closingBalance *decimal.Decimal, now time.Time) (AccountingPeriod, []Event, error) {
	switch p.Status {
	case PeriodClosed:
		return p, nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyClosed, p.Name)
	case PeriodLocked:
		return p, nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyLocked, p.Name)
	}
	count := p.TransactionCount
	next := p
	next.Status = PeriodClosed
	next.ClosedAt = &now
	next.ClosedBy = closedBy
	next.ClosingBalance = closingBalance
	next.ClosingTransactionCount = &count
	next.AuditFields = p.AuditFields.touch(closedBy, now)

	payload := map[string]any{"closedBy": closedBy, "transactionCount": count}
	if closingBalance != nil {
		payload["closingBalance"] = closingBalance.String()
	}
	return next, []Event{p.event(EventAccountingPeriodClosed, now, payload)}, nil
}

// RecordClosingBalance stores the snapshot computed after the close was committed.
func (p AccountingPeriod) RecordClosingBalance(balance decimal.Decimal, now time.Time) (AccountingPeriod, error) {
	if p.Status == PeriodOpen {
		return p, fmt.Errorf("%w: %s", ErrPeriodNotClosed, p.Name)
	}
	next := p
	next.ClosingBalance = &balance
	next.LastUpdatedAt = now
	return next, nil
}

// Reopen returns a Closed period to Open. The transaction counter is kept.
func (p AccountingPeriod) Reopen(userID, reason string, now time.Time) (AccountingPeriod, []Event, error) {
	switch p.Status {
	case PeriodLocked:
		return p, nil, fmt.Errorf("%w: %s", ErrPeriodLocked, p.Name)
	case PeriodOpen:
		return p, nil, fmt.Errorf("%w: %s is already open", ErrPeriodNotClosed, p.Name)
	}
	if strings.TrimSpace(reason) == "" {
		return p, nil, ErrReasonRequired
	}
	next := p
	next.Status = PeriodOpen
	next.ClosedAt = nil
	next.ClosedBy = ""
	next.ClosingBalance = nil
	next.ReopenReason = reason
	next.AuditFields = p.AuditFields.touch(userID, now)
	return next, []Event{p.event(EventAccountingPeriodReopened, now, map[string]any{"reason": reason})}, nil
}

// Lock makes a Closed period permanently read-only.
func (p AccountingPeriod) Lock(lockedBy string, now time.Time) (AccountingPeriod, []Event, error) {
	switch p.Status {
	case PeriodLocked:
		return p, nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyLocked, p.Name)
	case PeriodOpen:
		return p, nil, fmt.Errorf("%w: %s", ErrPeriodNotClosed, p.Name)
	}
	next := p
	next.Status = PeriodLocked
	next.LockedAt = &now
	next.LockedBy = lockedBy
	next.AuditFields = p.AuditFields.touch(lockedBy, now)
	return next, []Event{p.event(EventAccountingPeriodLocked, now, map[string]any{"lockedBy": lockedBy})}, nil
}

// CheckNoOverlap verifies that p does not intersect any of existing.
func (p AccountingPeriod) CheckNoOverlap(existing []AccountingPeriod) error {
	for _, other := range existing {
		if other.PeriodID == p.PeriodID {
			continue
		}
		if p.Overlaps(other) {
			return fmt.Errorf("%w: %s overlaps %s", ErrPeriodOverlap, p.Name, other.Name)
		}
	}
	return nil
}

func (p AccountingPeriod) event(t EventType, now time.Time, extra map[string]any) Event {
	payload := map[string]any{
		"aggregateId": p.PeriodID,
		"name":        p.Name,
		"fiscalYear":  p.FiscalYear,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return newEvent(t, aggregatePeriod, p.PeriodID, now, payload)
}
