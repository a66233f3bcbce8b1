package domain

import "github.com/SscSPs/mfi_ledger/internal/apperrors"

// Chart of accounts
var (
	ErrDuplicateCode       = apperrors.NewDomainError(apperrors.ErrDuplicate, "DUPLICATE_CODE", "account code already exists")
	ErrInvalidHierarchy    = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_HIERARCHY", "invalid account hierarchy")
	ErrInvalidAccount      = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_ACCOUNT", "invalid account definition")
	ErrPostingNotAllowed   = apperrors.NewDomainError(apperrors.ErrStateConflict, "POSTING_NOT_ALLOWED", "account does not accept postings")
	ErrNonZeroBalance      = apperrors.NewDomainError(apperrors.ErrStateConflict, "NON_ZERO_BALANCE", "account balance must be zero to close")
	ErrAccountClosed       = apperrors.NewDomainError(apperrors.ErrStateConflict, "ACCOUNT_CLOSED", "account is closed")
	ErrAccountStatusNoop   = apperrors.NewDomainError(apperrors.ErrStateConflict, "ACCOUNT_STATUS_UNCHANGED", "account is already in the requested status")
	ErrNegativePostingLine = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_AMOUNT", "posting amounts must not be negative")
)

// Accounting periods
var (
	ErrInvalidPeriod       = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_PERIOD", "invalid accounting period")
	ErrPeriodOverlap       = apperrors.NewDomainError(apperrors.ErrValidation, "PERIOD_OVERLAP", "accounting period overlaps an existing period")
	ErrNoPeriodDefined     = apperrors.NewDomainError(apperrors.ErrPeriodGating, "NO_PERIOD_DEFINED", "no accounting period covers the date")
	ErrPeriodClosed        = apperrors.NewDomainError(apperrors.ErrPeriodGating, "PERIOD_CLOSED", "accounting period is not open for postings")
	ErrPeriodAlreadyClosed = apperrors.NewDomainError(apperrors.ErrStateConflict, "ALREADY_CLOSED", "accounting period is already closed")
	ErrPeriodAlreadyLocked = apperrors.NewDomainError(apperrors.ErrStateConflict, "ALREADY_LOCKED", "accounting period is already locked")
	ErrPeriodLocked        = apperrors.NewDomainError(apperrors.ErrStateConflict, "PERIOD_LOCKED", "accounting period is locked")
	ErrPeriodNotClosed     = apperrors.NewDomainError(apperrors.ErrStateConflict, "NOT_CLOSED", "accounting period must be closed first")
	ErrPeriodNotOpen       = apperrors.NewDomainError(apperrors.ErrStateConflict, "PERIOD_NOT_OPEN", "accounting period can only be changed while open")
)

// Journal entries
var (
	ErrEntryNotDraft      = apperrors.NewDomainError(apperrors.ErrStateConflict, "ENTRY_NOT_DRAFT", "journal entry is not editable")
	ErrUnbalanced         = apperrors.NewDomainError(apperrors.ErrValidation, "UNBALANCED", "journal entry is not balanced")
	ErrNotPending         = apperrors.NewDomainError(apperrors.ErrStateConflict, "NOT_PENDING", "journal entry is not pending approval")
	ErrNotApproved        = apperrors.NewDomainError(apperrors.ErrStateConflict, "NOT_APPROVED", "journal entry is not approved")
	ErrNotPosted          = apperrors.NewDomainError(apperrors.ErrStateConflict, "NOT_POSTED", "journal entry is not posted")
	ErrEntryAlreadyPosted = apperrors.NewDomainError(apperrors.ErrStateConflict, "ENTRY_POSTED", "posted journal entries are immutable")
	ErrInvalidLine        = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_LINE", "journal line must carry exactly one positive debit or credit amount")
	ErrInvalidEntry       = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_ENTRY", "invalid journal entry")
)

// Obligations
var (
	ErrInvalidAmount          = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_AMOUNT", "amount is invalid")
	ErrInvalidCharge          = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_CHARGE", "invalid fee charge")
	ErrChargeNotPayable       = apperrors.NewDomainError(apperrors.ErrStateConflict, "CHARGE_NOT_PAYABLE", "fee charge does not accept payments")
	ErrChargeNotWaivable      = apperrors.NewDomainError(apperrors.ErrStateConflict, "CHARGE_NOT_WAIVABLE", "fee charge cannot be waived")
	ErrHasPayments            = apperrors.NewDomainError(apperrors.ErrStateConflict, "HAS_PAYMENTS", "fee charge has payments that must be reversed first")
	ErrAlreadyReversed        = apperrors.NewDomainError(apperrors.ErrStateConflict, "ALREADY_REVERSED", "already reversed")
	ErrInvalidWaiverState     = apperrors.NewDomainError(apperrors.ErrStateConflict, "INVALID_WAIVER_STATE", "fee waiver is not pending")
	ErrPaymentHasDependency   = apperrors.NewDomainError(apperrors.ErrStateConflict, "PAYMENT_HAS_DEPENDENCY", "fee payment cannot be reversed while its charge is settled by other means")
	ErrReasonRequired         = apperrors.NewDomainError(apperrors.ErrValidation, "REASON_REQUIRED", "a reason is required")
	ErrInstallmentAlreadyPaid = apperrors.NewDomainError(apperrors.ErrStateConflict, "ALREADY_PAID", "installment is already paid")
	ErrInvalidSchedule        = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_SCHEDULE", "invalid loan schedule")
	ErrInvalidRepayment       = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_REPAYMENT", "invalid loan repayment")
	ErrLoanNotDisbursed       = apperrors.NewDomainError(apperrors.ErrStateConflict, "LOAN_NOT_DISBURSED", "loan has not been disbursed")
)

// Settings
var (
	ErrSettingTypeMismatch = apperrors.NewDomainError(apperrors.ErrValidation, "SETTING_TYPE_MISMATCH", "setting value has a different type")
	ErrInvalidSetting      = apperrors.NewDomainError(apperrors.ErrValidation, "INVALID_SETTING", "invalid setting")
)
