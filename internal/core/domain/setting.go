package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettingKind tags the type carried by a SettingValue.
type SettingKind string

const (
	KindString   SettingKind = "STRING"
	KindInt      SettingKind = "INT"
	KindDecimal  SettingKind = "DECIMAL"
	KindBool     SettingKind = "BOOL"
	KindDuration SettingKind = "DURATION"
)

// IsValid reports whether k is a known kind.
func (k SettingKind) IsValid() bool {
	switch k {
	case KindString, KindInt, KindDecimal, KindBool, KindDuration:
		return true
	}
	return false
}

// Setting keys read by the ledger services.
const (
	SettingFeeReceivableAccount    = "fees.receivable_account_code"
	SettingFeeIncomeAccount        = "fees.income_account_code"
	SettingFeeWaiverExpenseAccount = "fees.waiver_expense_account_code"
	SettingCashDefaultAccount      = "cash.default_account_code"
	SettingLoanPortfolioAccount    = "loans.portfolio_account_code"
	SettingLoanInterestAccount     = "loans.interest_income_account_code"
	SettingLoanPenaltyAccount      = "loans.penalty_income_account_code"
	SettingAutoPostSystemEntries   = "journal.auto_post_system_entries"
)

// SettingValue is a tagged union. Only the field matching Kind is meaningful.
type SettingValue struct {
	kind SettingKind
	s    string
	i    int64
	d    decimal.Decimal
	b    bool
	dur  time.Duration
}

func StringValue(v string) SettingValue           { return SettingValue{kind: KindString, s: v} }
func IntValue(v int64) SettingValue               { return SettingValue{kind: KindInt, i: v} }
func DecimalValue(v decimal.Decimal) SettingValue { return SettingValue{kind: KindDecimal, d: v} }
func BoolValue(v bool) SettingValue               { return SettingValue{kind: KindBool, b: v} }
func DurationValue(v time.Duration) SettingValue  { return SettingValue{kind: KindDuration, dur: v} }

// Kind returns the tag.
func (v SettingValue) Kind() SettingKind { return v.kind }

func (v SettingValue) expect(k SettingKind) error {
	if v.kind != k {
		return fmt.Errorf("%w: want %s, have %s", ErrSettingTypeMismatch, k, v.kind)
	}
	return nil
}

// AsString returns the value of a STRING setting.
func (v SettingValue) AsString() (string, error) {
	if err := v.expect(KindString); err != nil {
		return "", err
	}
	return v.s, nil
}

// AsInt returns the value of an INT setting.
func (v SettingValue) AsInt() (int64, error) {
	if err := v.expect(KindInt); err != nil {
		return 0, err
	}
	return v.i, nil
}

// AsDecimal returns the value of a DECIMAL setting.
func (v SettingValue) AsDecimal() (decimal.Decimal, error) {
	if err := v.expect(KindDecimal); err != nil {
		return decimal.Zero, err
	}
	return v.d, nil
}

// AsBool returns the value of a BOOL setting.
func (v SettingValue) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.b, nil
}

// AsDuration returns the value of a DURATION setting.
func (v SettingValue) AsDuration() (time.Duration, error) {
	if err := v.expect(KindDuration); err != nil {
		return 0, err
	}
	return v.dur, nil
}

// Raw encodes the value for storage next to its kind.
func (v SettingValue) Raw() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return v.d.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDuration:
		return v.dur.String()
	}
	return v.s
}

// DecodeSettingValue rebuilds a value from its stored kind and raw text.
func DecodeSettingValue(kind SettingKind, raw string) (SettingValue, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return SettingValue{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidSetting, raw)
		}
		return IntValue(i), nil
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("%w: %q is not a decimal", ErrInvalidSetting, raw)
		}
		return DecimalValue(d), nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidSetting, raw)
		}
		return BoolValue(b), nil
	case KindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("%w: %q is not a duration", ErrInvalidSetting, raw)
		}
		return DurationValue(d), nil
	}
	return SettingValue{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidSetting, kind)
}

// Setting is a named, typed configuration value stored with the ledger.
type Setting struct {
	Key         string       `json:"key"`
	Value       SettingValue `json:"-"`
	Description string       `json:"description,omitempty"`
	AuditFields
}

// NewSetting validates key and value.
func NewSetting(key string, value SettingValue, description, userID string, now time.Time) (Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Setting{}, fmt.Errorf("%w: key is required", ErrInvalidSetting)
	}
	if !value.Kind().IsValid() {
		return Setting{}, fmt.Errorf("%w: value has no kind", ErrInvalidSetting)
	}
	return Setting{Key: key, Value: value, Description: description, AuditFields: newAuditFields(userID, now)}, nil
}

// Replace swaps the value, keeping the declared kind.
func (s Setting) Replace(value SettingValue, userID string, now time.Time) (Setting, error) {
	if value.Kind() != s.Value.Kind() {
		return s, fmt.Errorf("%w: %s is declared as %s", ErrSettingTypeMismatch, s.Key, s.Value.Kind())
	}
	next := s
	next.Value = value
	next.AuditFields = s.AuditFields.touch(userID, now)
	return next, nil
}
