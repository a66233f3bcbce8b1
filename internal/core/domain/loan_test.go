package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchedule(t *testing.T) []domain.LoanSchedule {
	t.Helper()
	items := []domain.InstallmentParams{
		{ScheduleID: "s-3", InstallmentNumber: 3, DueDate: jan(31).AddDate(0, 2, 0), PrincipalAmount: dec("100"), InterestAmount: dec("10")},
		{ScheduleID: "s-1", InstallmentNumber: 1, DueDate: jan(31), PrincipalAmount: dec("100"), InterestAmount: dec("10")},
		{ScheduleID: "s-2", InstallmentNumber: 2, DueDate: jan(31).AddDate(0, 1, 0), PrincipalAmount: dec("100"), InterestAmount: dec("10")},
	}
	s, err := domain.NewLoanSchedule("loan-1", dec("300"), items, "user-1", testNow)
	require.NoError(t, err)
	return s
}

func TestNewLoanSchedule(t *testing.T) {
	s := newTestSchedule(t)
	require.Len(t, s, 3)
	assert.Equal(t, 1, s[0].InstallmentNumber)
	assert.True(t, s[0].TotalAmount.Equal(dec("110")))

	_, err := domain.NewLoanSchedule("loan-1", dec("250"), []domain.InstallmentParams{
		{InstallmentNumber: 1, DueDate: jan(31), PrincipalAmount: dec("100")},
	}, "user-1", testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidSchedule)

	_, err = domain.NewLoanSchedule("loan-1", dec("200"), []domain.InstallmentParams{
		{InstallmentNumber: 1, DueDate: jan(31), PrincipalAmount: dec("100")},
		{InstallmentNumber: 1, DueDate: jan(31), PrincipalAmount: dec("100")},
	}, "user-1", testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidSchedule)
}

func TestLoanSchedule_ApplyPayment(t *testing.T) {
	s := newTestSchedule(t)[0]

	s, events, err := s.ApplyPayment(dec("60"), jan(20), testNow)
	require.NoError(t, err)
	assert.False(t, s.IsPaid)
	assert.Empty(t, events)

	s, events, err = s.ApplyPayment(dec("50"), jan(25), testNow)
	require.NoError(t, err)
	assert.True(t, s.IsPaid)
	require.NotNil(t, s.PaidDate)
	assert.Equal(t, jan(25), *s.PaidDate)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventLoanSchedulePaid, events[0].EventType)

	_, _, err = s.ApplyPayment(dec("1"), jan(26), testNow)
	assert.ErrorIs(t, err, domain.ErrInstallmentAlreadyPaid)
}

func TestAllocateRepayment_OldestFirst(t *testing.T) {
	s := newTestSchedule(t)
	s[0], _, _ = s[0].ApplyPayment(dec("110"), jan(20), testNow)
	s[1], _, _ = s[1].ApplyPayment(dec("10"), jan(20), testNow)

	allocs, err := domain.AllocateRepayment(s, dec("150"))
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, 2, allocs[0].InstallmentNumber)
	assert.True(t, allocs[0].Amount.Equal(dec("100")))
	assert.Equal(t, 3, allocs[1].InstallmentNumber)
	assert.True(t, allocs[1].Amount.Equal(dec("50")))

	_, err = domain.AllocateRepayment(s, dec("210.01"))
	assert.ErrorIs(t, err, domain.ErrInvalidRepayment)

	_, err = domain.AllocateRepayment(s, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidRepayment)
}

func TestAllocateRepayment_LaterInstallmentWaits(t *testing.T) {
	s := newTestSchedule(t)
	for _, total := range []string{"1", "55.5", "109.99", "110", "200", "330"} {
		allocs, err := domain.AllocateRepayment(s, dec(total))
		require.NoError(t, err)

		sum := decimal.Zero
		for i, a := range allocs {
			sum = sum.Add(a.Amount)
			if i < len(allocs)-1 {
				assert.True(t, a.Amount.Equal(dec("110")), "installment %d must be settled before the next receives funds", a.InstallmentNumber)
			}
		}
		assert.True(t, sum.Equal(dec(total)))
	}
}

func TestNewLoanRepayment(t *testing.T) {
	r, err := domain.NewLoanRepayment(domain.NewRepaymentParams{
		RepaymentID:     "lr-1",
		LoanID:          "loan-1",
		PrincipalAmount: dec("100"),
		InterestAmount:  dec("10"),
		PenaltyAmount:   dec("2.5"),
		RepaymentDate:   time.Date(2024, time.February, 1, 15, 0, 0, 0, time.UTC),
	}, "user-1", testNow)
	require.NoError(t, err)
	assert.True(t, r.TotalAmount.Equal(dec("112.5")))
	assert.True(t, r.ScheduledAmount().Equal(dec("110")))
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), r.RepaymentDate)

	_, err = domain.NewLoanRepayment(domain.NewRepaymentParams{LoanID: "loan-1", PrincipalAmount: dec("-1"), InterestAmount: dec("5")}, "user-1", testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidRepayment)
}
