package pgsql

import (
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every pgx repository onto one pool. The event
// reader lives outside this package and is passed in.
func NewRepositoryProvider(dbPool *pgxpool.Pool, txOpts TxOptions, eventReader portsrepo.EventReader) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UnitOfWork:    newPgxUnitOfWork(dbPool, txOpts),
		AccountRepo:   newPgxAccountRepository(dbPool),
		PeriodRepo:    newPgxPeriodRepository(dbPool),
		JournalRepo:   newPgxJournalRepository(dbPool),
		FeeRepo:       newPgxFeeRepository(dbPool),
		LoanRepo:      newPgxLoanRepository(dbPool),
		OutboxRepo:    newPgxOutboxRepository(dbPool),
		SettingRepo:   newPgxSettingRepository(dbPool),
		ReportingRepo: newReportingRepository(dbPool),
		EventReader:   eventReader,
	}
}
