package services

import (
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/utils/refgen"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, refs refgen.Generator) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Settings first: the posting engine and obligation services read account mappings from it
	container.Setting = NewSettingService(repos.UnitOfWork, repos.SettingRepo)

	container.Account = NewAccountService(repos.UnitOfWork, repos.AccountRepo, repos.OutboxRepo)
	container.Period = NewPeriodService(repos.UnitOfWork, repos.PeriodRepo, repos.ReportingRepo, repos.OutboxRepo)
	container.Journal = NewJournalService(
		repos.UnitOfWork,
		repos.JournalRepo,
		repos.AccountRepo,
		repos.PeriodRepo,
		repos.OutboxRepo,
		container.Setting,
		refs,
	)

	// Obligation services post through the journal's engine inside their own units of work
	container.Fee = NewFeeService(repos.UnitOfWork, repos.FeeRepo, repos.AccountRepo, repos.OutboxRepo, container.Journal, container.Setting, refs)
	container.Loan = NewLoanService(repos.UnitOfWork, repos.LoanRepo, repos.AccountRepo, repos.OutboxRepo, container.Journal, container.Setting, refs)

	container.Reporting = NewReportingService(repos.ReportingRepo)
	container.Events = NewEventQueryService(repos.EventReader)

	return container
}
