package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	UnitOfWork    UnitOfWork
	AccountRepo   AccountRepositoryFacade
	PeriodRepo    PeriodRepositoryFacade
	JournalRepo   JournalRepositoryFacade
	FeeRepo       FeeRepositoryFacade
	LoanRepo      LoanRepositoryFacade
	OutboxRepo    OutboxRepositoryFacade
	SettingRepo   SettingRepositoryFacade
	ReportingRepo ReportingRepository
	EventReader   EventReader
}
