package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	uow         portsrepo.UnitOfWork
	accountRepo portsrepo.AccountRepositoryFacade
	outbox      portsrepo.OutboxWriter
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountClock overrides the clock used for audit stamps.
func WithAccountClock(clock func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		s.Clock = clock
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(uow portsrepo.UnitOfWork, repo portsrepo.AccountRepositoryFacade, outbox portsrepo.OutboxWriter, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		uow:         uow,
		accountRepo: repo,
		outbox:      outbox,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	allowPosting := !req.IsHeader
	if req.AllowDirectPosting != nil {
		allowPosting = *req.AllowDirectPosting
	}
	params := domain.NewAccountParams{
		AccountID:          uuid.NewString(),
		Code:               req.Code,
		Name:               req.Name,
		AccountType:        req.AccountType,
		IsHeader:           req.IsHeader,
		AllowDirectPosting: allowPosting,
		Description:        req.Description,
	}

	var created domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var parent *domain.Account
		if req.ParentAccountID != nil && *req.ParentAccountID != "" {
			p, err := s.accountRepo.FindAccountForUpdate(ctx, tx, *req.ParentAccountID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return fmt.Errorf("%w: parent account %s not found", domain.ErrInvalidHierarchy, *req.ParentAccountID)
				}
				return err
			}
			parent = p
		}
		acc, events, err := domain.NewAccount(params, parent, userID, s.Now())
		if err != nil {
			return err
		}
		if err := s.accountRepo.SaveAccountTx(ctx, tx, acc); err != nil {
			return err
		}
		created = acc
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create account",
			slog.String("code", req.Code),
			slog.String("user_id", userID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", created.AccountID),
		slog.String("code", created.Code))
	return &created, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID",
				slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code",
				slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.Int("limit", limit),
			slog.Int("offset", offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

func (s *accountService) GetAccountTree(ctx context.Context) (*domain.AccountTree, error) {
	accounts, err := s.accountRepo.ListAllAccounts(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load chart of accounts")
		return nil, err
	}
	tree, err := domain.NewAccountTree(accounts)
	if err != nil {
		s.LogError(ctx, err, "Chart of accounts is inconsistent")
		return nil, err
	}
	return tree, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	return s.mutate(ctx, accountID, userID, "update", func(acc domain.Account) (domain.Account, []domain.Event, error) {
		return acc.Update(req.Name, req.Description, userID, s.Now())
	})
}

func (s *accountService) ActivateAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	return s.mutate(ctx, accountID, userID, "activate", func(acc domain.Account) (domain.Account, []domain.Event, error) {
		return acc.Activate(userID, s.Now())
	})
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	return s.mutate(ctx, accountID, userID, "deactivate", func(acc domain.Account) (domain.Account, []domain.Event, error) {
		return acc.Deactivate(userID, s.Now())
	})
}

func (s *accountService) CloseAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	return s.mutate(ctx, accountID, userID, "close", func(acc domain.Account) (domain.Account, []domain.Event, error) {
		return acc.Close(userID, s.Now())
	})
}

// mutate applies a single-account transition under a row lock.
func (s *accountService) mutate(ctx context.Context, accountID, userID, action string, apply func(domain.Account) (domain.Account, []domain.Event, error)) (*domain.Account, error) {
	var updated domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		acc, err := s.accountRepo.FindAccountForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		next, events, err := apply(*acc)
		if err != nil {
			return err
		}
		if err := s.accountRepo.UpdateAccountTx(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to "+action+" account",
			slog.String("account_id", accountID),
			slog.String("user_id", userID))
		return nil, err
	}
	s.LogInfo(ctx, "Account "+action+" succeeded",
		slog.String("account_id", accountID),
		slog.String("status", string(updated.Status)))
	return &updated, nil
}
