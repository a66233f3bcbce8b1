package dto

import (
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code               string             `json:"code" binding:"required,max=16"`
	Name               string             `json:"name" binding:"required"`
	AccountType        domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentAccountID    *string            `json:"parentAccountID"` // Optional, use pointer for nullability
	IsHeader           bool               `json:"isHeader"`
	AllowDirectPosting *bool              `json:"allowDirectPosting"` // Defaults to true for non-header accounts
	Description        string             `json:"description"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID          string               `json:"accountID"`
	Code               string               `json:"code"`
	Name               string               `json:"name"`
	AccountType        domain.AccountType   `json:"accountType"`
	ParentAccountID    string               `json:"parentAccountID,omitempty"`
	Level              int                  `json:"level"`
	IsHeader           bool                 `json:"isHeader"`
	AllowDirectPosting bool                 `json:"allowDirectPosting"`
	Description        string               `json:"description"`
	Status             domain.AccountStatus `json:"status"`
	DebitBalance       decimal.Decimal      `json:"debitBalance"`
	CreditBalance      decimal.Decimal      `json:"creditBalance"`
	Balance            decimal.Decimal      `json:"balance"`
	Version            int64                `json:"version"`
	CreatedAt          time.Time            `json:"createdAt"`
	CreatedBy          string               `json:"createdBy"`
	LastUpdatedAt      time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy      string               `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:          acc.AccountID,
		Code:               acc.Code,
		Name:               acc.Name,
		AccountType:        acc.AccountType,
		ParentAccountID:    acc.ParentAccountID,
		Level:              acc.Level,
		IsHeader:           acc.IsHeader,
		AllowDirectPosting: acc.AllowDirectPosting,
		Description:        acc.Description,
		Status:             acc.Status,
		DebitBalance:       acc.DebitBalance,
		CreditBalance:      acc.CreditBalance,
		Balance:            acc.Balance,
		Version:            acc.Version,
		CreatedAt:          acc.CreatedAt,
		CreatedBy:          acc.CreatedBy,
		LastUpdatedAt:      acc.LastUpdatedAt,
		LastUpdatedBy:      acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// AccountTreeNodeResponse is one node of the chart-of-accounts tree.
type AccountTreeNodeResponse struct {
	AccountResponse
	RolledUpBalance decimal.Decimal           `json:"rolledUpBalance"`
	Children        []AccountTreeNodeResponse `json:"children"`
}

// ToAccountTreeResponse converts materialised tree nodes.
func ToAccountTreeResponse(nodes []domain.AccountNode) []AccountTreeNodeResponse {
	res := make([]AccountTreeNodeResponse, len(nodes))
	for i := range nodes {
		res[i] = AccountTreeNodeResponse{
			AccountResponse: ToAccountResponse(&nodes[i].Account),
			RolledUpBalance: nodes[i].RolledUpBalance,
			Children:        ToAccountTreeResponse(nodes[i].Children),
		}
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}
