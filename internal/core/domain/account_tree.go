package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// AccountTree is an id-keyed view of the chart of accounts with a separate
// code index. Parents are referenced by id only.
type AccountTree struct {
	byID     map[string]Account
	codeToID map[string]string
	children map[string][]string
	roots    []string
}

// NewAccountTree builds a tree from a flat account list. It fails on
// duplicate codes, dangling parents and cycles.
func NewAccountTree(accounts []Account) (*AccountTree, error) {
	t := &AccountTree{
		byID:     make(map[string]Account, len(accounts)),
		codeToID: make(map[string]string, len(accounts)),
		children: make(map[string][]string),
	}
	for _, a := range accounts {
		if _, dup := t.codeToID[a.Code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, a.Code)
		}
		t.byID[a.AccountID] = a
		t.codeToID[a.Code] = a.AccountID
	}
	for _, a := range accounts {
		if a.ParentAccountID == "" {
			t.roots = append(t.roots, a.AccountID)
			continue
		}
		if _, ok := t.byID[a.ParentAccountID]; !ok {
			return nil, fmt.Errorf("%w: %s references unknown parent %s", ErrInvalidHierarchy, a.Code, a.ParentAccountID)
		}
		t.children[a.ParentAccountID] = append(t.children[a.ParentAccountID], a.AccountID)
	}
	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}

	byCode := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return t.byID[ids[i]].Code < t.byID[ids[j]].Code })
	}
	byCode(t.roots)
	for id := range t.children {
		byCode(t.children[id])
	}
	return t, nil
}

func (t *AccountTree) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(t.byID))
	for id := range t.byID {
		cur := id
		var path []string
		for cur != "" && state[cur] != done {
			if state[cur] == visiting {
				return fmt.Errorf("%w: cycle through %s", ErrInvalidHierarchy, t.byID[cur].Code)
			}
			state[cur] = visiting
			path = append(path, cur)
			cur = t.byID[cur].ParentAccountID
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return nil
}

// Len returns the number of accounts in the tree.
func (t *AccountTree) Len() int { return len(t.byID) }

// Get returns the account with the given id.
func (t *AccountTree) Get(id string) (Account, bool) {
	a, ok := t.byID[id]
	return a, ok
}

// ByCode resolves an account through the code index.
func (t *AccountTree) ByCode(code string) (Account, bool) {
	id, ok := t.codeToID[code]
	if !ok {
		return Account{}, false
	}
	return t.byID[id], true
}

// Roots returns top-level accounts ordered by code.
func (t *AccountTree) Roots() []Account {
	return t.collect(t.roots)
}

// Children returns direct children of id ordered by code.
func (t *AccountTree) Children(id string) []Account {
	return t.collect(t.children[id])
}

func (t *AccountTree) collect(ids []string) []Account {
	out := make([]Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}

// RolledUpBalance returns the account's own balance plus its descendants',
// each converted to the sign convention of the account at id.
func (t *AccountTree) RolledUpBalance(id string) decimal.Decimal {
	root, ok := t.byID[id]
	if !ok {
		return decimal.Zero
	}
	debit, credit := t.totals(id)
	return ComputeBalance(root.AccountType, debit, credit)
}

func (t *AccountTree) totals(id string) (decimal.Decimal, decimal.Decimal) {
	a := t.byID[id]
	debit, credit := a.DebitBalance, a.CreditBalance
	for _, child := range t.children[id] {
		d, c := t.totals(child)
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	return debit, credit
}

// AccountNode is a materialised subtree used for presentation.
type AccountNode struct {
	Account         Account         `json:"account"`
	RolledUpBalance decimal.Decimal `json:"rolledUpBalance"`
	Children        []AccountNode   `json:"children"`
}

// Nodes materialises the whole tree from its roots.
func (t *AccountTree) Nodes() []AccountNode {
	return t.nodes(t.roots)
}

func (t *AccountTree) nodes(ids []string) []AccountNode {
	out := make([]AccountNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, AccountNode{
			Account:         t.byID[id],
			RolledUpBalance: t.RolledUpBalance(id),
			Children:        t.nodes(t.children[id]),
		})
	}
	return out
}
