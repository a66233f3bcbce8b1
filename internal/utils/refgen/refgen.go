// Package refgen issues human-facing reference numbers such as JE-1790123456789012345.
package refgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Reference prefixes per document kind.
const (
	PrefixJournalEntry  = "JE"
	PrefixFeeCharge     = "FC"
	PrefixFeePayment    = "FP"
	PrefixLoanRepayment = "LR"
)

// Generator produces unique, time-ordered references.
type Generator interface {
	Next(prefix string) string
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// New returns a Generator for the given node id (0-1023). Every running
// instance must use a distinct node id.
func New(nodeID int64) (Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &snowflakeGenerator{node: node}, nil
}

func (g *snowflakeGenerator) Next(prefix string) string {
	return prefix + "-" + g.node.Generate().String()
}
