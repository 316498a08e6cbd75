package checkout

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// InvoicePrefix starts every invoice number.
const InvoicePrefix = "INV-"

// InvoiceAllocator hands out invoice numbers.
type InvoiceAllocator interface {
	Next() string
}

// SnowflakeInvoices derives invoice numbers from time-ordered snowflake ids.
// Replicas must run with distinct node ids.
type SnowflakeInvoices struct {
	node *snowflake.Node
}

// NewSnowflakeInvoices builds an allocator for node (0..1023).
func NewSnowflakeInvoices(node int64) (*SnowflakeInvoices, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("invoice allocator: %w", err)
	}
	return &SnowflakeInvoices{node: n}, nil
}

// Next returns a fresh invoice number.
func (a *SnowflakeInvoices) Next() string {
	return InvoicePrefix + a.node.Generate().String()
}
