package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceRef points back at the input row a directive was derived from.
// Row is the zero-based index of the data row in input order (header excluded).
type SourceRef struct {
	File string `json:"file"`
	Row  int    `json:"row"`
}

// String renders "file:row".
func (s SourceRef) String() string {
	return fmt.Sprintf("%s:%d", s.File, s.Row)
}

// PostingRow is one normalized line of the GnuCash export: one split of a
// transaction against one account.
type PostingRow struct {
	Date        time.Time
	BookingID   string
	Description string
	// Account is the sanitized ledger account name.
	Account string
	// RawAccount is the full account name as exported.
	RawAccount string
	// Amount is the signed value in the account's commodity.
	Amount decimal.Decimal
	// Value is the signed value in the transaction currency.
	Value decimal.Decimal
	// Currency is the transaction currency with any namespace qualifier removed.
	Currency string
	Rate     decimal.Decimal
	Flag     Flag
	Source   SourceRef
}
