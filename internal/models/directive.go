package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBookingMethod is attached to every open directive unless configured otherwise.
const DefaultBookingMethod = "FIFO"

// Open declares an account from Date on, restricted to Currencies.
type Open struct {
	Date       time.Time
	Account    string
	Currencies []string
	Booking    string
	Source     SourceRef
}

// Commodity declares a currency in use from Date on.
type Commodity struct {
	Date     time.Time
	Currency string
	Source   SourceRef
}

// Posting is one leg of a transaction.
type Posting struct {
	Flag    Flag
	Account string
	Units   Amount
	// Price is the per-unit price, nil when the posting is not converted.
	Price *Amount
}

// Weight is the amount the posting contributes to the transaction balance.
func (p Posting) Weight() Amount {
	if p.Price != nil {
		return p.Units.Mul(*p.Price)
	}
	return p.Units
}

// Transaction is a dated, balanced group of postings.
type Transaction struct {
	Date      time.Time
	Flag      Flag
	Narration string
	BookingID string
	Postings  []Posting
	Source    SourceRef
}

// Residual sums the posting weights per currency in order of first use and
// returns the sums that are not zero.
func (t Transaction) Residual() []Amount {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, p := range t.Postings {
		w := p.Weight()
		if _, ok := sums[w.Currency]; !ok {
			order = append(order, w.Currency)
		}
		sums[w.Currency] = sums[w.Currency].Add(w.Number)
	}
	var residual []Amount
	for _, cur := range order {
		if a := NewAmount(sums[cur], cur); !a.IsZero() {
			residual = append(residual, a)
		}
	}
	return residual
}

// Ledger is the full set of directives produced from one export.
type Ledger struct {
	Commodities  []Commodity
	Opens        []Open
	Transactions []Transaction
}
