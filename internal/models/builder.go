package models

import (
	"errors"
	"fmt"
	"time"
)

// TransactionBuilder provides a fluent API for constructing transactions.
// The first error sticks; Build reports it.
type TransactionBuilder struct {
	tx  Transaction
	err error
}

// NewTransactionBuilder creates a new TransactionBuilder with default values
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{
		tx: Transaction{
			Flag: FlagWarning,
		},
	}
}

// WithDate sets the transaction date
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if date.IsZero() {
		b.err = errors.New("date cannot be zero")
		return b
	}
	b.tx.Date = date
	return b
}

// WithFlag sets the transaction flag
func (b *TransactionBuilder) WithFlag(flag Flag) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if flag == FlagNone {
		b.err = errors.New("transaction flag cannot be empty")
		return b
	}
	b.tx.Flag = flag
	return b
}

// WithNarration sets the description
func (b *TransactionBuilder) WithNarration(narration string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Narration = narration
	return b
}

// WithBookingID records the GnuCash booking id the transaction was grouped by
func (b *TransactionBuilder) WithBookingID(id string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.BookingID = id
	return b
}

// WithSource sets the source reference
func (b *TransactionBuilder) WithSource(src SourceRef) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Source = src
	return b
}

// AddPosting appends a posting. A price in the posting's own currency is rejected.
func (b *TransactionBuilder) AddPosting(p Posting) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if p.Account == "" {
		b.err = errors.New("posting account cannot be empty")
		return b
	}
	if p.Price != nil && p.Price.Currency == p.Units.Currency {
		b.err = fmt.Errorf("posting to %s is priced in its own currency %s", p.Account, p.Units.Currency)
		return b
	}
	b.tx.Postings = append(b.tx.Postings, p)
	return b
}

// Build validates the transaction and returns it
func (b *TransactionBuilder) Build() (Transaction, error) {
	if b.err != nil {
		return Transaction{}, fmt.Errorf("builder error: %w", b.err)
	}
	if b.tx.Date.IsZero() {
		return Transaction{}, errors.New("date is required")
	}
	if len(b.tx.Postings) == 0 {
		return Transaction{}, errors.New("transaction has no postings")
	}
	tx := b.tx
	tx.Postings = append([]Posting(nil), b.tx.Postings...)
	return tx, nil
}
