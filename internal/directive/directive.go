// Package directive groups normalized rows into ledger directives: one
// transaction per booking id, one open per account and one commodity per
// currency in use.
package directive

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fjacquet/gnucash2beancount/internal/beancount"
	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/currencyutils"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/models"
	"fjacquet/gnucash2beancount/internal/parsererror"
)

// Observer is told how many of the total transaction groups are done.
type Observer func(done, total int)

// Builder turns sorted posting rows into a models.Ledger.
type Builder struct {
	cfg      *config.Config
	logger   logging.Logger
	observer Observer
}

// NewBuilder creates a builder. A nil logger discards log output.
func NewBuilder(cfg *config.Config, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// SetObserver installs a progress callback, called once per transaction group.
func (b *Builder) SetObserver(o Observer) {
	b.observer = o
}

type group struct {
	id   string
	rows []models.PostingRow
}

// Build creates the directives for rows, which must already be sorted by date.
// Nothing is returned when any group cannot be mapped.
func (b *Builder) Build(rows []models.PostingRow) (*models.Ledger, error) {
	groups := groupByBookingID(rows)

	ledger := &models.Ledger{}
	for i, g := range groups {
		tx, err := b.transaction(g)
		if err != nil {
			return nil, err
		}
		ledger.Transactions = append(ledger.Transactions, tx)
		if b.observer != nil {
			b.observer(i+1, len(groups))
		}
	}

	ledger.Opens = b.opens(rows)
	ledger.Commodities = b.commodities(rows)

	b.logger.Info("Built ledger directives",
		logging.F("transactions", len(ledger.Transactions)),
		logging.F("opens", len(ledger.Opens)),
		logging.F("commodities", len(ledger.Commodities)))
	return ledger, nil
}

// groupByBookingID keeps groups in order of first appearance.
func groupByBookingID(rows []models.PostingRow) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, row := range rows {
		g, ok := index[row.BookingID]
		if !ok {
			g = &group{id: row.BookingID}
			index[row.BookingID] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups
}

func (b *Builder) transaction(g *group) (models.Transaction, error) {
	first := g.rows[0]
	base := b.cfg.GnuCash.DefaultCurrency

	foreign, err := b.foreignCurrency(g)
	if err != nil {
		return models.Transaction{}, err
	}

	var groupPrice *models.Amount
	txb := models.NewTransactionBuilder().
		WithDate(first.Date).
		WithFlag(b.cfg.TransactionFlag).
		WithNarration(first.Description).
		WithBookingID(g.id).
		WithSource(first.Source)

	for _, row := range g.rows {
		currency := b.cfg.AccountCurrency(row.Account)
		posting := models.Posting{
			Account: row.Account,
			Units:   models.NewAmount(row.Amount, currency),
		}
		if b.cfg.Beancount.PostingFlags {
			posting.Flag = row.Flag
		}

		if foreign != "" && currency == base {
			switch row.Currency {
			case foreign:
				posting.Price = rowPrice(row, foreign)
			case base:
				if groupPrice == nil {
					groupPrice = aggregatePrice(g, b.cfg, foreign)
				}
				posting.Price = groupPrice
			default:
				return models.Transaction{}, &parsererror.MappingError{
					File:   row.Source.File,
					Row:    row.Source.Row,
					Field:  b.cfg.Column(config.ColumnCurrency),
					Value:  row.Currency,
					Reason: fmt.Sprintf("transaction currency is neither %s nor %s", base, foreign),
				}
			}
			if posting.Price != nil {
				b.logger.Debug("Priced posting",
					logging.F(logging.FieldBookingID, g.id),
					logging.F(logging.FieldAccount, row.Account),
					logging.F(logging.FieldCurrency, foreign),
					logging.F("price", posting.Price.Number.String()))
			}
		}
		txb.AddPosting(posting)
	}

	tx, err := txb.Build()
	if err != nil {
		return models.Transaction{}, &parsererror.MappingError{
			File:   first.Source.File,
			Row:    first.Source.Row,
			Field:  b.cfg.Column(config.ColumnBookingID),
			Value:  g.id,
			Reason: err.Error(),
		}
	}
	for _, residual := range tx.Residual() {
		if residual.Number.Abs().GreaterThan(beancount.DefaultTolerance) {
			b.logger.Warn("Transaction does not balance",
				logging.F(logging.FieldBookingID, g.id),
				logging.F(logging.FieldCurrency, residual.Currency),
				logging.F("residual", residual.Number.String()))
		}
	}
	return tx, nil
}

// foreignCurrency returns the single non-default account currency of the
// group, or "" when every account is held in the default currency.
func (b *Builder) foreignCurrency(g *group) (string, error) {
	base := b.cfg.GnuCash.DefaultCurrency
	foreign := ""
	for _, row := range g.rows {
		cur := b.cfg.AccountCurrency(row.Account)
		if cur == base || cur == foreign {
			continue
		}
		if foreign != "" {
			return "", &parsererror.MappingError{
				File:   row.Source.File,
				Row:    row.Source.Row,
				Field:  b.cfg.Column(config.ColumnFullAccountName),
				Value:  row.RawAccount,
				Reason: fmt.Sprintf("transaction mixes foreign currencies %s and %s", foreign, cur),
			}
		}
		foreign = cur
	}
	return foreign, nil
}

// rowPrice prices a default-currency posting of a transaction kept in the
// foreign currency: the row's own value divided by its amount.
func rowPrice(row models.PostingRow, foreign string) *models.Amount {
	if row.Amount.IsZero() {
		return nil
	}
	if row.Value.IsZero() {
		if row.Rate.IsZero() {
			return nil
		}
		price := models.NewAmount(row.Rate.Abs(), foreign)
		return &price
	}
	price := models.NewAmount(currencyutils.Quotient(row.Value.Abs(), row.Amount.Abs()), foreign)
	return &price
}

// aggregatePrice prices a transaction kept in the default currency: the
// foreign units over the default-currency value of the foreign rows.
func aggregatePrice(g *group, cfg *config.Config, foreign string) *models.Amount {
	units, value := decimal.Zero, decimal.Zero
	for _, row := range g.rows {
		if cfg.AccountCurrency(row.Account) != foreign {
			continue
		}
		units = units.Add(row.Amount.Abs())
		value = value.Add(row.Value.Abs())
	}
	if units.IsZero() || value.IsZero() {
		return nil
	}
	price := models.NewAmount(currencyutils.Quotient(units, value), foreign)
	return &price
}

// opens declares every account at its first row, ordered by (date, account).
func (b *Builder) opens(rows []models.PostingRow) []models.Open {
	seen := make(map[string]bool)
	var opens []models.Open
	for _, row := range rows {
		if seen[row.Account] {
			continue
		}
		seen[row.Account] = true
		opens = append(opens, models.Open{
			Date:       row.Date,
			Account:    row.Account,
			Currencies: []string{b.cfg.AccountCurrency(row.Account)},
			Booking:    b.cfg.Beancount.BookingMethod,
			Source:     row.Source,
		})
	}
	sort.SliceStable(opens, func(i, j int) bool {
		if !opens[i].Date.Equal(opens[j].Date) {
			return opens[i].Date.Before(opens[j].Date)
		}
		return opens[i].Account < opens[j].Account
	})
	return opens
}

// commodities declares every account currency at its first use, ordered by
// (date, currency). The default currency is always declared, at the earliest
// row date when never used.
//
// Declaring each currency at its own first use, rather than every currency
// at the first transaction date sorted by code, keeps a commodity from
// predating the rows that introduce it.
func (b *Builder) commodities(rows []models.PostingRow) []models.Commodity {
	// without rows there is no date to declare the default currency at
	if len(rows) == 0 {
		return nil
	}
	first := make(map[string]models.Commodity)
	for _, row := range rows {
		cur := b.cfg.AccountCurrency(row.Account)
		if _, ok := first[cur]; ok {
			continue
		}
		first[cur] = models.Commodity{Date: row.Date, Currency: cur, Source: row.Source}
	}
	base := b.cfg.GnuCash.DefaultCurrency
	if _, ok := first[base]; !ok {
		first[base] = models.Commodity{Date: rows[0].Date, Currency: base, Source: rows[0].Source}
	}

	commodities := make([]models.Commodity, 0, len(first))
	for _, c := range first {
		commodities = append(commodities, c)
	}
	sort.Slice(commodities, func(i, j int) bool {
		if !commodities[i].Date.Equal(commodities[j].Date) {
			return commodities[i].Date.Before(commodities[j].Date)
		}
		return commodities[i].Currency < commodities[j].Currency
	})
	return commodities
}
