package beancount

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/shopspring/decimal"
)

// DefaultTolerance applies to a currency that has no decimal amount in a transaction.
var DefaultTolerance = decimal.New(5, -3)

var (
	rootNamePattern = regexp.MustCompile(`^[\p{Lu}\p{Lo}][\p{L}\p{N}-]*$`)
	currencyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9'._-]*[A-Z0-9]$|^[A-Z]$`)
)

var rootOptions = map[string]string{
	"name_assets":      "Assets",
	"name_liabilities": "Liabilities",
	"name_equity":      "Equity",
	"name_income":      "Income",
	"name_expenses":    "Expenses",
}

type openAccount struct {
	date       time.Time
	currencies map[string]bool
	pos        lexer.Position
}

type validator struct {
	errors      []error
	roots       map[string]bool
	accounts    map[string]openAccount
	commodities map[string]bool
}

// Validate checks the parsed ledger and returns every problem found, in file
// order. A nil result means the ledger is valid.
func Validate(file *File) []error {
	v := &validator{
		roots:       map[string]bool{},
		accounts:    map[string]openAccount{},
		commodities: map[string]bool{},
	}
	v.validateOptions(file)
	v.validateOpens(file)
	v.validateTransactions(file)
	return v.errors
}

func (v *validator) errorf(pos lexer.Position, format string, args ...interface{}) {
	v.errors = append(v.errors, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (v *validator) validateOptions(file *File) {
	names := map[string]string{}
	for k, name := range rootOptions {
		names[k] = name
	}
	for _, entry := range file.Entries {
		opt := entry.Option
		if opt == nil {
			continue
		}
		switch {
		case strings.HasPrefix(opt.Name, "name_"):
			if _, ok := rootOptions[opt.Name]; !ok {
				v.errorf(opt.Pos, "unknown root option %q", opt.Name)
				continue
			}
			if !rootNamePattern.MatchString(opt.Value) {
				v.errorf(opt.Pos, "invalid root account name %q for option %q", opt.Value, opt.Name)
				continue
			}
			names[opt.Name] = opt.Value
		case opt.Name == "operating_currency":
			if !currencyPattern.MatchString(opt.Value) {
				v.errorf(opt.Pos, "invalid operating currency %q", opt.Value)
			}
		}
	}
	for _, name := range names {
		v.roots[name] = true
	}
}

func (v *validator) validateOpens(file *File) {
	for _, entry := range file.Entries {
		d := entry.Dated
		if d == nil {
			continue
		}
		date, ok := v.date(d)
		if !ok {
			continue
		}
		switch {
		case d.Commodity != nil:
			if v.commodities[d.Commodity.Currency] {
				v.errorf(d.Pos, "duplicate commodity directive for %s", d.Commodity.Currency)
			}
			v.commodities[d.Commodity.Currency] = true
		case d.Open != nil:
			o := d.Open
			if !v.roots[rootOf(o.Account)] {
				v.errorf(d.Pos, "invalid account root for %s", o.Account)
				continue
			}
			if prev, exists := v.accounts[o.Account]; exists {
				v.errorf(d.Pos, "duplicate open directive for %s (first opened at line %d)", o.Account, prev.pos.Line)
				continue
			}
			currencies := map[string]bool{}
			for _, c := range o.Currencies {
				currencies[c] = true
			}
			v.accounts[o.Account] = openAccount{date: date, currencies: currencies, pos: d.Pos}
		}
	}
}

func (v *validator) validateTransactions(file *File) {
	for _, entry := range file.Entries {
		d := entry.Dated
		if d == nil || d.Transaction == nil {
			continue
		}
		date, ok := v.date(d)
		if !ok {
			continue
		}
		v.validateTransaction(d, date)
	}
}

func (v *validator) validateTransaction(d *Dated, date time.Time) {
	tx := d.Transaction
	if len(tx.Postings) == 0 {
		v.errorf(d.Pos, "transaction has no postings")
		return
	}

	elided := 0
	for _, p := range tx.Postings {
		account, open := v.accounts[p.Account]
		switch {
		case !open:
			v.errorf(p.Pos, "posting to unopened account %s", p.Account)
		case date.Before(account.date):
			v.errorf(p.Pos, "posting to %s before it was opened on %s", p.Account, account.date.Format(time.DateOnly))
		case p.Units != nil && len(account.currencies) > 0 && !account.currencies[p.Units.Currency]:
			v.errorf(p.Pos, "currency %s is not allowed for account %s", p.Units.Currency, p.Account)
		}
		if p.Units == nil {
			elided++
			if p.Price != nil {
				v.errorf(p.Pos, "posting with a price must have units")
			}
		}
	}
	if elided > 1 {
		v.errorf(d.Pos, "transaction has %d postings without amount, at most one allowed", elided)
		return
	}
	if elided == 1 {
		// The missing amount absorbs the residual.
		return
	}

	residuals, tolerances, err := balance(tx.Postings)
	if err != nil {
		v.errorf(err.Pos, "%s", err.Msg)
		return
	}
	currencies := make([]string, 0, len(residuals))
	for c := range residuals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		tolerance, ok := tolerances[c]
		if !ok {
			tolerance = DefaultTolerance
		}
		if residuals[c].Abs().GreaterThan(tolerance) {
			v.errorf(d.Pos, "transaction does not balance: %s %s", residuals[c].String(), c)
		}
	}
}

// balance sums the posting weights per currency. The tolerance of a currency
// is half a unit of the last decimal place of its least precise decimal amount.
func balance(postings []*Posting) (map[string]decimal.Decimal, map[string]decimal.Decimal, *Error) {
	residuals := map[string]decimal.Decimal{}
	tolerances := map[string]decimal.Decimal{}

	track := func(number decimal.Decimal, currency string) {
		if number.Exponent() >= 0 {
			return
		}
		t := decimal.New(5, number.Exponent()-1)
		if cur, ok := tolerances[currency]; !ok || t.GreaterThan(cur) {
			tolerances[currency] = t
		}
	}

	for _, p := range postings {
		units, err := decimal.NewFromString(p.Units.Number)
		if err != nil {
			return nil, nil, &Error{Pos: p.Pos, Msg: fmt.Sprintf("invalid number %q", p.Units.Number)}
		}
		track(units, p.Units.Currency)
		if p.Price == nil {
			residuals[p.Units.Currency] = residuals[p.Units.Currency].Add(units)
			continue
		}
		price, err := decimal.NewFromString(p.Price.Amount.Number)
		if err != nil {
			return nil, nil, &Error{Pos: p.Pos, Msg: fmt.Sprintf("invalid price %q", p.Price.Amount.Number)}
		}
		weight := price
		if !p.Price.Total {
			weight = units.Mul(price)
		} else if units.IsNegative() {
			weight = price.Neg()
		}
		currency := p.Price.Amount.Currency
		residuals[currency] = residuals[currency].Add(weight)
	}
	return residuals, tolerances, nil
}

func (v *validator) date(d *Dated) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, d.Date)
	if err != nil {
		v.errorf(d.Pos, "invalid date %s", d.Date)
		return time.Time{}, false
	}
	return date, true
}

func rootOf(account string) string {
	root, _, _ := strings.Cut(account, ":")
	return root
}
