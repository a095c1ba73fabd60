// Package gnucashparser reads a GnuCash "Export Transactions to CSV" file and
// normalizes every split into a models.PostingRow.
package gnucashparser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"fjacquet/gnucash2beancount/internal/accounts"
	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/currencyutils"
	"fjacquet/gnucash2beancount/internal/dateutils"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/models"
	"fjacquet/gnucash2beancount/internal/parsererror"
)

// exportRow binds one data record after the header has been renamed to the
// canonical column names.
type exportRow struct {
	Date                       string `csv:"Date"`
	BookingID                  string `csv:"BookingID"`
	Description                string `csv:"Description"`
	Currency                   string `csv:"Currency"`
	FullAccountName            string `csv:"FullAccountName"`
	ValueNumerical             string `csv:"ValueNumerical"`
	ValueInTransactionCurrency string `csv:"ValueInTransactionCurrency"`
	Reconciliation             string `csv:"Reconciliation"`
	Rate                       string `csv:"Rate"`
}

var requiredColumns = []string{
	config.ColumnDate,
	config.ColumnBookingID,
	config.ColumnDescription,
	config.ColumnCurrency,
	config.ColumnFullAccountName,
	config.ColumnValueNumerical,
	config.ColumnValueInTransactionCurrency,
	config.ColumnReconciliation,
	config.ColumnRate,
}

// Parser normalizes GnuCash exports according to a resolved configuration.
type Parser struct {
	cfg    *config.Config
	logger logging.Logger
}

// NewParser creates a parser. A nil logger discards log output.
func NewParser(cfg *config.Config, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Parser{cfg: cfg, logger: logger}
}

// ParseFile opens path and normalizes its rows. Files ending in .xlsx are read
// as workbooks, everything else as delimited text.
func (p *Parser) ParseFile(path string) ([]models.PostingRow, error) {
	p.logger.Info("Parsing GnuCash export", logging.F(logging.FieldFile, path))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening export: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close file", logging.F(logging.FieldFile, path))
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		table, err := NewWorkbookReader(file)
		if err != nil {
			return nil, &parsererror.ParseError{File: path, Row: -1, Field: "workbook", Value: filepath.Base(path), Err: err}
		}
		return p.ParseTable(table, path)
	}
	return p.Parse(file, path)
}

// Parse normalizes delimited text read from r. source names the input in
// errors and in every row's SourceRef.
func (p *Parser) Parse(r io.Reader, source string) ([]models.PostingRow, error) {
	delimiter := []rune(p.cfg.GnuCash.Delimiter)[0]
	p.logger.Debug("Reading delimited export",
		logging.F(logging.FieldFile, source),
		logging.F(logging.FieldDelimiter, string(delimiter)))

	table, err := NewDelimitedReader(r, delimiter, p.cfg.GnuCash.Encoding)
	if err != nil {
		return nil, &parsererror.ParseError{File: source, Row: -1, Field: "file", Value: filepath.Base(source), Err: err}
	}
	return p.ParseTable(table, source)
}

// ParseTable binds, validates and normalizes the rows of table, then
// stable-sorts them by date.
func (p *Parser) ParseTable(table *TableReader, source string) ([]models.PostingRow, error) {
	if err := p.renameColumns(table, source); err != nil {
		return nil, err
	}

	var raw []exportRow
	if table.Len() > 0 {
		if err := gocsv.UnmarshalCSV(table, &raw); err != nil {
			return nil, &parsererror.ParseError{File: source, Row: -1, Field: "header", Value: "", Err: err}
		}
	}

	rows := make([]models.PostingRow, 0, len(raw))
	for i, r := range raw {
		row, err := p.normalize(r, source, i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	p.logger.Info("Successfully parsed GnuCash export",
		logging.F(logging.FieldFile, source),
		logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// renameColumns maps the configured header labels to canonical names and
// fails on the first required column that is missing.
func (p *Parser) renameColumns(table *TableReader, source string) error {
	present := make(map[string]bool, len(table.Header()))
	for _, label := range table.Header() {
		present[label] = true
	}

	mapping := make(map[string]string, len(requiredColumns))
	for _, name := range requiredColumns {
		label := p.cfg.Column(name)
		if !present[label] {
			return &parsererror.ParseError{
				File:  source,
				Row:   -1,
				Field: "column",
				Value: label,
				Err:   fmt.Errorf("required column for %s is missing", name),
			}
		}
		mapping[label] = name
	}
	table.Rename(mapping)
	return nil
}

func (p *Parser) normalize(r exportRow, source string, index int) (models.PostingRow, error) {
	parseErr := func(column, value string, err error) error {
		return &parsererror.ParseError{File: source, Row: index, Field: p.cfg.Column(column), Value: value, Err: err}
	}
	mappingErr := func(column, value, reason string) error {
		return &parsererror.MappingError{File: source, Row: index, Field: p.cfg.Column(column), Value: value, Reason: reason}
	}

	date, _, err := dateutils.ParseDate(r.Date, p.cfg.GnuCash.DateFormat)
	if err != nil {
		return models.PostingRow{}, parseErr(config.ColumnDate, r.Date, err)
	}

	bookingID := strings.TrimSpace(r.BookingID)
	if bookingID == "" {
		return models.PostingRow{}, parseErr(config.ColumnBookingID, r.BookingID, fmt.Errorf("booking id is empty"))
	}

	format := p.cfg.NumberFormat()
	amount, err := currencyutils.ParseAmount(r.ValueNumerical, format)
	if err != nil {
		return models.PostingRow{}, parseErr(config.ColumnValueNumerical, r.ValueNumerical, err)
	}
	value, err := currencyutils.ParseAmount(r.ValueInTransactionCurrency, format)
	if err != nil {
		return models.PostingRow{}, parseErr(config.ColumnValueInTransactionCurrency, r.ValueInTransactionCurrency, err)
	}

	rate := decimal.Zero
	if strings.TrimSpace(r.Rate) != "" {
		rate, err = currencyutils.ParseRate(r.Rate, format)
		if err != nil {
			return models.PostingRow{}, parseErr(config.ColumnRate, r.Rate, err)
		}
	}

	currency := currencyutils.StripQualifier(r.Currency)
	if !currencyutils.IsCurrencyCode(currency) {
		return models.PostingRow{}, mappingErr(config.ColumnCurrency, r.Currency, "not a valid commodity name")
	}

	rawAccount := strings.TrimSpace(r.FullAccountName)
	account := p.cfg.RenameRules.Apply(rawAccount)
	if !accounts.IsValid(account) {
		return models.PostingRow{}, mappingErr(config.ColumnFullAccountName, rawAccount,
			fmt.Sprintf("sanitized name '%s' is not a valid account", account))
	}

	code := strings.TrimSpace(r.Reconciliation)
	flag, ok := p.cfg.ReconciliationFlags[code]
	if !ok {
		return models.PostingRow{}, mappingErr(config.ColumnReconciliation, r.Reconciliation,
			fmt.Sprintf("unknown reconciliation code (expected one of %s)", p.knownCodes()))
	}

	return models.PostingRow{
		Date:        date,
		BookingID:   bookingID,
		Description: strings.TrimSpace(r.Description),
		Account:     account,
		RawAccount:  rawAccount,
		Amount:      amount,
		Value:       value,
		Currency:    currency,
		Rate:        rate,
		Flag:        flag,
		Source:      models.SourceRef{File: source, Row: index},
	}, nil
}

func (p *Parser) knownCodes() string {
	codes := make([]string, 0, len(p.cfg.ReconciliationFlags))
	for code := range p.cfg.ReconciliationFlags {
		codes = append(codes, "'"+code+"'")
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}

// DateRange returns the first and last date of rows sorted by ParseTable.
func DateRange(rows []models.PostingRow) (time.Time, time.Time) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}
	}
	return rows[0].Date, rows[len(rows)-1].Date
}
