// Package config resolves the converter's YAML configuration file into an
// immutable Config: yaml.v3 decodes the document, viper layers environment
// overrides over the converter section.
package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"

	"fjacquet/gnucash2beancount/internal/accounts"
	"fjacquet/gnucash2beancount/internal/currencyutils"
	"fjacquet/gnucash2beancount/internal/fileutils"
	"fjacquet/gnucash2beancount/internal/models"
	"fjacquet/gnucash2beancount/internal/parsererror"
)

// Section names of the configuration document.
const (
	SectionConverter = "converter"
	SectionGnuCash   = "gnucash"
	SectionBeancount = "beancount"
)

// Canonical column names of the export.
const (
	ColumnDate                       = "Date"
	ColumnBookingID                  = "BookingID"
	ColumnDescription                = "Description"
	ColumnCurrency                   = "Currency"
	ColumnFullAccountName            = "FullAccountName"
	ColumnValueNumerical             = "ValueNumerical"
	ColumnValueInTransactionCurrency = "ValueInTransactionCurrency"
	ColumnReconciliation             = "Reconciliation"
	ColumnRate                       = "Rate"
)

// DefaultColumns maps every canonical column to its header label in a
// German-localised GnuCash export. The second "Wert numerisch." column is
// addressed by its positional suffix.
func DefaultColumns() map[string]string {
	return map[string]string{
		ColumnDate:                       "Datum",
		ColumnBookingID:                  "BuchungsID",
		ColumnDescription:                "Beschreibung",
		ColumnCurrency:                   "Währung/Wertpapier",
		ColumnFullAccountName:            "Volle Kontobezeichnung",
		ColumnValueNumerical:             "Wert numerisch.",
		ColumnValueInTransactionCurrency: "Wert numerisch..1",
		ColumnReconciliation:             "Abgleichen",
		ColumnRate:                       "Kurs/Preis",
	}
}

// ConverterConfig holds the converter's own settings.
type ConverterConfig struct {
	LogLevel  string `yaml:"loglevel"`
	LogFormat string `yaml:"logformat"`
}

// GnuCashConfig describes the export being read.
type GnuCashConfig struct {
	DefaultCurrency             string            `yaml:"default_currency"`
	ThousandsSymbol             string            `yaml:"thousands_symbol"`
	DecimalSymbol               string            `yaml:"decimal_symbol"`
	ReconciledSymbol            string            `yaml:"reconciled_symbol"`
	NotReconciledSymbol         string            `yaml:"not_reconciled_symbol"`
	ClearedSymbol               string            `yaml:"cleared_symbol"`
	AccountRenamePatterns       [][]string        `yaml:"account_rename_patterns"`
	NonDefaultAccountCurrencies map[string]string `yaml:"non_default_account_currencies"`
	Delimiter                   string            `yaml:"delimiter"`
	Encoding                    string            `yaml:"encoding"`
	DateFormat                  string            `yaml:"date_format"`
	Columns                     map[string]string `yaml:"columns"`
}

// BeancountConfig describes the ledger being written.
type BeancountConfig struct {
	Options        [][]string `yaml:"options"`
	Plugins        []string   `yaml:"plugins"`
	BookingMethod  string     `yaml:"booking_method"`
	Flag           string     `yaml:"flag"`
	SourceMetadata bool       `yaml:"source_metadata"`
	PostingFlags   bool       `yaml:"posting_flags"`
}

type document struct {
	Converter ConverterConfig `yaml:"converter"`
	GnuCash   GnuCashConfig   `yaml:"gnucash"`
	Beancount BeancountConfig `yaml:"beancount"`
}

// Config is the resolved configuration. It is not modified after Resolve returns.
type Config struct {
	Path      string
	Converter ConverterConfig
	GnuCash   GnuCashConfig
	Beancount BeancountConfig

	// RenameRules holds the user rules in file order followed by accounts.BuiltinRules.
	RenameRules accounts.Rules
	// ReconciliationFlags maps a reconciliation code of the export to a ledger flag.
	ReconciliationFlags map[string]models.Flag
	// TransactionFlag is the flag every transaction is written with.
	TransactionFlag models.Flag
	// Options are the ledger's (key, value) option pairs in file order.
	Options [][2]string
}

// NumberFormat returns the thousands and decimal symbols of the export.
func (c *Config) NumberFormat() currencyutils.NumberFormat {
	return currencyutils.NumberFormat{Thousands: c.GnuCash.ThousandsSymbol, Decimal: c.GnuCash.DecimalSymbol}
}

// AccountCurrency returns the commodity an account is held in.
func (c *Config) AccountCurrency(account string) string {
	if cur, ok := c.GnuCash.NonDefaultAccountCurrencies[account]; ok {
		return cur
	}
	return c.GnuCash.DefaultCurrency
}

// Column returns the header label configured for a canonical column.
func (c *Config) Column(name string) string {
	if label, ok := c.GnuCash.Columns[name]; ok {
		return label
	}
	return DefaultColumns()[name]
}

func defaults() document {
	return document{
		Converter: ConverterConfig{LogLevel: "info", LogFormat: "text"},
		GnuCash: GnuCashConfig{
			DefaultCurrency:     "EUR",
			ThousandsSymbol:     currencyutils.DefaultNumberFormat.Thousands,
			DecimalSymbol:       currencyutils.DefaultNumberFormat.Decimal,
			ReconciledSymbol:    "y",
			NotReconciledSymbol: "n",
			ClearedSymbol:       "c",
			Delimiter:           ",",
			Encoding:            "utf-8",
		},
		Beancount: BeancountConfig{
			BookingMethod: models.DefaultBookingMethod,
			Flag:          string(models.FlagWarning),
		},
	}
}

// Resolve reads the configuration file at path once and returns the resolved
// Config. Every structural problem is reported as a *parsererror.ConfigError.
func Resolve(path string) (*Config, error) {
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return nil, &parsererror.ConfigError{Path: path, Reason: "cannot read file", Err: err}
	}
	return resolve(path, data)
}

// Default returns the built-in configuration with the environment overrides
// of the converter section applied. Path is empty.
func Default() (*Config, error) {
	return resolve("", nil)
}

func resolve(path string, data []byte) (*Config, error) {
	explicit, err := checkStructure(path, data)
	if err != nil {
		return nil, err
	}

	doc := defaults()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &parsererror.ConfigError{Path: path, Reason: "invalid setting", Err: err}
	}

	converter, err := resolveConverter(path, data)
	if err != nil {
		return nil, err
	}
	doc.Converter = converter

	cfg := &Config{
		Path:      path,
		Converter: doc.Converter,
		GnuCash:   doc.GnuCash,
		Beancount: doc.Beancount,
	}
	if err := cfg.complete(explicit); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkStructure requires a mapping at the top level and for every known
// section. It returns the gnucash keys the document sets.
func checkStructure(path string, data []byte) (map[string]bool, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &parsererror.ConfigError{Path: path, Reason: "invalid YAML", Err: err}
	}
	explicit := make(map[string]bool)
	if raw == nil {
		return explicit, nil
	}
	top, ok := asMapping(raw)
	if !ok {
		return nil, &parsererror.ConfigError{Path: path, Reason: fmt.Sprintf("top level must be a mapping, got %T", raw)}
	}
	for _, name := range []string{SectionConverter, SectionGnuCash, SectionBeancount} {
		section, present := top[name]
		if !present || section == nil {
			continue
		}
		m, ok := asMapping(section)
		if !ok {
			return nil, &parsererror.ConfigError{Path: path, Reason: fmt.Sprintf("section '%s' must be a mapping, got %T", name, section)}
		}
		if name == SectionGnuCash {
			for key := range m {
				explicit[key] = true
			}
		}
	}
	return explicit, nil
}

func asMapping(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// resolveConverter feeds the document to viper so the converter section picks
// up G2B_LOGLEVEL, G2B_LOGFORMAT and the plain LOG_LEVEL / LOG_FORMAT variables.
func resolveConverter(path string, data []byte) (ConverterConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("converter.loglevel", "info")
	v.SetDefault("converter.logformat", "text")

	v.SetEnvPrefix("G2B")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("converter.loglevel", "G2B_LOGLEVEL", "LOG_LEVEL"); err != nil {
		return ConverterConfig{}, &parsererror.ConfigError{Path: path, Reason: "cannot bind environment", Err: err}
	}
	if err := v.BindEnv("converter.logformat", "G2B_LOGFORMAT", "LOG_FORMAT"); err != nil {
		return ConverterConfig{}, &parsererror.ConfigError{Path: path, Reason: "cannot bind environment", Err: err}
	}

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return ConverterConfig{}, &parsererror.ConfigError{Path: path, Reason: "invalid YAML", Err: err}
	}

	converter := ConverterConfig{
		LogLevel:  v.GetString("converter.loglevel"),
		LogFormat: v.GetString("converter.logformat"),
	}

	if _, err := logrus.ParseLevel(converter.LogLevel); err != nil {
		return ConverterConfig{}, &parsererror.ConfigError{Path: path, Reason: fmt.Sprintf("invalid log level '%s'", converter.LogLevel)}
	}
	format := strings.ToLower(converter.LogFormat)
	if format != "text" && format != "json" {
		return ConverterConfig{}, &parsererror.ConfigError{Path: path, Reason: fmt.Sprintf("invalid log format '%s' (must be 'text' or 'json')", converter.LogFormat)}
	}
	converter.LogFormat = format
	return converter, nil
}

var bookingMethods = map[string]bool{
	"STRICT":           true,
	"STRICT_WITH_SIZE": true,
	"FIFO":             true,
	"LIFO":             true,
	"HIFO":             true,
	"AVERAGE":          true,
	"NONE":             true,
}

// complete validates the decoded sections and derives the rule list, the
// reconciliation mapping and the option pairs. explicit holds the gnucash keys
// set in the file.
func (c *Config) complete(explicit map[string]bool) error {
	invalid := func(format string, args ...interface{}) error {
		return &parsererror.ConfigError{Path: c.Path, Reason: fmt.Sprintf(format, args...)}
	}

	g := &c.GnuCash
	g.DefaultCurrency = strings.TrimSpace(g.DefaultCurrency)
	if !currencyutils.IsCurrencyCode(g.DefaultCurrency) {
		return invalid("invalid default_currency '%s'", g.DefaultCurrency)
	}
	for account, cur := range g.NonDefaultAccountCurrencies {
		if !currencyutils.IsCurrencyCode(cur) {
			return invalid("invalid currency '%s' for account '%s'", cur, account)
		}
	}

	if g.DecimalSymbol == "" {
		return invalid("decimal_symbol must not be empty")
	}
	if g.ThousandsSymbol == g.DecimalSymbol {
		return invalid("thousands_symbol and decimal_symbol must differ, both are '%s'", g.DecimalSymbol)
	}

	states := []struct {
		key    string
		symbol string
		flag   models.Flag
	}{
		{"reconciled_symbol", g.ReconciledSymbol, models.FlagOkay},
		{"not_reconciled_symbol", g.NotReconciledSymbol, models.FlagWarning},
		{"cleared_symbol", g.ClearedSymbol, models.FlagWarning},
	}
	// symbols set in the file are claimed first; a default that collides
	// with one of them is dropped
	sort.SliceStable(states, func(i, j int) bool {
		return explicit[states[i].key] && !explicit[states[j].key]
	})
	symbols := map[string]models.Flag{}
	for _, s := range states {
		if s.symbol == "" {
			return invalid("%s must not be empty", s.key)
		}
		if _, dup := symbols[s.symbol]; dup {
			if !explicit[s.key] {
				continue
			}
			return invalid("%s '%s' is already used by another reconciliation state", s.key, s.symbol)
		}
		symbols[s.symbol] = s.flag
	}
	c.ReconciliationFlags = symbols

	if utf8.RuneCountInString(g.Delimiter) != 1 {
		return invalid("delimiter must be a single character, got '%s'", g.Delimiter)
	}
	if enc, err := ianaindex.IANA.Encoding(g.Encoding); err != nil || enc == nil {
		return &parsererror.ConfigError{Path: c.Path, Reason: fmt.Sprintf("unknown encoding '%s'", g.Encoding), Err: err}
	}

	known := DefaultColumns()
	for name := range g.Columns {
		if _, ok := known[name]; !ok {
			return invalid("unknown column '%s' in gnucash.columns", name)
		}
	}

	rules := make(accounts.Rules, 0, len(g.AccountRenamePatterns)+8)
	for i, pair := range g.AccountRenamePatterns {
		if len(pair) != 2 {
			return invalid("account_rename_patterns[%d] must be a [pattern, replacement] pair", i)
		}
		rule, err := accounts.NewRule(pair[0], pair[1])
		if err != nil {
			return &parsererror.ConfigError{Path: c.Path, Reason: fmt.Sprintf("account_rename_patterns[%d]", i), Err: err}
		}
		rules = append(rules, rule)
	}
	c.RenameRules = append(rules, accounts.BuiltinRules()...)

	b := &c.Beancount
	b.BookingMethod = strings.ToUpper(strings.TrimSpace(b.BookingMethod))
	if !bookingMethods[b.BookingMethod] {
		return invalid("unknown booking_method '%s'", b.BookingMethod)
	}
	flag, err := models.ParseFlag(b.Flag)
	if err != nil || flag == models.FlagNone {
		return invalid("flag must be '*' or '!', got '%s'", b.Flag)
	}
	c.TransactionFlag = flag

	for i, opt := range b.Options {
		if len(opt) != 2 {
			return invalid("beancount.options[%d] must be a [key, value] pair", i)
		}
		c.Options = append(c.Options, [2]string{opt[0], opt[1]})
	}
	for i, plugin := range b.Plugins {
		if strings.TrimSpace(plugin) == "" {
			return invalid("beancount.plugins[%d] must not be empty", i)
		}
	}
	return nil
}
