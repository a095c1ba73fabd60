package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/gnucash2beancount/internal/models"
	"fjacquet/gnucash2beancount/internal/parsererror"
)

const referenceConfig = `converter:
  loglevel: INFO
gnucash:
  default_currency: EUR
  thousands_symbol: "."
  decimal_symbol: ","
  reconciled_symbol: b
  not_reconciled_symbol: n
  account_rename_patterns:
    - ['Assets:Bank:Some Bank \(test\)', 'Assets:Bank:Some Test Bank']
    - ['Assets:Bank:Some USD Bank ', 'Assets:Bank:Some Bank (USD)']
    - ['Expenses:Groceries', 'Expenses:MyGroceries']
  non_default_account_currencies:
    Assets:Current-Assets:Wallet-Nzd: NZD
beancount:
  options:
    - [operating_currency, EUR]
    - [title, Exported GnuCash Book]
  plugins:
    - beancount.plugins.auto
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func clearTestEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{"G2B_LOGLEVEL", "G2B_LOGFORMAT", "LOG_LEVEL", "LOG_FORMAT", "G2B_CONVERTER_LOGLEVEL", "G2B_CONVERTER_LOGFORMAT"} {
		t.Setenv(key, "")
	}
}

func TestResolve_ReferenceConfig(t *testing.T) {
	clearTestEnvVars(t)

	cfg, err := Resolve(writeConfig(t, referenceConfig))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Converter.LogLevel)
	assert.Equal(t, "text", cfg.Converter.LogFormat)
	assert.Equal(t, "EUR", cfg.GnuCash.DefaultCurrency)
	assert.Equal(t, "c", cfg.GnuCash.ClearedSymbol)
	assert.Equal(t, ",", cfg.GnuCash.Delimiter)
	assert.Equal(t, "FIFO", cfg.Beancount.BookingMethod)
	assert.Equal(t, models.FlagWarning, cfg.TransactionFlag)

	assert.Equal(t, map[string]models.Flag{"b": models.FlagOkay, "n": models.FlagWarning, "c": models.FlagWarning}, cfg.ReconciliationFlags)
	assert.Equal(t, [][2]string{{"operating_currency", "EUR"}, {"title", "Exported GnuCash Book"}}, cfg.Options)
	assert.Equal(t, []string{"beancount.plugins.auto"}, cfg.Beancount.Plugins)

	assert.Equal(t, "NZD", cfg.AccountCurrency("Assets:Current-Assets:Wallet-Nzd"))
	assert.Equal(t, "EUR", cfg.AccountCurrency("Assets:Current-Assets:Checking-Account"))

	// user rules first, built-ins appended
	assert.Len(t, cfg.RenameRules, 3+8)
	assert.Equal(t, `Assets:Bank:Some Bank \(test\)`, cfg.RenameRules[0].Pattern.String())
	assert.True(t, cfg.RenameRules.Contains(`\s`, "-"))
	assert.Equal(t, "Expenses:Mygroceries", cfg.RenameRules.Apply("Expenses:Groceries"))
}

func TestResolve_Defaults(t *testing.T) {
	clearTestEnvVars(t)

	cfg, err := Resolve(writeConfig(t, "converter:\n  loglevel: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Converter.LogLevel)
	assert.Equal(t, "EUR", cfg.GnuCash.DefaultCurrency)
	assert.Equal(t, ".", cfg.GnuCash.ThousandsSymbol)
	assert.Equal(t, ",", cfg.GnuCash.DecimalSymbol)
	assert.Equal(t, "utf-8", cfg.GnuCash.Encoding)
	assert.Equal(t, map[string]models.Flag{"y": models.FlagOkay, "n": models.FlagWarning, "c": models.FlagWarning}, cfg.ReconciliationFlags)
	assert.Empty(t, cfg.Options)
	assert.Empty(t, cfg.Beancount.Plugins)
	assert.Len(t, cfg.RenameRules, 8)
	assert.Equal(t, "Datum", cfg.Column(ColumnDate))
	assert.Equal(t, "Wert numerisch..1", cfg.Column(ColumnValueInTransactionCurrency))
}

func TestResolve_EmptyFile(t *testing.T) {
	clearTestEnvVars(t)

	cfg, err := Resolve(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Converter.LogLevel)
	assert.Equal(t, "EUR", cfg.GnuCash.DefaultCurrency)
}

func TestResolve_ColumnOverride(t *testing.T) {
	clearTestEnvVars(t)

	cfg, err := Resolve(writeConfig(t, "gnucash:\n  columns:\n    Date: Date\n    Rate: Price\n"))
	require.NoError(t, err)
	assert.Equal(t, "Date", cfg.Column(ColumnDate))
	assert.Equal(t, "Price", cfg.Column(ColumnRate))
	assert.Equal(t, "BuchungsID", cfg.Column(ColumnBookingID))
}

func TestResolve_EnvironmentOverrides(t *testing.T) {
	clearTestEnvVars(t)
	t.Setenv("G2B_LOGLEVEL", "warn")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Resolve(writeConfig(t, referenceConfig))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Converter.LogLevel)
	assert.Equal(t, "json", cfg.Converter.LogFormat)
}

func TestDefault(t *testing.T) {
	clearTestEnvVars(t)

	cfg, err := Default()
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "info", cfg.Converter.LogLevel)
	assert.Equal(t, "EUR", cfg.GnuCash.DefaultCurrency)
	assert.Equal(t, map[string]models.Flag{"y": models.FlagOkay, "n": models.FlagWarning, "c": models.FlagWarning}, cfg.ReconciliationFlags)

	t.Setenv("LOG_LEVEL", "debug")
	cfg, err = Default()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Converter.LogLevel)

	t.Setenv("LOG_LEVEL", "loud")
	_, err = Default()
	var cfgErr *parsererror.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"invalid yaml", "some : invalid : yaml", "invalid YAML"},
		{"top level list", "- a\n- b\n", "top level must be a mapping"},
		{"top level scalar", "just text", "top level must be a mapping"},
		{"section not a mapping", "gnucash: [1, 2]\n", "section 'gnucash' must be a mapping"},
		{"bad rename regex", "gnucash:\n  account_rename_patterns:\n    - ['Assets:(', 'x']\n", "account_rename_patterns[0]"},
		{"rename not a pair", "gnucash:\n  account_rename_patterns:\n    - ['Assets']\n", "must be a [pattern, replacement] pair"},
		{"same symbols", "gnucash:\n  thousands_symbol: ','\n  decimal_symbol: ','\n", "must differ"},
		{"duplicate reconciliation symbol", "gnucash:\n  reconciled_symbol: n\n  not_reconciled_symbol: n\n", "already used"},
		{"bad currency", "gnucash:\n  default_currency: euro\n", "invalid default_currency"},
		{"bad account currency", "gnucash:\n  non_default_account_currencies:\n    Assets:Cash: nz$\n", "invalid currency"},
		{"long delimiter", "gnucash:\n  delimiter: ';;'\n", "single character"},
		{"unknown encoding", "gnucash:\n  encoding: klingon\n", "unknown encoding"},
		{"unknown column", "gnucash:\n  columns:\n    Payee: Empfänger\n", "unknown column"},
		{"bad booking method", "beancount:\n  booking_method: RANDOM\n", "unknown booking_method"},
		{"bad flag", "beancount:\n  flag: x\n", "flag must be"},
		{"option not a pair", "beancount:\n  options:\n    - [title]\n", "[key, value] pair"},
		{"bad log level", "converter:\n  loglevel: loud\n", "invalid log level"},
		{"bad log format", "converter:\n  logformat: xml\n", "invalid log format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnvVars(t)

			_, err := Resolve(writeConfig(t, tc.content))
			require.Error(t, err)

			var cfgErr *parsererror.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
			assert.Contains(t, err.Error(), "Error while parsing config file")
			assert.Contains(t, err.Error(), tc.reason)
		})
	}
}

func TestResolve_ExplicitSymbolOverridesDefault(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]models.Flag
	}{
		{
			name:     "reconciled takes the cleared default",
			content:  "gnucash:\n  reconciled_symbol: c\n",
			expected: map[string]models.Flag{"c": models.FlagOkay, "n": models.FlagWarning},
		},
		{
			name:     "cleared takes the not reconciled default",
			content:  "gnucash:\n  cleared_symbol: n\n",
			expected: map[string]models.Flag{"y": models.FlagOkay, "n": models.FlagWarning},
		},
		{
			name:     "not reconciled takes the reconciled default",
			content:  "gnucash:\n  not_reconciled_symbol: y\n",
			expected: map[string]models.Flag{"y": models.FlagWarning, "c": models.FlagWarning},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnvVars(t)

			cfg, err := Resolve(writeConfig(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.ReconciliationFlags)
		})
	}
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *parsererror.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "cannot read file", cfgErr.Reason)
}
