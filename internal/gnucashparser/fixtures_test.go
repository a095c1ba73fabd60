package gnucashparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fjacquet/gnucash2beancount/internal/config"
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

const referenceHeader = `"Datum","BuchungsID","Nummer","Beschreibung","Bemerkungen","Währung/Wertpapier","Stornierungsbegründung","Aktion","Buchungstext","Volle Kontobezeichnung","Kontobezeichnung","Wert mit Symbol","Wert numerisch.","Wert mit Symbol","Wert numerisch.","Abgleichen","Datum des Abgleichs","Kurs/Preis"`

const referenceExport = `
` + referenceHeader + `
"01.05.2024","5402cb3842794f8184295a3b74e229d0","","Opening","","CURRENCY::EUR","","","","Assets:Current Assets:Checking Account","Checking Account","10.000,00 €","10.000,00","10.000,00 €","10.000,00","n","","1,0000"
"01.05.2024","5402cb3842794f8184295a3b74e229d0","","Opening","","CURRENCY::EUR","","","","Equity:Opening Balances","Opening Balances","-10.000,00 €","-10.000,00","-10.000,00 €","-10.000,00","n","","1,0000"
"03.05.2024","f1fc057ef504470f85712d10ce5c34db","","Groceries","","CURRENCY::EUR","","","","Assets:Current Assets:Checking Account","Checking Account","-120,00 €","-120,00","-120,00 €","-120,00","n","","1,0000"
"03.05.2024","f1fc057ef504470f85712d10ce5c34db","","Groceries","","CURRENCY::EUR","","","","Expenses:Groceries","Groceries","120,00 €","120,00","120,00 €","120,00","n","","1,0000"
"09.05.2024","feebbd5bb02a483da3f0b608a0544e89","","MoneyTransfer","","CURRENCY::NZD","","","","Assets:Current Assets:Checking Account","Checking Account","-27,95 €","-27,95","-50,00 NZ$","-50,00","n","","1 + 441/559"
"09.05.2024","feebbd5bb02a483da3f0b608a0544e89","","MoneyTransfer","","CURRENCY::NZD","","","","Assets:Current Assets:Wallet (NZD)","Wallet (NZD)","50,00 NZ$","50,00","50,00 NZ$","50,00","n","","1,0000"
"06.05.2024","6ed68bc4dfbc44d9ab4651b50272251a","","Transfer","","CURRENCY::EUR","","","","Assets:Current Assets:Checking Account","Checking Account","-1.000,00 €","-1.000,00","-1.000,00 €","-1.000,00","n","","1,0000"
"06.05.2024","6ed68bc4dfbc44d9ab4651b50272251a","","Transfer","","CURRENCY::EUR","","","","Assets:Current Assets:CheckingAccount (Foo&Bank)","CheckingAccount (Foo&Bank)","1.000,00 €","1.000,00","1.000,00 €","1.000,00","n","","1,0000"
        `

func resolveConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	for _, key := range []string{"G2B_LOGLEVEL", "G2B_LOGFORMAT", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	cfg, err := config.Resolve(path)
	require.NoError(t, err)
	return cfg
}
