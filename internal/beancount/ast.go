// Package beancount parses and validates the subset of the Beancount language
// the converter writes: plugins, options, commodities, opens and transactions
// with metadata, postings and per-unit or total prices.
package beancount

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed ledger.
type File struct {
	Pos lexer.Position

	Entries []*Entry `( @@ EOL | EOL )*`
}

// Entry is one top-level line group.
type Entry struct {
	Pos lexer.Position

	Plugin *Plugin `  @@`
	Option *Option `| @@`
	Dated  *Dated  `| @@`
}

// Plugin loads a plugin module with an optional configuration string.
type Plugin struct {
	Pos lexer.Position

	Module string `"plugin" @String`
	Config string `@String?`
}

// Option sets a ledger option.
type Option struct {
	Pos lexer.Position

	Name  string `"option" @String`
	Value string `@String`
}

// Dated is any directive that starts with a date.
type Dated struct {
	Pos lexer.Position

	Date        string       `@Date`
	Commodity   *Commodity   `( @@`
	Open        *Open        `| @@`
	Transaction *Transaction `| @@ )`
}

// Commodity declares a currency.
type Commodity struct {
	Currency string  `"commodity" @Currency`
	Meta     []*Meta `( Indent @@ )*`
}

// Open declares an account with optional currency constraints and booking method.
type Open struct {
	Account    string   `"open" @Account`
	Currencies []string `( @Currency ( "," @Currency )* )?`
	Booking    string   `@String?`
	Meta       []*Meta  `( Indent @@ )*`
}

// Transaction is a flagged, optionally described list of postings. "txn"
// leaves Flag empty, which means "*".
type Transaction struct {
	Flag     string     `( @( "*" | "!" ) | "txn" )`
	Strings  []string   `@String*`
	Meta     []*Meta    `( Indent @@ )*`
	Postings []*Posting `( Indent @@ )*`
}

// Meta is a "key: value" line attached to the preceding directive.
type Meta struct {
	Pos lexer.Position

	Key   string `@MetaKey`
	Value string `@( String | Number | Date | Currency | Account )?`
}

// Posting is one leg of a transaction. Units may be omitted on at most one
// posting, whose amount is then inferred.
type Posting struct {
	Pos lexer.Position

	Flag    string  `@( "*" | "!" )?`
	Account string  `@Account`
	Units   *Amount `@@?`
	Price   *Price  `@@?`
}

// Amount is a number of units of a currency.
type Amount struct {
	Number   string `@Number`
	Currency string `@Currency`
}

// Price converts a posting: "@" gives the per-unit price, "@@" the total.
type Price struct {
	Total  bool    `( @"@@" | "@" )`
	Amount *Amount `@@`
}
