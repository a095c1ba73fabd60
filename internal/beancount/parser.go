package beancount

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Indent is one or more line breaks followed by leading whitespace; it
// introduces the metadata and posting lines of the preceding directive.
// Blank and comment-only lines are emptied before lexing, so an Indent
// always precedes content. Unindented lines start with EOL.
var beancountLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "Indent", Pattern: `\n+[ \t]+`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}`},
	{Name: "Account", Pattern: `[\p{Lu}\p{Lo}][\p{L}\p{N}-]*(?::[\p{Lu}\p{Lo}\p{N}][\p{L}\p{N}-]*)+`},
	{Name: "Number", Pattern: `[-+]?(?:\d+(?:\.\d*)?|\.\d+)`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Currency", Pattern: `[A-Z][A-Z0-9'._-]*[A-Z0-9]|[A-Z]`},
	{Name: "MetaKey", Pattern: `[a-z][a-zA-Z0-9_-]*:`},
	{Name: "Ident", Pattern: `[a-z][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `@@|[@!*,]`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

var parser = participle.MustBuild[File](
	participle.Lexer(beancountLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses src. filename is only used in positions.
func Parse(filename string, src []byte) (*File, error) {
	src = normalizeLines(src)
	if src[0] == ' ' || src[0] == '\t' {
		return nil, &Error{
			Pos: lexer.Position{Filename: filename, Line: 1, Column: 1},
			Msg: "unexpected indentation",
		}
	}
	file, err := parser.ParseBytes(filename, src)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &Error{Pos: perr.Position(), Msg: perr.Message()}
		}
		return nil, err
	}
	return file, nil
}

// normalizeLines empties whitespace-only and comment-only lines and makes sure
// src ends with a line break. Line numbers are preserved.
func normalizeLines(src []byte) []byte {
	lines := bytes.Split(src, []byte("\n"))
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == ';' {
			lines[i] = nil
		}
	}
	out := bytes.Join(lines, []byte("\n"))
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}

// ParseFile reads and parses the ledger at path.
func ParseFile(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading ledger: %w", err)
	}
	return Parse(path, src)
}

// Error is a parse or validation problem at a position in the ledger.
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Pos.Filename, e.Pos.Line, e.Msg)
}
