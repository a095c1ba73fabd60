// Package accounts turns GnuCash account paths into valid ledger account names
// by applying an ordered list of regex rewrite rules.
package accounts

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Rule rewrites every match of Pattern. Replacement uses Go's ${n} syntax;
// when Func is set it is called for each match instead.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Func        func(string) string
}

// NewRule compiles a user rule. Python style back-references (\1, \g<name>)
// in the replacement are translated to ${1} and ${name}.
func NewRule(pattern, replacement string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid account rename pattern '%s': %w", pattern, err)
	}
	return Rule{Pattern: re, Replacement: TranslateBackrefs(replacement)}, nil
}

// Apply rewrites s with the rule.
func (r Rule) Apply(s string) string {
	if r.Func != nil {
		return r.Pattern.ReplaceAllStringFunc(s, r.Func)
	}
	return r.Pattern.ReplaceAllString(s, r.Replacement)
}

// String renders the rule as "pattern -> replacement".
func (r Rule) String() string {
	if r.Func != nil {
		return r.Pattern.String() + " -> func"
	}
	return r.Pattern.String() + " -> " + r.Replacement
}

// Rules is applied front to back, each rule seeing the output of the previous one.
type Rules []Rule

// Apply runs every rule over name.
func (rs Rules) Apply(name string) string {
	for _, r := range rs {
		name = r.Apply(name)
	}
	return name
}

// Contains reports whether a rule with the given pattern and replacement is present.
func (rs Rules) Contains(pattern, replacement string) bool {
	for _, r := range rs {
		if r.Pattern.String() == pattern && r.Func == nil && r.Replacement == replacement {
			return true
		}
	}
	return false
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// BuiltinRules returns the rules appended after the user rules. Together they
// map any account path onto colon separated, title-cased, hyphenated segments.
func BuiltinRules() Rules {
	return Rules{
		{Pattern: regexp.MustCompile(`(?s).+`), Func: norm.NFC.String},
		{Pattern: regexp.MustCompile(`\s`), Replacement: "-"},
		{Pattern: regexp.MustCompile(`&`), Replacement: "-"},
		{Pattern: regexp.MustCompile(`[()\[\]{}]`), Replacement: ""},
		{Pattern: regexp.MustCompile(`[^\p{L}\p{N}:-]`), Replacement: "-"},
		{Pattern: regexp.MustCompile(`-{2,}`), Replacement: "-"},
		{Pattern: regexp.MustCompile(`-*:-*`), Replacement: ":"},
		{Pattern: regexp.MustCompile(`^-+|-+$`), Replacement: ""},
		{Pattern: wordRe, Func: titleWord},
		// lower-casing can decompose, e.g. İ becomes i plus U+0307
		{Pattern: regexp.MustCompile(`\p{M}+`), Replacement: ""},
	}
}

// titleWord upper-cases the first letter of a word and lower-cases the rest.
// A title-case digraph such as ǅ is replaced by its upper-case form.
// A new caser per call keeps the rule safe for concurrent use.
func titleWord(w string) string {
	w = cases.Title(language.Und).String(w)
	if r, size := utf8.DecodeRuneInString(w); unicode.IsTitle(r) {
		w = string(unicode.ToUpper(r)) + w[size:]
	}
	return w
}

var segmentRe = regexp.MustCompile(`^[\p{Lu}\p{Lo}\p{N}][\p{L}\p{N}-]*$`)

// IsValid reports whether name is a colon separated account path of at least
// two segments, each starting with an upper-case or uncased letter or a digit.
func IsValid(name string) bool {
	segments := strings.Split(name, ":")
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if !segmentRe.MatchString(seg) {
			return false
		}
	}
	return true
}

// TranslateBackrefs converts a Python re.sub replacement into the syntax of
// regexp.Expand: \1 and \g<1> become ${1}, \g<name> becomes ${name}, \\ is a
// literal backslash and a literal $ is escaped as $$.
func TranslateBackrefs(repl string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		switch {
		case c == '$':
			b.WriteString("$$")
		case c == '\\' && i+1 < len(repl):
			next := repl[i+1]
			switch {
			case next >= '0' && next <= '9':
				j := i + 1
				for j < len(repl) && j < i+3 && repl[j] >= '0' && repl[j] <= '9' {
					j++
				}
				b.WriteString("${" + repl[i+1:j] + "}")
				i = j - 1
			case next == 'g' && i+2 < len(repl) && repl[i+2] == '<':
				end := strings.IndexByte(repl[i+3:], '>')
				if end < 0 {
					b.WriteByte(c)
					continue
				}
				b.WriteString("${" + repl[i+3:i+3+end] + "}")
				i = i + 3 + end
			case next == '\\':
				b.WriteByte('\\')
				i++
			default:
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
