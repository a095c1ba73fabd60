package models

import "fmt"

// Flag is the single-character status of a transaction or posting.
type Flag string

const (
	// FlagOkay marks a completed (reconciled) entry.
	FlagOkay Flag = "*"
	// FlagWarning marks an entry that still needs review.
	FlagWarning Flag = "!"
	// FlagNone means no flag is rendered.
	FlagNone Flag = ""
)

// ParseFlag accepts the two ledger flags and the empty flag.
func ParseFlag(s string) (Flag, error) {
	switch Flag(s) {
	case FlagOkay, FlagWarning, FlagNone:
		return Flag(s), nil
	}
	return FlagNone, fmt.Errorf("invalid flag '%s': expected '*' or '!'", s)
}

// String implements fmt.Stringer
func (f Flag) String() string {
	return string(f)
}
