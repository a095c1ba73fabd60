// Package verifier re-reads a written ledger with the Beancount parser and
// validator.
package verifier

import (
	"errors"

	"fjacquet/gnucash2beancount/internal/beancount"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/parsererror"
)

// Verifier checks Beancount files on disk.
type Verifier struct {
	logger logging.Logger
}

// NewVerifier creates a verifier. A nil logger discards log output.
func NewVerifier(logger logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Verifier{logger: logger}
}

// Verify parses and validates the ledger at path. Every problem is reported
// in one *parsererror.VerificationError; the file itself is never touched.
func (v *Verifier) Verify(path string) error {
	file, err := beancount.ParseFile(path)
	if err != nil {
		var syntaxErr *beancount.Error
		if !errors.As(err, &syntaxErr) {
			return err
		}
		v.logger.Debug("Ledger does not parse",
			logging.F(logging.FieldFile, path),
			logging.F(logging.FieldError, err.Error()))
		return &parsererror.VerificationError{File: path, Errors: []error{err}}
	}

	if errs := beancount.Validate(file); len(errs) > 0 {
		v.logger.Debug("Ledger failed validation",
			logging.F(logging.FieldFile, path),
			logging.F(logging.FieldCount, len(errs)))
		return &parsererror.VerificationError{File: path, Errors: errs}
	}

	v.logger.Debug("Ledger verified",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(file.Entries)))
	return nil
}
