// Package converter runs the GnuCash to Beancount pipeline: normalize the
// export, build directives, render the ledger and verify what was written.
package converter

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/dateutils"
	"fjacquet/gnucash2beancount/internal/directive"
	"fjacquet/gnucash2beancount/internal/gnucashparser"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/renderer"
	"fjacquet/gnucash2beancount/internal/verifier"
)

// Result summarizes a successful run.
type Result struct {
	RunID        string
	Output       string
	Rows         int
	Transactions int
	Opens        int
	Commodities  int
	From, To     time.Time
	Duration     time.Duration
}

// Converter converts one export per call to Convert. It keeps no state
// between runs other than its configuration.
type Converter struct {
	cfg      *config.Config
	logger   logging.Logger
	observer directive.Observer
}

// New creates a converter. A nil logger discards log output.
func New(cfg *config.Config, logger logging.Logger) *Converter {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Converter{cfg: cfg, logger: logger}
}

// SetObserver receives progress while transactions are built.
func (c *Converter) SetObserver(o directive.Observer) {
	c.observer = o
}

// Convert reads the export at inputPath and writes the verified ledger to
// outputPath. Nothing is written when normalizing or building fails; a ledger
// that fails verification stays on disk and the VerificationError is returned.
func (c *Converter) Convert(inputPath, outputPath string) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString(), Output: outputPath}
	log := c.logger.WithFields(
		logging.F(logging.FieldRunID, result.RunID),
		logging.F(logging.FieldInputFile, inputPath),
		logging.F(logging.FieldOutputFile, outputPath),
	)
	log.Info("Starting conversion")

	rows, err := gnucashparser.NewParser(c.cfg, log).ParseFile(inputPath)
	if err != nil {
		return nil, err
	}
	result.Rows = len(rows)
	result.From, result.To = gnucashparser.DateRange(rows)
	if len(rows) > 0 {
		log.Info("Normalized export",
			logging.F(logging.FieldStage, "normalize"),
			logging.F(logging.FieldCount, len(rows)),
			logging.F("from", dateutils.ToISODate(result.From)),
			logging.F("to", dateutils.ToISODate(result.To)))
	} else {
		log.Warn("Export contains no data rows", logging.F(logging.FieldStage, "normalize"))
	}

	builder := directive.NewBuilder(c.cfg, log)
	builder.SetObserver(c.observer)
	ledger, err := builder.Build(rows)
	if err != nil {
		return nil, err
	}
	result.Transactions = len(ledger.Transactions)
	result.Opens = len(ledger.Opens)
	result.Commodities = len(ledger.Commodities)
	log.Debug("Built directives",
		logging.F(logging.FieldStage, "build"),
		logging.F("transactions", result.Transactions),
		logging.F("opens", result.Opens),
		logging.F("commodities", result.Commodities))

	if err := renderer.NewRenderer(c.cfg, log).WriteFile(outputPath, ledger); err != nil {
		return nil, fmt.Errorf("error writing output file: %w", err)
	}

	if err := verifier.NewVerifier(log).Verify(outputPath); err != nil {
		log.Error("Ledger failed verification",
			logging.F(logging.FieldStage, "verify"),
			logging.F(logging.FieldError, err.Error()))
		return nil, err
	}

	result.Duration = time.Since(start)
	log.Info("Conversion completed",
		logging.F(logging.FieldCount, result.Transactions),
		logging.F(logging.FieldDuration, result.Duration.Milliseconds()))
	return result, nil
}
