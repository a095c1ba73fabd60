// Package renderer writes a models.Ledger as Beancount text.
package renderer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/currencyutils"
	"fjacquet/gnucash2beancount/internal/dateutils"
	"fjacquet/gnucash2beancount/internal/fileutils"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/models"
)

// SourceMetaKey is the metadata key carrying a directive's origin row.
const SourceMetaKey = "source"

// Renderer formats ledgers according to the beancount section of the configuration.
type Renderer struct {
	cfg    *config.Config
	logger logging.Logger
}

// NewRenderer creates a renderer. A nil logger discards log output.
func NewRenderer(cfg *config.Config, logger logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// Render writes plugins, options, commodities, opens and transactions to w,
// each non-empty section followed by a blank line.
func (r *Renderer) Render(w io.Writer, ledger *models.Ledger) error {
	bw := bufio.NewWriter(w)

	if len(r.cfg.Beancount.Plugins) > 0 {
		for _, plugin := range r.cfg.Beancount.Plugins {
			fmt.Fprintf(bw, "plugin %s\n", quote(plugin))
		}
		bw.WriteString("\n")
	}

	if len(r.cfg.Options) > 0 {
		for _, opt := range r.cfg.Options {
			fmt.Fprintf(bw, "option %s %s\n", quote(opt[0]), quote(opt[1]))
		}
		bw.WriteString("\n")
	}

	if len(ledger.Commodities) > 0 {
		for _, c := range ledger.Commodities {
			fmt.Fprintf(bw, "%s commodity %s\n", dateutils.ToISODate(c.Date), c.Currency)
			r.writeSource(bw, c.Source)
		}
		bw.WriteString("\n")
	}

	if len(ledger.Opens) > 0 {
		for _, o := range ledger.Opens {
			line := dateutils.ToISODate(o.Date) + " open " + o.Account
			if len(o.Currencies) > 0 {
				line += " " + strings.Join(o.Currencies, ",")
			}
			if o.Booking != "" {
				line += " " + quote(o.Booking)
			}
			bw.WriteString(line + "\n")
			r.writeSource(bw, o.Source)
		}
		bw.WriteString("\n")
	}

	for _, tx := range ledger.Transactions {
		r.writeTransaction(bw, tx)
		bw.WriteString("\n")
	}

	return bw.Flush()
}

func (r *Renderer) writeTransaction(w *bufio.Writer, tx models.Transaction) {
	fmt.Fprintf(w, "%s %s %s\n", dateutils.ToISODate(tx.Date), tx.Flag, quote(tx.Narration))
	r.writeSource(w, tx.Source)

	accountWidth, numberWidth := 0, 0
	for _, p := range tx.Postings {
		accountWidth = max(accountWidth, utf8.RuneCountInString(postingLead(p)))
		numberWidth = max(numberWidth, len(currencyutils.FormatNumber(p.Units.Number)))
	}

	for _, p := range tx.Postings {
		lead := postingLead(p)
		number := currencyutils.FormatNumber(p.Units.Number)
		line := fmt.Sprintf("  %s%s  %s%s %s",
			lead, strings.Repeat(" ", accountWidth-utf8.RuneCountInString(lead)),
			strings.Repeat(" ", numberWidth-len(number)), number, p.Units.Currency)
		if p.Price != nil {
			line += fmt.Sprintf(" @ %s %s", currencyutils.FormatNumber(p.Price.Number), p.Price.Currency)
		}
		w.WriteString(line + "\n")
	}
}

func postingLead(p models.Posting) string {
	if p.Flag != models.FlagNone {
		return string(p.Flag) + " " + p.Account
	}
	return p.Account
}

func (r *Renderer) writeSource(w *bufio.Writer, src models.SourceRef) {
	if !r.cfg.Beancount.SourceMetadata {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", SourceMetaKey, quote(src.String()))
}

// WriteFile renders ledger and replaces path atomically.
func (r *Renderer) WriteFile(path string, ledger *models.Ledger) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, ledger); err != nil {
		return fmt.Errorf("error rendering ledger: %w", err)
	}
	if err := fileutils.WriteFileAtomic(path, buf.Bytes(), models.PermissionOutputFile); err != nil {
		return fmt.Errorf("error writing ledger: %w", err)
	}
	r.logger.Info("Wrote ledger",
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(ledger.Transactions)))
	return nil
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", " ", "\n", " ", "\r", " ")

// quote renders s as a double-quoted string on a single line.
func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
