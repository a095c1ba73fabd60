// Package root contains the root command for the application
package root

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/container"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/validation"
)

// Exit codes returned by the g2b binary.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// CommonFlags represents the flags of the conversion command
type CommonFlags struct {
	Input    string
	Output   string
	Config   string
	Progress bool
}

// UsageError reports a missing or invalid command line argument.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

var (
	// SharedFlags holds the parsed conversion flags
	SharedFlags = CommonFlags{}

	// Cmd is the root command; run without a subcommand it converts one export.
	Cmd = &cobra.Command{
		Use:   "g2b",
		Short: "Convert a GnuCash CSV export into a Beancount ledger.",
		Long: `g2b converts a GnuCash "Export Transactions to CSV" file into a Beancount
ledger, then parses and validates the written ledger.

Accounts are sanitized into valid Beancount names, multi-currency bookings get
a price annotation, and open and commodity directives are generated.`,
		Example:       "  g2b -i gnucash.csv -o books.beancount -c g2b.yaml --progress",
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       checkFlags,
		RunE:          convertFunc,
	}

	// ProgressWriter receives the progress bar.
	ProgressWriter io.Writer = os.Stderr
)

// Init initializes the root command flags. Calling it again is a no-op.
func Init() {
	if Cmd.Flags().Lookup("input") != nil {
		return
	}
	Cmd.Flags().StringVarP(&SharedFlags.Input, "input", "i", "", "GnuCash CSV (or .xlsx) export to convert")
	Cmd.Flags().StringVarP(&SharedFlags.Output, "output", "o", "", "Beancount file to write")
	Cmd.Flags().StringVarP(&SharedFlags.Config, "config", "c", "", "YAML configuration file")
	Cmd.Flags().BoolVar(&SharedFlags.Progress, "progress", false, "Show a progress bar while building transactions")
	Cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

func checkFlags(cmd *cobra.Command, args []string) error {
	for _, f := range []struct{ name, value string }{
		{"input", SharedFlags.Input},
		{"output", SharedFlags.Output},
		{"config", SharedFlags.Config},
	} {
		if f.value == "" {
			return &UsageError{Err: fmt.Errorf("required flag --%s not set", f.name)}
		}
	}
	if err := validation.IsValidInputFile(SharedFlags.Input); err != nil {
		return &UsageError{Err: fmt.Errorf("input: %w", err)}
	}
	if err := validation.IsValidInputFile(SharedFlags.Config); err != nil {
		return &UsageError{Err: fmt.Errorf("config: %w", err)}
	}
	if err := validation.IsValidOutputPath(SharedFlags.Output); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

func convertFunc(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(SharedFlags.Config)
	if err != nil {
		return err
	}
	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	log := c.GetLogger()

	conv := c.GetConverter()
	if SharedFlags.Progress {
		bar := newProgress(ProgressWriter)
		conv.SetObserver(bar.observe)
		defer bar.finish(log)
	}

	result, err := conv.Convert(SharedFlags.Input, SharedFlags.Output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions to %s\n", result.Transactions, result.Output)
	return nil
}

type progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) observe(done, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Building transactions"),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish(log logging.Logger) {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		log.WithError(err).Warn("Failed to finish progress bar")
	}
}

// ExitCode maps an error returned by Cmd.Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitError
}
