// Package verify handles re-checking an existing Beancount ledger
package verify

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/gnucash2beancount/cmd/root"
	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/container"
	"fjacquet/gnucash2beancount/internal/fileutils"
)

// Cmd represents the verify command
var Cmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Parse and validate a Beancount ledger",
	Long: `Parse and validate an existing Beancount ledger with the same checks g2b runs
after writing one: syntax, account roots, open dates, currency constraints and
per-currency balancing.`,
	Args:         exactlyOneFile,
	SilenceUsage: true,
	RunE:         verifyFunc,
}

var configPath string

func init() {
	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file for logging settings")
}

func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return &root.UsageError{Err: err}
	}
	if !fileutils.FileExists(args[0]) {
		return &root.UsageError{Err: fmt.Errorf("ledger file %s does not exist", args[0])}
	}
	if configPath != "" && !fileutils.FileExists(configPath) {
		return &root.UsageError{Err: fmt.Errorf("config file %s does not exist", configPath)}
	}
	return nil
}

func verifyFunc(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}

	if err := c.GetVerifier().Verify(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
	return nil
}

// resolveConfig only needs the converter section; without --config the
// defaults and LOG_LEVEL / LOG_FORMAT apply.
func resolveConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default()
	}
	return config.Resolve(configPath)
}
