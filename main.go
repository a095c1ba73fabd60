package main

import (
	"fmt"
	"os"

	"fjacquet/gnucash2beancount/cmd/root"
	"fjacquet/gnucash2beancount/cmd/verify"
	"fjacquet/gnucash2beancount/cmd/version"
	"fjacquet/gnucash2beancount/internal/config"
)

func init() {
	// .env first so LOG_LEVEL and G2B_* apply to everything that follows
	config.LoadEnv(nil)

	root.Init()
	root.Cmd.Version = version.Version
	root.Cmd.AddCommand(verify.Cmd)
	root.Cmd.AddCommand(version.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if root.ExitCode(err) == root.ExitUsage {
			fmt.Fprintln(os.Stderr, "Run 'g2b --help' for usage.")
		}
		os.Exit(root.ExitCode(err))
	}
}
