// Package cmd holds the command line interface of the heart risk web app.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ariebrainware/heart-risk/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCommand creates and returns the root command with every subcommand attached.
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "heartrisk",
		Short:         "Heart disease risk screening web app",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCommand(),
		initDBCommand(),
		addUserCommand(),
		inspectCommand(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := RootCommand().ExecuteContext(context.Background())
	if err != nil {
		util.Logger().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	_ = util.Logger().Sync()
	if err != nil {
		os.Exit(1)
	}
}
