package cmd

import (
	"fmt"

	"github.com/ariebrainware/heart-risk/config"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/spf13/cobra"
)

func initDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the users, predictions and contacts tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.ConnectDatabase()
			if err != nil {
				return err
			}
			if err := model.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized.")
			return nil
		},
	}
}
