package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariebrainware/heart-risk/config"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func addUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "adduser <username> <password>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.ConnectDatabase()
			if err != nil {
				return err
			}
			if err := model.Migrate(db); err != nil {
				return err
			}
			if err := addUser(db, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q created.\n", strings.TrimSpace(args[0]))
			return nil
		},
	}
}

func addUser(db *gorm.DB, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return errors.New("username and password must not be empty")
	}
	user, err := model.NewUser(username, password)
	if err != nil {
		return err
	}
	return model.CreateUser(db, &user)
}
