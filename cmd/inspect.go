package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ariebrainware/heart-risk/config"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var inspectTables = []string{"users", "predictions", "contacts"}

func inspectCommand() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the stored users, predictions and contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.ConnectDatabase()
			if err != nil {
				return err
			}
			return inspect(db, cmd.OutOrStdout(), table)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Only print one table (users, predictions or contacts)")
	return cmd
}

// inspect writes the requested table, or all of them when table is empty.
func inspect(db *gorm.DB, out io.Writer, table string) error {
	tables := inspectTables
	if table != "" {
		if !validTable(table) {
			return fmt.Errorf("unknown table %q", table)
		}
		tables = []string{table}
	}

	for i, name := range tables {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "== %s ==\n", name)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		if err := dumpTable(db, w, name); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func validTable(name string) bool {
	for _, t := range inspectTables {
		if t == name {
			return true
		}
	}
	return false
}

func dumpTable(db *gorm.DB, w io.Writer, name string) error {
	switch name {
	case "users":
		users, err := model.ListUsers(db)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
		}
	case "predictions":
		predictions, err := model.ListPredictions(db)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tUSERNAME\tPROBABILITY\tPREDICTION\tINPUTS\tCREATED")
		for _, p := range predictions {
			proba := "-"
			if p.Probability != nil {
				proba = strconv.FormatFloat(*p.Probability, 'f', 2, 64)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Username, proba, p.Prediction, p.Inputs.String(), p.CreatedAt.Format(time.RFC3339))
		}
	case "contacts":
		contacts, err := model.ListContacts(db)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tMESSAGE\tCREATED")
		for _, c := range contacts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Message, c.CreatedAt.Format(time.RFC3339))
		}
	}
	return nil
}
