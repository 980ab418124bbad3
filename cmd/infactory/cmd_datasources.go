package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(datasourcesCmd)
	datasourcesCmd.AddCommand(datasourcesListCmd)
}

var datasourcesCmd = &cobra.Command{
	Use:   "datasources",
	Short: "Manage datasources",
}

var datasourcesListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List the datasources of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, logger, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		sources, err := client.Datasources.List(cmd.Context(), args[0]).Unwrap()
		if err != nil {
			return fmt.Errorf("list datasources: %w", err)
		}
		if len(sources) == 0 {
			fmt.Println("No datasources found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS")
		for _, ds := range sources {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ds.ID, ds.Name, ds.Type, ds.Status)
		}
		return w.Flush()
	},
}
