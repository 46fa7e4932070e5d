package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your calculations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ok, err := a.gate("/history"); !ok {
				return err
			}

			records, err := a.client.ListHistory(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(a.out, "No history available.")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(a.out, "%s  %s\n", rec.ID, rec.Summary())
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, err := a.gate("/history"); !ok {
				return err
			}
			if err := a.client.DeleteHistory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "History entry deleted successfully.")
			return nil
		},
	})
	return cmd
}
