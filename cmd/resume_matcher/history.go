package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
)

func newHistoryCmd(a *app) *cobra.Command {
	var clearAll, asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear past analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if clearAll {
				if err := a.stateError(mgr.ClearHistory(cmd.Context())); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "History cleared")
				return nil
			}

			entries := mgr.State().History
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			observability.NewPrinter(a.out).PrintHistory(entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every history entry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}
