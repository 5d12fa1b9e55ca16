package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved resume, job description and result",
		Long:  "Forget the saved resume, job description and result. History is kept; use 'history --clear' to remove it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, closeStore, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := a.stateError(mgr.Reset(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Session reset")
			return nil
		},
	}
}
