package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
)

func newOptimizeCmd(a *app) *cobra.Command {
	var coverLetter bool
	var apiKey string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Ask the AI model how to tailor the saved resume",
		Long: "Send the saved resume and job description to the AI model and print its suggestions. " +
			"Run 'analyze' first to load both documents. Requires GEMINI_API_KEY or --api-key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			mgr, closeStore, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			title := "RESUME SUGGESTIONS"
			call := mgr.Optimize
			if coverLetter {
				title = "COVER LETTER"
				call = mgr.CoverLetter
			}

			fmt.Fprintln(a.errOut, "Waiting for the AI model...")
			state := call(ctx, apiKey)
			if err := a.stateError(state); err != nil {
				return err
			}
			observability.NewPrinter(a.out).PrintSuggestions(title, state.Suggestions)
			return nil
		},
	}
	cmd.Flags().BoolVar(&coverLetter, "cover-letter", false, "Write a cover letter instead of suggestions")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to use instead of GEMINI_API_KEY")
	return cmd
}
