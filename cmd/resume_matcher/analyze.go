package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/session"
)

type analyzeOptions struct {
	resumeFile string
	jobFile    string
	jobText    string
	jobURL     string
	asJSON     bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a resume against a job description",
		Long: "Load a resume and a job description, score them and record the run in history. " +
			"Documents that are not given reuse the ones saved by a previous run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.resumeFile, "resume", "r", "", "Path to the resume (pdf, docx, html, md or txt)")
	cmd.Flags().StringVarP(&opts.jobFile, "job", "j", "", "Path to the job description file")
	cmd.Flags().StringVar(&opts.jobText, "job-text", "", "Job description text")
	cmd.Flags().StringVarP(&opts.jobURL, "job-url", "u", "", "URL of a job posting to fetch")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// jobInput picks the single job description source given on the command
// line. A nil input means none was given.
func (o analyzeOptions) jobInput() (session.JobDescriptionInput, error) {
	given := 0
	for _, v := range []string{o.jobFile, o.jobText, o.jobURL} {
		if v != "" {
			given++
		}
	}
	if given > 1 {
		return nil, fmt.Errorf("--job, --job-text and --job-url are mutually exclusive; provide only one")
	}

	switch {
	case o.jobFile != "":
		return readDocument(o.jobFile)
	case o.jobText != "":
		return session.TextInput{Text: o.jobText, FileName: "pasted job description"}, nil
	case o.jobURL != "":
		return session.URLInput{URL: o.jobURL}, nil
	}
	return nil, nil
}

func (a *app) runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	ctx := cmd.Context()

	jd, err := opts.jobInput()
	if err != nil {
		return err
	}

	mgr, closeStore, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.resumeFile != "" {
		resume, err := readDocument(opts.resumeFile)
		if err != nil {
			return err
		}
		if err := a.stateError(mgr.LoadResume(ctx, resume)); err != nil {
			return err
		}
	}
	if jd != nil {
		if err := a.stateError(mgr.LoadJobDescription(ctx, jd)); err != nil {
			return err
		}
	}

	st := mgr.RunAnalysis(ctx)
	if err := a.stateError(st); err != nil {
		return err
	}
	if st.Result == nil {
		return fmt.Errorf("analysis produced no result")
	}

	if opts.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Result)
	}
	observability.NewPrinter(a.out).PrintResult(st.Result)
	return nil
}
