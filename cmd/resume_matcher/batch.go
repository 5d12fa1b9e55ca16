package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/extract"
	"github.com/jonathan/resume-matcher/internal/insights"
	"github.com/jonathan/resume-matcher/internal/scoring"
	"github.com/jonathan/resume-matcher/internal/session"
)

// DefaultBatchConcurrency bounds how many resumes are scored at once.
const DefaultBatchConcurrency = 4

// batchRow is one resume's outcome. Error is set instead of the scores when
// the resume could not be read.
type batchRow struct {
	File       string `json:"file"`
	Score      int    `json:"score"`
	Coverage   int    `json:"coverage"`
	Experience string `json:"experience_level,omitempty"`
	Missing    int    `json:"missing_keywords"`
	Error      string `json:"error,omitempty"`
}

type batchOptions struct {
	jobFile     string
	jobText     string
	concurrency int
	asJSON      bool
}

func newBatchCmd(a *app) *cobra.Command {
	opts := batchOptions{concurrency: DefaultBatchConcurrency}
	cmd := &cobra.Command{
		Use:   "batch RESUME...",
		Short: "Rank several resumes against one job description",
		Long: "Score every resume against the same job description and print them best first. " +
			"Batch runs do not touch the saved session or its history.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.jobFile, "job", "j", "", "Path to the job description file")
	cmd.Flags().StringVar(&opts.jobText, "job-text", "", "Job description text")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", DefaultBatchConcurrency, "Resumes scored in parallel")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print rows as JSON")
	return cmd
}

func (a *app) runBatch(ctx context.Context, opts batchOptions, files []string) error {
	if opts.jobFile == "" && opts.jobText == "" {
		return fmt.Errorf("either --job or --job-text must be provided")
	}
	if opts.jobFile != "" && opts.jobText != "" {
		return fmt.Errorf("--job and --job-text are mutually exclusive; provide only one")
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}

	extractor := extract.New()
	jdText := opts.jobText
	if opts.jobFile != "" {
		text, err := extractFile(ctx, extractor, opts.jobFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jdText = text
	}

	cfg := a.cfg.Scoring()
	tips := insights.DefaultOptions()
	rows := make([]batchRow, len(files))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(a.errOut),
		progressbar.OptionSetDescription("Scoring"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, file := range files {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			rows[i] = scoreFile(gctx, extractor, file, jdText, cfg, tips)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	_ = bar.Finish()

	sortRows(rows)
	a.logger.Info("batch complete", "resumes", len(rows))

	if opts.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return printRows(a, rows)
}

func extractFile(ctx context.Context, extractor extract.Extractor, path string) (string, error) {
	in, err := readDocument(path)
	if err != nil {
		return "", err
	}
	return extractor.Extract(ctx, in.Data, extract.DetectMimeType(in.FileName, in.Data))
}

func scoreFile(ctx context.Context, extractor extract.Extractor, path, jdText string, cfg scoring.Config, tips insights.Options) batchRow {
	row := batchRow{File: filepath.Base(path)}
	text, err := extractFile(ctx, extractor, path)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	r := session.Analyze(text, jdText, cfg, tips)
	row.Score = r.Score
	row.Coverage = r.Coverage
	row.Experience = r.ExperienceLevel
	row.Missing = len(r.MissingKeywords)
	return row
}

// sortRows orders scored rows best first, then failures, each by file name.
func sortRows(rows []batchRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if (ri.Error == "") != (rj.Error == "") {
			return ri.Error == ""
		}
		if ri.Score != rj.Score {
			return ri.Score > rj.Score
		}
		return ri.File < rj.File
	})
}

func printRows(a *app, rows []batchRow) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tFILE\tSCORE\tCOVERAGE\tEXPERIENCE\tMISSING")
	for i, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(w, "-\t%s\terror: %s\t\t\t\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d%%\t%s\t%d\n", i+1, r.File, r.Score, r.Coverage, r.Experience, r.Missing)
	}
	return w.Flush()
}
