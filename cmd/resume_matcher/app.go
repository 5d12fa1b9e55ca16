package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/extract"
	"github.com/jonathan/resume-matcher/internal/fetch"
	"github.com/jonathan/resume-matcher/internal/insights"
	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/session"
	"github.com/jonathan/resume-matcher/internal/store"
)

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	cfg        config.Config
	logger     *slog.Logger

	// Test hooks; nil means the real implementation.
	optimizer llm.Optimizer
	fetcher   fetch.Fetcher
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "resume_matcher",
		Short: "Score a resume against a job description",
		Long: "Resume Matcher scores a resume against a job description by keyword overlap, " +
			"section completeness and experience signals, keeps a history of analyses, " +
			"and can ask an AI model for tailoring suggestions.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a JSON config file")

	root.AddCommand(
		newAnalyzeCmd(a),
		newHistoryCmd(a),
		newResetCmd(a),
		newBatchCmd(a),
		newOptimizeCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
	)
	return root
}

// load reads configuration and sets up logging.
func (a *app) load(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(a.errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	slog.SetDefault(logger)
	return nil
}

func (a *app) llmOptimizer() llm.Optimizer {
	if a.optimizer != nil {
		return a.optimizer
	}
	return llm.NewGeminiOptimizer(llm.DefaultConfig(), a.cfg.APIKey, a.logger)
}

// openSession restores the persisted session. The returned close function
// releases the store.
func (a *app) openSession(ctx context.Context) (*session.Manager, func(), error) {
	opts := a.cfg.StoreOptions()
	opts.Logger = a.logger
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Store, err)
	}
	if f, ok := st.(*store.File); ok && f.Recovered() != "" {
		fmt.Fprintf(a.errOut, "Warning: saved data was unreadable and has been moved to %s; starting fresh.\n", f.Recovered())
	}

	fetcher := a.fetcher
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(fetch.NewClient(a.cfg.UseBrowser, a.logger), st, 0, a.logger)
	}

	scoringCfg := a.cfg.Scoring()
	mgr := session.New(ctx, session.Options{
		Store:     st,
		Extractor: extract.New(),
		Fetcher:   fetcher,
		Optimizer: a.llmOptimizer(),
		Scoring:   &scoringCfg,
		Insights:  insights.DefaultOptions(),
		Capacity:  a.cfg.HistoryCapacity,
		Logger:    a.logger,
	})
	return mgr, func() { _ = st.Close() }, nil
}

// readDocument reads a local file for extraction.
func readDocument(path string) (session.FileInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return session.FileInput{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := extract.ReadAll(f)
	if err != nil {
		return session.FileInput{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return session.FileInput{Data: data, FileName: filepath.Base(path)}, nil
}

// stateError turns a recorded session failure into a command error and
// prints any storage warning.
func (a *app) stateError(st session.State) error {
	if st.Warning != "" {
		fmt.Fprintf(a.errOut, "Warning: %s\n", st.Warning)
	}
	if st.Error != "" {
		return fmt.Errorf("%s", st.Error)
	}
	return nil
}
