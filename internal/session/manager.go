// Package session owns the resume matcher's state: the loaded documents, the
// latest result and the analysis history, persisted through a store.Store.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/resume-matcher/internal/extract"
	"github.com/jonathan/resume-matcher/internal/fetch"
	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/insights"
	"github.com/jonathan/resume-matcher/internal/keywords"
	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/scoring"
	"github.com/jonathan/resume-matcher/internal/store"
)

// State is a snapshot of the session. Snapshots share nothing with the
// manager.
type State struct {
	Resume         *Document       `json:"resume,omitempty"`
	JobDescription *Document       `json:"jobDescription,omitempty"`
	Result         *scoring.Result `json:"result,omitempty"`
	History        []history.Entry `json:"history"`
	Loading        bool            `json:"loading"`
	Error          string          `json:"error,omitempty"`
	ErrorKind      ErrorKind       `json:"errorKind,omitempty"`
	Warning        string          `json:"warning,omitempty"`
	WarningKind    ErrorKind       `json:"warningKind,omitempty"`
	Suggestions    string          `json:"suggestions,omitempty"`
}

// Options wires a Manager's collaborators. Store is required; the others
// may be nil, which disables the features that need them.
type Options struct {
	Store     store.Store
	Extractor extract.Extractor
	Fetcher   fetch.Fetcher
	Optimizer llm.Optimizer
	Scoring   *scoring.Config
	Insights  insights.Options
	Capacity  int
	Logger    *slog.Logger
}

// Manager serializes every state change. One operation may be in flight at a
// time; overlapping calls are rejected with ErrBusy.
type Manager struct {
	store     store.Store
	extractor extract.Extractor
	fetcher   fetch.Fetcher
	optimizer llm.Optimizer
	scoring   scoring.Config
	insights  insights.Options
	logger    *slog.Logger
	now       func() time.Time

	mu            sync.Mutex
	state         State // History is kept in ledger
	ledger        history.Ledger
	busy          bool
	generation    uint64
	nextID        int64
	lastTimestamp int64
}

// New restores a manager from opts.Store. It never fails: unreadable or
// corrupt keys start empty.
func New(ctx context.Context, opts Options) *Manager {
	cfg := scoring.DefaultConfig()
	if opts.Scoring != nil {
		cfg = *opts.Scoring
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := opts.Store
	if s == nil {
		s = store.NewMemory()
	}

	m := &Manager{
		store:     s,
		extractor: opts.Extractor,
		fetcher:   opts.Fetcher,
		optimizer: opts.Optimizer,
		scoring:   cfg,
		insights:  opts.Insights,
		logger:    logger,
		now:       time.Now,
	}
	if cfg.Now != nil {
		m.now = cfg.Now
	}
	m.restore(ctx, opts.Capacity)
	return m
}

// State returns a deep copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Ready reports whether both documents are loaded with usable keywords and
// no operation is in flight.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.busy && usable(m.state.Resume) && usable(m.state.JobDescription)
}

// LoadResume replaces the resume.
func (m *Manager) LoadResume(ctx context.Context, in DocumentInput) State {
	return m.load(ctx, "resume", KeyResume, in, func(d *Document) { m.state.Resume = d })
}

// LoadJobDescription replaces the job description.
func (m *Manager) LoadJobDescription(ctx context.Context, in JobDescriptionInput) State {
	return m.load(ctx, "job description", KeyJobDescription, in, func(d *Document) { m.state.JobDescription = d })
}

func (m *Manager) load(ctx context.Context, label, key string, in any, assign func(*Document)) State {
	gen, ok := m.begin()
	if !ok {
		return m.State()
	}

	doc, err := m.resolve(ctx, label, in)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.finish(gen) {
		return m.snapshot()
	}
	if err != nil {
		m.fail(err)
		return m.snapshot()
	}

	assign(doc)
	m.state.Result = nil
	m.state.Suggestions = ""
	m.clearError()
	m.persistDocument(ctx, key, doc)
	m.logger.Info("document loaded", "document", label, "file", doc.FileName, "chars", len(doc.Text))
	return m.snapshot()
}

// RunAnalysis scores the loaded documents, records the result and appends it
// to history.
func (m *Manager) RunAnalysis(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy {
		m.setError(InputError, ErrBusy.Error())
		return m.snapshot()
	}
	if msg := m.missingInputs(); msg != "" {
		m.setError(InputError, msg)
		return m.snapshot()
	}

	result := Analyze(m.state.Resume.Text, m.state.JobDescription.Text, m.scoring, m.insights)
	result.Timestamp = m.nextTimestamp(result.Timestamp)

	entry := history.Entry{
		ID:             m.nextID,
		Timestamp:      result.Timestamp,
		ResumeFileName: m.state.Resume.FileName,
		JDFileName:     m.state.JobDescription.FileName,
		Score:          result.Score,
		Coverage:       result.Coverage,
	}
	m.nextID++
	m.ledger = m.ledger.Append(entry)

	m.state.Result = &result
	m.clearError()
	m.persistHistory(ctx)

	m.logger.Info("analysis complete",
		"score", result.Score,
		"coverage", result.Coverage,
		"matched", len(result.MatchedKeywords),
		"missing", len(result.MissingKeywords))
	return m.snapshot()
}

// Reset clears the documents, result and error. History is kept. A load or
// optimization still in flight stops counting as busy and its result is
// discarded when it completes.
func (m *Manager) Reset(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.busy = false
	m.state.Loading = false
	m.state.Resume = nil
	m.state.JobDescription = nil
	m.state.Result = nil
	m.state.Suggestions = ""
	m.state.Warning = ""
	m.state.WarningKind = NoError
	m.clearError()
	m.remove(ctx, KeyResume)
	m.remove(ctx, KeyJobDescription)
	return m.snapshot()
}

// ClearHistory removes every history entry. Ids keep increasing afterwards.
func (m *Manager) ClearHistory(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger = m.ledger.Clear()
	m.persistHistory(ctx)
	return m.snapshot()
}

// Optimize asks the optimizer for resume suggestions. It never changes the
// result or history.
func (m *Manager) Optimize(ctx context.Context, token string) State {
	return m.suggest(func(o llm.Optimizer, resume, jd string) (string, error) {
		return o.Suggest(ctx, resume, jd, token)
	})
}

// CoverLetter asks the optimizer for a cover letter.
func (m *Manager) CoverLetter(ctx context.Context, token string) State {
	return m.suggest(func(o llm.Optimizer, resume, jd string) (string, error) {
		return o.CoverLetter(ctx, resume, jd, token)
	})
}

func (m *Manager) suggest(call func(o llm.Optimizer, resume, jd string) (string, error)) State {
	m.mu.Lock()
	msg, kind := "", InputError
	switch {
	case m.busy:
		msg = ErrBusy.Error()
	case m.missingInputs() != "":
		msg = m.missingInputs()
	case m.optimizer == nil:
		msg, kind = "AI suggestions are not configured.", UpstreamError
	}
	if msg != "" {
		m.setError(kind, msg)
		s := m.snapshot()
		m.mu.Unlock()
		return s
	}
	resume, jd := m.state.Resume.Text, m.state.JobDescription.Text
	optimizer := m.optimizer
	gen := m.markBusy()
	m.mu.Unlock()

	text, err := func() (text string, err error) {
		defer recoverAs(UpstreamError, &err)
		return call(optimizer, resume, jd)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.finish(gen) {
		return m.snapshot()
	}
	if err != nil {
		m.logger.Warn("optimization failed", "error", err)
		var ie *inputError
		if errors.As(err, &ie) {
			m.setError(ie.kind, ie.msg)
		} else {
			m.setError(UpstreamError, upstreamMessage(err))
		}
		return m.snapshot()
	}
	m.state.Suggestions = text
	m.clearError()
	return m.snapshot()
}

// begin marks the manager busy, or records ErrBusy and reports false.
func (m *Manager) begin() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		m.setError(InputError, ErrBusy.Error())
		return 0, false
	}
	return m.markBusy(), true
}

func (m *Manager) markBusy() uint64 {
	m.busy = true
	m.state.Loading = true
	return m.generation
}

// finish reports whether the operation started in generation gen is still
// current and, if so, clears the busy flag. A stale operation leaves the flag
// alone since Reset already released it and a newer operation may hold it.
// Callers hold m.mu.
func (m *Manager) finish(gen uint64) bool {
	if gen != m.generation {
		m.logger.Debug("discarding stale operation result", "started", gen, "current", m.generation)
		return false
	}
	m.busy = false
	m.state.Loading = false
	return true
}

func (m *Manager) fail(err error) {
	var ie *inputError
	if errors.As(err, &ie) {
		m.setError(ie.kind, ie.msg)
		return
	}
	m.setError(InputError, err.Error())
}

func (m *Manager) setError(kind ErrorKind, msg string) {
	m.state.Error = msg
	m.state.ErrorKind = kind
}

func (m *Manager) clearError() {
	m.setError(NoError, "")
}

func (m *Manager) missingInputs() string {
	switch {
	case m.state.Resume == nil:
		return "Load a resume before running the analysis."
	case m.state.JobDescription == nil:
		return "Load a job description before running the analysis."
	case !usable(m.state.Resume):
		return "The resume has no usable keywords. Add more content and try again."
	case !usable(m.state.JobDescription):
		return "The job description has no usable keywords. Add more content and try again."
	}
	return ""
}

// nextTimestamp keeps result timestamps strictly increasing even when the
// clock stalls or steps back.
func (m *Manager) nextTimestamp(candidate int64) int64 {
	if candidate == 0 {
		candidate = m.now().UnixMilli()
	}
	ts := max(candidate, m.lastTimestamp+1)
	m.lastTimestamp = ts
	return ts
}

func (m *Manager) snapshot() State {
	s := m.state
	s.Resume = m.state.Resume.clone()
	s.JobDescription = m.state.JobDescription.clone()
	if m.state.Result != nil {
		r := m.state.Result.Clone()
		s.Result = &r
	}
	s.History = m.ledger.Entries()
	return s
}

func usable(d *Document) bool {
	return d != nil && strings.TrimSpace(d.Text) != "" &&
		len(keywords.UniqueTokens(d.Text, keywords.KeywordMinLength)) > 0
}
