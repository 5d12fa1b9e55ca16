package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/schemas"
)

// Persistence keys.
const (
	KeyResume         = "resume_matcher.resume"
	KeyJobDescription = "resume_matcher.job_description"
	KeyHistory        = "resume_matcher.history"
	KeyHistorySeq     = "resume_matcher.history_seq"
)

type sequence struct {
	NextID        int64 `json:"next_id"`
	LastTimestamp int64 `json:"last_timestamp"`
}

// restore loads each key independently. Read failures become warnings;
// malformed values are dropped.
func (m *Manager) restore(ctx context.Context, capacity int) {
	m.state.Resume = m.restoreDocument(ctx, KeyResume)
	m.state.JobDescription = m.restoreDocument(ctx, KeyJobDescription)

	var entries []history.Entry
	if raw, ok := m.read(ctx, KeyHistory); ok {
		if err := decode(schemas.History, raw, &entries); err != nil {
			m.logger.Debug("dropping corrupt history", "error", err)
			entries = nil
		}
	}
	m.ledger = history.Restore(capacity, entries)

	var seq sequence
	if raw, ok := m.read(ctx, KeyHistorySeq); ok {
		if err := decode(schemas.HistorySequence, raw, &seq); err != nil {
			m.logger.Debug("dropping corrupt history sequence", "error", err)
			seq = sequence{}
		}
	}
	m.nextID = m.ledger.NextID(max(seq.NextID-1, 0))
	m.lastTimestamp = seq.LastTimestamp
	for _, e := range m.ledger.Entries() {
		m.lastTimestamp = max(m.lastTimestamp, e.Timestamp)
	}
}

func (m *Manager) restoreDocument(ctx context.Context, key string) *Document {
	raw, ok := m.read(ctx, key)
	if !ok {
		return nil
	}
	var doc Document
	if err := decode(schemas.Document, raw, &doc); err != nil {
		m.logger.Debug("dropping corrupt document", "key", key, "error", err)
		return nil
	}
	return &doc
}

func (m *Manager) read(ctx context.Context, key string) (string, bool) {
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.warn("read", key, err)
		return "", false
	}
	return raw, ok
}

func decode(schema, raw string, v any) error {
	if err := schemas.Validate(schema, raw); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// The persist helpers run with m.mu held. Failures never block the caller.

func (m *Manager) persistDocument(ctx context.Context, key string, doc *Document) {
	if doc == nil {
		m.remove(ctx, key)
		return
	}
	m.write(ctx, key, doc)
}

func (m *Manager) persistHistory(ctx context.Context) {
	m.write(ctx, KeyHistory, m.ledger.Entries())
	m.write(ctx, KeyHistorySeq, sequence{NextID: m.nextID, LastTimestamp: m.lastTimestamp})
}

func (m *Manager) write(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.warn("encode", key, err)
		return
	}
	if err := m.store.Set(ctx, key, string(data)); err != nil {
		m.warn("write", key, err)
	}
}

func (m *Manager) remove(ctx context.Context, key string) {
	if err := m.store.Remove(ctx, key); err != nil {
		m.warn("remove", key, err)
	}
}

func (m *Manager) warn(op, key string, err error) {
	m.logger.Warn("session storage failure", "op", op, "key", key, "error", err)
	m.state.Warning = fmt.Sprintf("Could not %s saved data (%s); changes may not survive a restart.", op, key)
	m.state.WarningKind = StorageError
}
