package incremental

import (
	"context"
	"sync"

	"github.com/albertocavalcante/ccrun/internal/log"
	"github.com/albertocavalcante/ccrun/pkg/config"
)

// Tracker ties the analyzer to a Store with commit-on-success semantics:
// Prepare computes the next record, and only Pending.Commit writes it.
type Tracker struct {
	store    Store
	analyzer *Analyzer
}

// NewTracker creates a tracker.
func NewTracker(store Store, analyzer *Analyzer) *Tracker {
	return &Tracker{
		store:    store,
		analyzer: analyzer,
	}
}

// Store returns the underlying store.
func (t *Tracker) Store() Store {
	return t.store
}

// Pending holds an analysis whose record has not been persisted yet.
type Pending struct {
	Analysis Analysis

	mu     sync.Mutex
	record Record
	store  Store
	done   bool
}

// Prepare loads the last known-good record and analyzes files against it.
func (t *Tracker) Prepare(ctx context.Context, files []string, mode config.Mode, ids ConfigIDs) (*Pending, error) {
	res, err := t.analyzer.Analyze(ctx, AnalyzeInput{
		Files:  files,
		Record: t.store.Load(),
		Mode:   mode,
		IDs:    ids,
	})
	if err != nil {
		return nil, err
	}
	return &Pending{
		Analysis: res.Analysis,
		record:   res.Record,
		store:    t.store,
	}, nil
}

// Status analyzes files without producing anything to commit.
func (t *Tracker) Status(ctx context.Context, files []string, mode config.Mode, ids ConfigIDs) (*Analysis, error) {
	p, err := t.Prepare(ctx, files, mode, ids)
	if err != nil {
		return nil, err
	}
	p.Discard()
	return &p.Analysis, nil
}

// Commit persists the record. Call it only after the toolchain succeeded.
// Commit after Commit or Discard is a no-op.
func (p *Pending) Commit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return nil
	}
	p.done = true
	if err := p.store.Save(p.record); err != nil {
		return err
	}
	log.Component("incremental").Debug("record saved", "path", p.store.Path())
	return nil
}

// Discard drops the record so the next build re-derives staleness from the
// last known-good one.
func (p *Pending) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	p.record = nil
}

// HasState returns true if a previous record exists.
func (t *Tracker) HasState() bool {
	return t.store.Exists()
}

// TrackedFileCount returns the number of files tracked for mode.
// Returns 0 if no record exists.
func (t *Tracker) TrackedFileCount(mode config.Mode) int {
	return t.store.Load().Mode(mode).FileCount()
}
