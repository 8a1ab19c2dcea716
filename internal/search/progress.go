package search

import (
	"sync"
	"sync/atomic"
	"time"
)

// progressTracker accumulates discovery/indexing counters under atomics so
// it can be read concurrently with the goroutines updating it, mirroring the
// original's AtomicProgress.
type progressTracker struct {
	processed atomic.Int64
	failed    atomic.Int64
	discovered atomic.Int64
	discoveryComplete atomic.Bool

	phaseMu     sync.Mutex
	phase       IndexingPhase
	currentFile string

	startedAt time.Time

	errMu  sync.Mutex
	errors []ErrorEntry
}

func newProgressTracker() *progressTracker {
	return &progressTracker{phase: PhaseDiscovery, startedAt: time.Now()}
}

func (p *progressTracker) setPhase(phase IndexingPhase) {
	p.phaseMu.Lock()
	p.phase = phase
	p.phaseMu.Unlock()
}

func (p *progressTracker) setCurrentFile(file string) {
	p.phaseMu.Lock()
	p.currentFile = file
	p.phaseMu.Unlock()
}

func (p *progressTracker) addDiscovered(n int) { p.discovered.Add(int64(n)) }

func (p *progressTracker) markDiscoveryComplete() { p.discoveryComplete.Store(true) }

func (p *progressTracker) addProcessed(n int) { p.processed.Add(int64(n)) }

func (p *progressTracker) addErrors(entries []ErrorEntry) {
	if len(entries) == 0 {
		return
	}
	p.failed.Add(int64(len(entries)))
	p.errMu.Lock()
	p.errors = append(p.errors, entries...)
	p.errMu.Unlock()
}

// snapshot renders the tracker's current state as an IndexProgress,
// estimating completion time from the average per-document processing rate
// so far — the same elapsed/processed*(discovered-processed) formula the
// original uses, only meaningful once at least one document has landed.
func (p *progressTracker) snapshot() IndexProgress {
	p.phaseMu.Lock()
	phase := p.phase
	currentFile := p.currentFile
	p.phaseMu.Unlock()

	p.errMu.Lock()
	errs := make([]ErrorEntry, len(p.errors))
	copy(errs, p.errors)
	p.errMu.Unlock()

	processed := int(p.processed.Load())
	failed := int(p.failed.Load())
	discovered := int(p.discovered.Load())
	discoveryComplete := p.discoveryComplete.Load()

	snap := IndexProgress{
		Phase:             phase,
		Processed:         processed,
		Total:             discovered,
		Failed:            failed,
		CurrentFile:       currentFile,
		FilesDiscovered:   discovered,
		DiscoveryComplete: discoveryComplete,
		Errors:            errs,
		StartedAt:         p.startedAt,
	}

	if processed > 0 && discovered > 0 && discovered > processed {
		elapsed := time.Since(p.startedAt)
		perDoc := elapsed / time.Duration(processed)
		remaining := perDoc * time.Duration(discovered-processed)
		eta := time.Now().Add(remaining)
		snap.EstimatedCompletion = &eta
	}

	return snap
}
