package internal

import (
	"context"
	"fmt"
	"sync"
)

// Pipeline owns one session: it turns image references into stored
// analyses and keeps history in sync
type Pipeline struct {
	svc     AnalysisService
	store   *SessionStore
	history *HistorySync

	mu       sync.Mutex
	inflight bool
	gen      uint64
}

// NewPipeline creates a pipeline over a service and a store
func NewPipeline(svc AnalysisService, store *SessionStore) *Pipeline {
	return &Pipeline{
		svc:     svc,
		store:   store,
		history: NewHistorySync(svc, store),
	}
}

// Store returns the session store the pipeline writes to
func (p *Pipeline) Store() *SessionStore {
	return p.store
}

// RequestAnalysis encodes ref, sends it for analysis and stores the result
// as the current analysis. Only one request may be outstanding; a second
// call returns ErrAnalysisInFlight. An empty lang uses the store's language.
func (p *Pipeline) RequestAnalysis(ctx context.Context, ref ImageRef, lang Language) (*Analysis, error) {
	gen, ok := p.acquire()
	if !ok {
		return nil, ErrAnalysisInFlight
	}
	defer p.release(gen)

	token := p.store.Token()
	if lang == "" {
		lang = p.store.Language()
	}

	payload, err := EncodeImage(ref)
	if err != nil {
		return nil, err
	}

	LogInfo("Requesting analysis of %s (%s, %d bytes, lang=%s)", ref.Label(), payload.MediaType, payload.Size, lang)
	a, err := p.svc.Analyze(ctx, payload, lang)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	a.Screenshot = string(ref)
	if !p.store.CommitCurrent(token, *a) {
		LogDebug("Dropping analysis %s: session was reset", a.ID)
		return nil, ErrStaleResult
	}
	return a, nil
}

// RefreshHistory syncs history from the service
func (p *Pipeline) RefreshHistory(ctx context.Context) error {
	return p.history.Sync(ctx)
}

// SetLanguage changes the language used for future requests
func (p *Pipeline) SetLanguage(l Language) {
	p.store.SetLanguage(l)
}

// SelectHistoryEntry makes a history entry the current analysis
func (p *Pipeline) SelectHistoryEntry(id string) (*Analysis, error) {
	a, ok := p.store.FindHistoryEntry(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	p.store.SetCurrentAnalysis(*a)
	return a, nil
}

// Reset abandons the current analysis. Responses still outstanding are
// discarded when they arrive.
func (p *Pipeline) Reset() {
	p.store.Reset()
	p.mu.Lock()
	p.gen++
	p.inflight = false
	p.mu.Unlock()
}

// Busy reports whether an analysis is outstanding
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight
}

func (p *Pipeline) acquire() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight {
		return 0, false
	}
	p.inflight = true
	p.gen++
	return p.gen, true
}

// release frees the slot unless a Reset already handed it to a newer request
func (p *Pipeline) release(gen uint64) {
	p.mu.Lock()
	if p.gen == gen {
		p.inflight = false
	}
	p.mu.Unlock()
}
