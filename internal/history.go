package internal

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

const historySyncKey = "history"

// HistorySync replaces the store's history with the service's list
type HistorySync struct {
	svc   AnalysisService
	store *SessionStore
	group singleflight.Group
}

// NewHistorySync creates a history sync bound to a store
func NewHistorySync(svc AnalysisService, store *SessionStore) *HistorySync {
	return &HistorySync{svc: svc, store: store}
}

// Sync fetches history and replaces the store's copy wholesale. On any
// failure history is emptied and a *SyncError is returned. Concurrent
// calls share one request; the shared request is not cancelled by any
// single caller, and each caller stops waiting when its own ctx ends.
func (h *HistorySync) Sync(ctx context.Context) error {
	token := h.store.Token()

	fetchCtx := context.WithoutCancel(ctx)
	ch := h.group.DoChan(historySyncKey, func() (interface{}, error) {
		return h.svc.FetchHistory(fetchCtx)
	})

	var v interface{}
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
		if res.Shared {
			LogDebug("History sync joined an in-flight request")
		}
	case <-ctx.Done():
		err = &RequestError{Kind: KindNetwork, Endpoint: HistoryPath, Err: ctx.Err()}
	}

	if err != nil {
		if h.store.CommitHistory(token, []Analysis{}) {
			LogWarn("History sync failed, history cleared: %v", err)
		}
		return &SyncError{Err: err}
	}

	list, _ := v.([]Analysis)
	if list == nil {
		list = []Analysis{}
	}
	if !h.store.CommitHistory(token, list) {
		return fmt.Errorf("history sync: %w", ErrStaleResult)
	}
	LogDebug("History synced: %d analyses", len(list))
	return nil
}
