package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-client/internal/domain"
)

// ResultArchive holds finished game results in memory, newest first on list.
type ResultArchive struct {
	mu      sync.RWMutex
	results []domain.GameResult
}

func NewResultArchive() *ResultArchive {
	return &ResultArchive{}
}

func (a *ResultArchive) SaveResult(_ context.Context, result domain.GameResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	return nil
}

func (a *ResultArchive) ListResults(_ context.Context, limit int) ([]domain.GameResult, error) {
	a.mu.RLock()
	out := append([]domain.GameResult(nil), a.results...)
	a.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
