package memory

import (
	"context"
	"sync"
	"time"

	"spotify-release-telegram-bot/internal/usecase"
)

type DispatchStatRepo struct {
	mu    sync.Mutex
	stats []usecase.DispatchStat
}

func NewDispatchStatRepo() *DispatchStatRepo {
	return &DispatchStatRepo{}
}

func (r *DispatchStatRepo) Save(_ context.Context, stat usecase.DispatchStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now().UTC()
	}
	r.stats = append(r.stats, stat)
	return nil
}

func (r *DispatchStatRepo) ListRecent(_ context.Context, n int) ([]usecase.DispatchStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 {
		n = 10
	}
	out := make([]usecase.DispatchStat, 0, n)
	for i := len(r.stats) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.stats[i])
	}
	return out, nil
}
