package usecase

import (
	"context"
	"log/slog"
	"time"
)

// ReconcileRepository — операции сверки над хранилищем.
type ReconcileRepository interface {
	DeleteDanglingSubscriptions(ctx context.Context) (int64, error)
	DeleteOrphanArtists(ctx context.Context) (int64, error)
}

// Reconciler периодически убирает односторонние остатки: подписки без
// пользователя или артиста и артистов без подписчиков. Политика одна —
// висячая ссылка удаляется, удаленная запись никогда не воскресает.
type Reconciler struct {
	repo     ReconcileRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(repo ReconcileRepository, interval time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{repo: repo, interval: interval, logger: logger}
}

func (r *Reconciler) Run(ctx context.Context) {
	r.Sweep(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep: сначала висячие подписки, потом осиротевшие артисты — удаление
// подписок может оставить артиста без подписчиков.
func (r *Reconciler) Sweep(ctx context.Context) {
	subs, err := r.repo.DeleteDanglingSubscriptions(ctx)
	if err != nil {
		r.logger.Error("reconcile subscriptions failed", "error", err)
		return
	}
	artists, err := r.repo.DeleteOrphanArtists(ctx)
	if err != nil {
		r.logger.Error("reconcile artists failed", "error", err)
		return
	}
	if subs > 0 || artists > 0 {
		r.logger.Warn("reconcile removed dangling records", "subscriptions", subs, "artists", artists)
	}
}
