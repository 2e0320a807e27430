package usecase

import (
	"context"
	"fmt"
	"strings"
)

type ArtistCount struct {
	ArtistID    string
	Subscribers int
}

type StatsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountArtists(ctx context.Context) (int, error)
	TopArtists(ctx context.Context, n int) ([]ArtistCount, error)
}

// StatsUsecase собирает сводку для админа: размеры реестра, самые
// популярные артисты и итоги последних рассылок.
type StatsUsecase struct {
	repo  StatsRepository
	stats DispatchStatRepository
}

func NewStatsUsecase(repo StatsRepository, stats DispatchStatRepository) *StatsUsecase {
	return &StatsUsecase{repo: repo, stats: stats}
}

// GraphData возвращает метки и значения для графика подписчиков по артистам.
func (u *StatsUsecase) GraphData(ctx context.Context, n int) ([]string, []int, error) {
	top, err := u.repo.TopArtists(ctx, n)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(top))
	values := make([]int, 0, len(top))
	for _, t := range top {
		labels = append(labels, shortID(t.ArtistID))
		values = append(values, t.Subscribers)
	}
	return labels, values, nil
}

// Summary — текстовая сводка, запасной вариант вместо графика.
func (u *StatsUsecase) Summary(ctx context.Context) string {
	var b strings.Builder
	users, err := u.repo.CountUsers(ctx)
	if err != nil {
		return "Статистика недоступна"
	}
	artists, _ := u.repo.CountArtists(ctx)
	fmt.Fprintf(&b, "Пользователей: %d, артистов: %d\n", users, artists)

	if top, err := u.repo.TopArtists(ctx, 5); err == nil && len(top) > 0 {
		b.WriteString("Топ артистов по подпискам:\n")
		for i, t := range top {
			fmt.Fprintf(&b, "%d) %s — %d\n", i+1, t.ArtistID, t.Subscribers)
		}
	}
	if recent, err := u.stats.ListRecent(ctx, 5); err == nil && len(recent) > 0 {
		b.WriteString("Последние рассылки:\n")
		for i, s := range recent {
			fmt.Fprintf(&b, "%d) %s (%s) — всего: %d, отправлено: %d, ошибки: %d\n",
				i+1, s.ArtistID, s.CreatedAt.Format("2006-01-02 15:04"), s.Total, s.Sent, s.Failed)
		}
	}
	return b.String()
}

// shortID обрезает длинные идентификаторы каталога для подписей на графике.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
