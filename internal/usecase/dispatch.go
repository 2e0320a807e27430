package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"spotify-release-telegram-bot/internal/domain"
)

// ReleaseSender доставляет ссылку на релиз одному получателю. Недоступность
// получателя помечается domain.ErrUnreachable.
type ReleaseSender interface {
	SendRelease(chatID int64, albumURL string) error
}

type DispatchStat struct {
	ArtistID  string
	ReleaseID string
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type DispatchStatRepository interface {
	Save(ctx context.Context, stat DispatchStat) error
	ListRecent(ctx context.Context, n int) ([]DispatchStat, error)
}

// Dispatcher рассылает релиз всем подписчикам. Получатели независимы: сбой
// одного не мешает остальным. Недоступный получатель превращается в событие
// UserUnreachable, и координатор удаляет его запись.
type Dispatcher struct {
	sender ReleaseSender
	stats  DispatchStatRepository
	events chan<- domain.Event
	logger *slog.Logger
}

func NewDispatcher(sender ReleaseSender, stats DispatchStatRepository, events chan<- domain.Event, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, stats: stats, events: events, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.ReleaseEvent) {
	var sent, failed int
	for _, chatID := range ev.Recipients {
		err := d.sender.SendRelease(chatID, ev.AlbumURL)
		if err == nil {
			sent++
			continue
		}
		failed++
		if errors.Is(err, domain.ErrUnreachable) {
			d.logger.Info("recipient unreachable, scheduling cleanup", "chat_id", chatID)
			select {
			case d.events <- domain.UserUnreachable{ChatID: chatID}:
			case <-ctx.Done():
				return
			}
			continue
		}
		// Прочие сбои доставки не повторяются в этом цикле.
		d.logger.Warn("release delivery failed", "chat_id", chatID, "artist_id", ev.ArtistID, "error", err)
	}

	if err := d.stats.Save(ctx, DispatchStat{
		ArtistID:  ev.ArtistID,
		ReleaseID: ev.NewReleaseID,
		Total:     len(ev.Recipients),
		Sent:      sent,
		Failed:    failed,
	}); err != nil {
		d.logger.Warn("save dispatch stat failed", "artist_id", ev.ArtistID, "error", err)
	}
	d.logger.Info("release dispatched",
		"artist_id", ev.ArtistID,
		"release_id", ev.NewReleaseID,
		"sent", sent,
		"failed", failed)
}
