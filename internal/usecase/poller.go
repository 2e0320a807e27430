package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"spotify-release-telegram-bot/internal/domain"
)

// ReleaseDispatcher получает событие о новом релизе для рассылки подписчикам.
type ReleaseDispatcher interface {
	Dispatch(ctx context.Context, ev domain.ReleaseEvent)
}

const pollBatchSize = 50

// Poller периодически сверяет каталог с сохраненным последним релизом
// каждого артиста. Новый идентификатор сначала записывается в реестр и лишь
// потом уходит в рассылку, поэтому один релиз не может разослаться дважды.
type Poller struct {
	registry   domain.Registry
	catalog    Catalog
	dispatcher ReleaseDispatcher
	interval   time.Duration
	timeout    time.Duration
	workers    int
	logger     *slog.Logger
}

func NewPoller(registry domain.Registry, catalog Catalog, dispatcher ReleaseDispatcher, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		registry:   registry,
		catalog:    catalog,
		dispatcher: dispatcher,
		interval:   interval,
		timeout:    15 * time.Second,
		workers:    8,
		logger:     logger,
	}
}

// Run делает первый проход сразу, дальше — по таймеру до отмены контекста.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	detected, err := p.PollOnce(ctx)
	if err != nil {
		p.logger.Error("poll cycle failed", "error", err)
		return
	}
	p.logger.Info("poll cycle done", "new_releases", detected)
}

// PollOnce просматривает всех артистов и возвращает число обнаруженных
// новых релизов. Идентификаторы читаются курсором и обрабатываются
// партиями, чтобы не держать всю коллекцию в памяти.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	cursor, err := p.registry.AllArtistIDs(ctx)
	if err != nil {
		return 0, err
	}
	defer cursor.Close()

	var detected int
	batch := make([]string, 0, pollBatchSize)
	for {
		id, ok := cursor.Next()
		if ok {
			batch = append(batch, id)
		}
		if (!ok && len(batch) > 0) || len(batch) == pollBatchSize {
			detected += p.pollBatch(ctx, batch)
			batch = batch[:0]
		}
		if !ok {
			break
		}
		if ctx.Err() != nil {
			return detected, ctx.Err()
		}
	}
	return detected, cursor.Err()
}

func (p *Poller) pollBatch(ctx context.Context, artistIDs []string) int {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	albums, err := p.catalog.LatestAlbums(callCtx, artistIDs)
	cancel()
	if err != nil {
		p.logger.Error("catalog batch failed", "requested", len(artistIDs), "error", err)
		return 0
	}
	if len(albums) != len(artistIDs) {
		// Недостающие артисты пропускаются до следующего тика,
		// но расхождение — сигнал о качестве данных.
		p.logger.Warn("catalog returned fewer items", "requested", len(artistIDs), "returned", len(albums))
	}

	var detected atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, album := range albums {
		g.Go(func() error {
			if p.checkArtist(ctx, album) {
				detected.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(detected.Load())
}

// checkArtist сравнивает сохраненный релиз с ответом каталога и при смене
// запускает рассылку. Ошибки одного артиста не трогают остальных.
func (p *Poller) checkArtist(ctx context.Context, album domain.AlbumInfo) bool {
	opCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	artist, err := p.registry.GetArtist(opCtx, album.ArtistID)
	if errors.Is(err, domain.ErrNotFound) {
		// Гонка с отпиской последнего подписчика: артиста уже нет, пропускаем.
		return false
	}
	if err != nil {
		p.logger.Error("get artist failed", "artist_id", album.ArtistID, "error", err)
		return false
	}
	if artist.LatestReleaseID == album.AlbumID {
		return false
	}

	if err := p.registry.UpdateLatestRelease(opCtx, album.ArtistID, album.AlbumID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false
		}
		p.logger.Error("update latest release failed", "artist_id", album.ArtistID, "error", err)
		return false
	}
	p.logger.Info("new release detected",
		"artist_id", album.ArtistID,
		"previous", artist.LatestReleaseID,
		"release_id", album.AlbumID,
		"recipients", len(artist.SubscribedChatIDs))

	p.dispatcher.Dispatch(ctx, domain.ReleaseEvent{
		ArtistID:          album.ArtistID,
		PreviousReleaseID: artist.LatestReleaseID,
		NewReleaseID:      album.AlbumID,
		AlbumURL:          album.AlbumURL,
		Recipients:        artist.SubscribedChatIDs,
	})
	return true
}
