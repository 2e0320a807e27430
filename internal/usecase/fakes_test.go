package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"spotify-release-telegram-bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCatalog отдает заранее заданные релизы по идентификатору артиста.
type fakeCatalog struct {
	mu     sync.Mutex
	albums map[string]domain.AlbumInfo
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{albums: make(map[string]domain.AlbumInfo)}
}

func (f *fakeCatalog) set(artistID, albumID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums[artistID] = domain.AlbumInfo{
		ArtistID: artistID,
		AlbumID:  albumID,
		AlbumURL: "https://open.spotify.com/album/" + albumID,
	}
}

func (f *fakeCatalog) LatestAlbum(_ context.Context, artistID string) (domain.AlbumInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.albums[artistID]; ok {
		return a, nil
	}
	return domain.AlbumInfo{}, fmt.Errorf("artist %s: %w", artistID, domain.ErrNotFound)
}

func (f *fakeCatalog) LatestAlbums(_ context.Context, artistIDs []string) ([]domain.AlbumInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AlbumInfo, 0, len(artistIDs))
	for _, id := range artistIDs {
		if a, ok := f.albums[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordedReply struct {
	ChatID  int64
	Command domain.Command
	Success bool
}

// fakeReplySender записывает ответы и приветствия.
type fakeReplySender struct {
	mu       sync.Mutex
	welcomes []int64
	replies  []recordedReply
}

func (f *fakeReplySender) Reply(chatID int64, command domain.Command, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, recordedReply{ChatID: chatID, Command: command, Success: success})
	return nil
}

func (f *fakeReplySender) Welcome(chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, chatID)
	return nil
}

func (f *fakeReplySender) lastReply() (recordedReply, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return recordedReply{}, false
	}
	return f.replies[len(f.replies)-1], true
}

// fakeReleaseSender доставляет релизы, по желанию имитируя недоступных
// получателей и прочие сбои.
type fakeReleaseSender struct {
	mu          sync.Mutex
	sent        []int64
	unreachable map[int64]struct{}
	broken      map[int64]struct{}
}

func newFakeReleaseSender() *fakeReleaseSender {
	return &fakeReleaseSender{
		unreachable: make(map[int64]struct{}),
		broken:      make(map[int64]struct{}),
	}
}

func (f *fakeReleaseSender) SendRelease(chatID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.unreachable[chatID]; ok {
		return fmt.Errorf("%w: bot was blocked", domain.ErrUnreachable)
	}
	if _, ok := f.broken[chatID]; ok {
		return errors.New("network flake")
	}
	f.sent = append(f.sent, chatID)
	return nil
}

// recDispatcher копит события релизов вместо рассылки.
type recDispatcher struct {
	mu     sync.Mutex
	events []domain.ReleaseEvent
}

func (d *recDispatcher) Dispatch(_ context.Context, ev domain.ReleaseEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recDispatcher) all() []domain.ReleaseEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.ReleaseEvent(nil), d.events...)
}
