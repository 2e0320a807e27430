package usecase_test

import (
	"context"
	"testing"
	"time"

	"spotify-release-telegram-bot/internal/infra/memory"
	"spotify-release-telegram-bot/internal/usecase"
)

func newPoller(t *testing.T) (*usecase.Poller, *memory.Registry, *fakeCatalog, *recDispatcher) {
	t.Helper()
	registry := memory.NewRegistry()
	catalog := newFakeCatalog()
	dispatcher := &recDispatcher{}
	p := usecase.NewPoller(registry, catalog, dispatcher, time.Hour, testLogger())
	return p, registry, catalog, dispatcher
}

func seed(t *testing.T, registry *memory.Registry, chatID int64, artistID, releaseID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := registry.GetUser(ctx, chatID); err != nil {
		if _, err := registry.AddUser(ctx, chatID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := registry.GetArtist(ctx, artistID); err != nil {
		if _, err := registry.AddArtist(ctx, artistID, releaseID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := registry.Subscribe(ctx, chatID, artistID); err != nil {
		t.Fatal(err)
	}
}

// Не больше одного уведомления на релиз: совпадающий идентификатор не дает
// события, новый — ровно одно, и только один раз.
func TestPollAtMostOncePerRelease(t *testing.T) {
	p, registry, catalog, dispatcher := newPoller(t)
	ctx := context.Background()
	seed(t, registry, 1, "a1", "A")
	catalog.set("a1", "A")

	detected, err := p.PollOnce(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if detected != 0 || len(dispatcher.all()) != 0 {
		t.Fatalf("события без смены релиза: %d", len(dispatcher.all()))
	}

	catalog.set("a1", "B")
	detected, err = p.PollOnce(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if detected != 1 {
		t.Fatalf("detected = %d", detected)
	}
	events := dispatcher.all()
	if len(events) != 1 {
		t.Fatalf("событий %d, ожидалось 1", len(events))
	}
	ev := events[0]
	if ev.ArtistID != "a1" || ev.PreviousReleaseID != "A" || ev.NewReleaseID != "B" {
		t.Fatalf("событие: %+v", ev)
	}
	if len(ev.Recipients) != 1 || ev.Recipients[0] != 1 {
		t.Fatalf("получатели: %v", ev.Recipients)
	}
	a, _ := registry.GetArtist(ctx, "a1")
	if a.LatestReleaseID != "B" {
		t.Fatalf("latest_release_id = %q", a.LatestReleaseID)
	}

	// Тот же «B» на следующем круге — тишина.
	if _, err := p.PollOnce(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(dispatcher.all()) != 1 {
		t.Fatalf("повторное событие по тому же релизу: %d", len(dispatcher.all()))
	}
}

// Первый опрос артиста без сохраненного релиза тоже считается сменой.
func TestPollUnsetLatestRelease(t *testing.T) {
	p, registry, catalog, dispatcher := newPoller(t)
	ctx := context.Background()
	seed(t, registry, 1, "a1", "")
	catalog.set("a1", "A")

	if _, err := p.PollOnce(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	events := dispatcher.all()
	if len(events) != 1 || events[0].PreviousReleaseID != "" || events[0].NewReleaseID != "A" {
		t.Fatalf("события: %+v", events)
	}
}

// Выпавший из ответа каталога артист пропускается, остальные обрабатываются.
func TestPollPartialCatalogResponse(t *testing.T) {
	p, registry, catalog, dispatcher := newPoller(t)
	ctx := context.Background()
	seed(t, registry, 1, "a1", "A")
	seed(t, registry, 1, "a2", "X")
	catalog.set("a2", "Y") // a1 каталог не вернул

	detected, err := p.PollOnce(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if detected != 1 {
		t.Fatalf("detected = %d", detected)
	}
	events := dispatcher.all()
	if len(events) != 1 || events[0].ArtistID != "a2" {
		t.Fatalf("события: %+v", events)
	}
	// a1 не тронут и дождется следующего тика.
	a, _ := registry.GetArtist(ctx, "a1")
	if a.LatestReleaseID != "A" {
		t.Fatalf("latest_release_id a1 = %q", a.LatestReleaseID)
	}
}

func TestPollEmptyRegistry(t *testing.T) {
	p, _, _, dispatcher := newPoller(t)
	detected, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if detected != 0 || len(dispatcher.all()) != 0 {
		t.Fatal("пустой реестр не должен давать событий")
	}
}
