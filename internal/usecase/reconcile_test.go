package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"spotify-release-telegram-bot/internal/domain"
	"spotify-release-telegram-bot/internal/infra/memory"
	"spotify-release-telegram-bot/internal/usecase"
)

// Артист, созданный без единой подписки (окно сбоя между AddArtist и
// Subscribe), вычищается проходом сверки.
func TestSweepRemovesOrphanArtist(t *testing.T) {
	registry := memory.NewRegistry()
	ctx := context.Background()
	if _, err := registry.AddArtist(ctx, "lonely", "rel1"); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.AddUser(ctx, 1); err != nil {
		t.Fatal(err)
	}

	r := usecase.NewReconciler(registry, time.Hour, testLogger())
	r.Sweep(ctx)

	if _, err := registry.GetArtist(ctx, "lonely"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("осиротевший артист должен быть удален, получено %v", err)
	}
	if _, err := registry.GetUser(ctx, 1); err != nil {
		t.Fatalf("пользователь не должен пострадать: %v", err)
	}
}

func TestSweepKeepsLiveLinks(t *testing.T) {
	registry := memory.NewRegistry()
	ctx := context.Background()
	if _, err := registry.AddUser(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.AddArtist(ctx, "a1", "rel1"); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Subscribe(ctx, 1, "a1"); err != nil {
		t.Fatal(err)
	}

	r := usecase.NewReconciler(registry, time.Hour, testLogger())
	r.Sweep(ctx)
	r.Sweep(ctx) // повторный проход тоже ничего не трогает

	a, err := registry.GetArtist(ctx, "a1")
	if err != nil {
		t.Fatalf("живой артист удален: %v", err)
	}
	if len(a.SubscribedChatIDs) != 1 {
		t.Fatalf("подписчики: %v", a.SubscribedChatIDs)
	}
}
