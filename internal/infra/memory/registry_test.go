package memory

import (
	"context"
	"errors"
	"testing"

	"spotify-release-telegram-bot/internal/domain"
)

// Реализация в памяти должна держать те же контракты, что и sqlite-реестр:
// юзкейс-тесты опираются на нее.
func TestMemoryRegistryContracts(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	if _, err := r.AddUser(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddUser(ctx, 1); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("ожидался ErrAlreadyExists, получено %v", err)
	}
	if _, err := r.AddArtist(ctx, "a1", "rel1"); err != nil {
		t.Fatal(err)
	}

	changed, err := r.Subscribe(ctx, 1, "a1")
	if err != nil || !changed {
		t.Fatalf("subscribe: %v %v", changed, err)
	}
	changed, err = r.Subscribe(ctx, 1, "a1")
	if err != nil || changed {
		t.Fatalf("повторная подписка: %v %v", changed, err)
	}

	u, err := r.GetUser(ctx, 1)
	if err != nil || len(u.Subscriptions) != 1 || u.Subscriptions[0] != "a1" {
		t.Fatalf("user = %+v, err = %v", u, err)
	}
	a, err := r.GetArtist(ctx, "a1")
	if err != nil || len(a.SubscribedChatIDs) != 1 || a.SubscribedChatIDs[0] != 1 {
		t.Fatalf("artist = %+v, err = %v", a, err)
	}

	removed, err := r.Unsubscribe(ctx, 1, "a1")
	if err != nil || !removed {
		t.Fatalf("unsubscribe: %v %v", removed, err)
	}
	if _, err := r.GetArtist(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("пустой артист должен быть удален, получено %v", err)
	}
}

func TestMemoryRegistryRemoveUserCascades(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	for _, chatID := range []int64{1, 2} {
		if _, err := r.AddUser(ctx, chatID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.AddArtist(ctx, "a1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddArtist(ctx, "a2", ""); err != nil {
		t.Fatal(err)
	}
	for _, artistID := range []string{"a1", "a2"} {
		if _, err := r.Subscribe(ctx, 1, artistID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.Subscribe(ctx, 2, "a2"); err != nil {
		t.Fatal(err)
	}

	if err := r.RemoveUser(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetArtist(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("a1 должен быть удален каскадом")
	}
	a2, err := r.GetArtist(ctx, "a2")
	if err != nil || len(a2.SubscribedChatIDs) != 1 || a2.SubscribedChatIDs[0] != 2 {
		t.Fatalf("a2 = %+v, err = %v", a2, err)
	}
}

func TestMemoryRegistryCursor(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	for _, artistID := range []string{"b", "a", "c"} {
		if _, err := r.AddArtist(ctx, artistID, ""); err != nil {
			t.Fatal(err)
		}
	}

	cursor, err := r.AllArtistIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cursor.Close()
	var ids []string
	for {
		id, ok := cursor.Next()
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("ids = %v", ids)
	}
}
