package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"spotify-release-telegram-bot/internal/usecase"
)

func TestDispatchStatRepo(t *testing.T) {
	repo, err := NewDispatchStatRepo(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("stat repo init: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.Save(ctx, usecase.DispatchStat{
			ArtistID:  "a1",
			ReleaseID: "rel",
			Total:     10,
			Sent:      9,
			Failed:    1,
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	stats, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("записей %d, ожидалось 2", len(stats))
	}
	if stats[0].Sent != 9 || stats[0].Failed != 1 || stats[0].Total != 10 {
		t.Fatalf("stat = %+v", stats[0])
	}
	if stats[0].CreatedAt.IsZero() {
		t.Fatal("created_at не заполнен")
	}
}
