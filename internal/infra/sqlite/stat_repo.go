package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"spotify-release-telegram-bot/internal/usecase"
)

type DispatchStatRepo struct {
	db *sql.DB
}

func NewDispatchStatRepo(dsn string) (*DispatchStatRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateDispatchStat(db); err != nil {
		return nil, err
	}
	return &DispatchStatRepo{db: db}, nil
}

func migrateDispatchStat(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS dispatch_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    artist_id TEXT NOT NULL,
    release_id TEXT NOT NULL,
    total INTEGER NOT NULL,
    sent INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`)
	return err
}

func (r *DispatchStatRepo) Save(ctx context.Context, stat usecase.DispatchStat) error {
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dispatch_stats(artist_id, release_id, total, sent, failed, created_at) VALUES(?,?,?,?,?,?)`,
		stat.ArtistID, stat.ReleaseID, stat.Total, stat.Sent, stat.Failed, stat.CreatedAt)
	return err
}

func (r *DispatchStatRepo) ListRecent(ctx context.Context, n int) ([]usecase.DispatchStat, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT artist_id, release_id, total, sent, failed, created_at FROM dispatch_stats ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]usecase.DispatchStat, 0, n)
	for rows.Next() {
		var s usecase.DispatchStat
		if err := rows.Scan(&s.ArtistID, &s.ReleaseID, &s.Total, &s.Sent, &s.Failed, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
