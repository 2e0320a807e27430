package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"spotify-release-telegram-bot/internal/domain"
	"spotify-release-telegram-bot/internal/usecase"
)

// Registry хранит пользователей, артистов и связь подписок. Связь лежит в
// отдельной таблице subscriptions и меняется одной транзакцией, так что обе
// стороны всегда согласованы. Внешних ключей нет намеренно: сверку висячих
// записей делает отдельный проход (см. usecase.Reconciler).
type Registry struct {
	db *sql.DB
}

func NewRegistry(dsn string) (*Registry, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateRegistry(db); err != nil {
		return nil, err
	}
	return &Registry{db: db}, nil
}

func migrateRegistry(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    chat_id INTEGER PRIMARY KEY,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS artists (
    artist_id TEXT PRIMARY KEY,
    latest_release_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS subscriptions (
    chat_id INTEGER NOT NULL,
    artist_id TEXT NOT NULL,
    PRIMARY KEY (chat_id, artist_id)
);
`)
	return err
}

func (r *Registry) Close() error { return r.db.Close() }

func (r *Registry) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	u := &domain.User{ChatID: chatID}
	err := r.db.QueryRowContext(ctx, `SELECT created_at FROM users WHERE chat_id = ?`, chatID).Scan(&u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", chatID, err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT artist_id FROM subscriptions WHERE chat_id = ? ORDER BY artist_id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("get user %d subscriptions: %w", chatID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var artistID string
		if err := rows.Scan(&artistID); err != nil {
			return nil, err
		}
		u.Subscriptions = append(u.Subscriptions, artistID)
	}
	return u, rows.Err()
}

func (r *Registry) AddUser(ctx context.Context, chatID int64) (*domain.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO users(chat_id, created_at) VALUES(?, ?)`, chatID, now)
	if err != nil {
		return nil, fmt.Errorf("add user %d: %w", chatID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrAlreadyExists
	}
	return &domain.User{ChatID: chatID, CreatedAt: now}, nil
}

func (r *Registry) RemoveUser(ctx context.Context, chatID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE chat_id = ?`, chatID).Scan(&exists); err != nil {
		return fmt.Errorf("remove user %d: %w", chatID, err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	// Сначала снимаем подписки, чтобы ни один артист не остался
	// ссылаться на удаленного пользователя.
	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("remove user %d subscriptions: %w", chatID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE artist_id NOT IN (SELECT artist_id FROM subscriptions)`); err != nil {
		return fmt.Errorf("remove user %d orphan artists: %w", chatID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("remove user %d: %w", chatID, err)
	}
	return tx.Commit()
}

func (r *Registry) GetArtist(ctx context.Context, artistID string) (*domain.Artist, error) {
	a := &domain.Artist{ArtistID: artistID}
	err := r.db.QueryRowContext(ctx, `SELECT latest_release_id FROM artists WHERE artist_id = ?`, artistID).Scan(&a.LatestReleaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artist %s: %w", artistID, err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM subscriptions WHERE artist_id = ? ORDER BY chat_id`, artistID)
	if err != nil {
		return nil, fmt.Errorf("get artist %s subscribers: %w", artistID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, err
		}
		a.SubscribedChatIDs = append(a.SubscribedChatIDs, chatID)
	}
	return a, rows.Err()
}

func (r *Registry) AddArtist(ctx context.Context, artistID, latestReleaseID string) (*domain.Artist, error) {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO artists(artist_id, latest_release_id) VALUES(?, ?)`, artistID, latestReleaseID)
	if err != nil {
		return nil, fmt.Errorf("add artist %s: %w", artistID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrAlreadyExists
	}
	return &domain.Artist{ArtistID: artistID, LatestReleaseID: latestReleaseID}, nil
}

func (r *Registry) Subscribe(ctx context.Context, chatID int64, artistID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := requireBoth(ctx, tx, chatID, artistID); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO subscriptions(chat_id, artist_id) VALUES(?, ?)`, chatID, artistID)
	if err != nil {
		return false, fmt.Errorf("subscribe %d -> %s: %w", chatID, artistID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, tx.Commit()
}

func (r *Registry) Unsubscribe(ctx context.Context, chatID int64, artistID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := requireBoth(ctx, tx, chatID, artistID); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ? AND artist_id = ?`, chatID, artistID)
	if err != nil {
		return false, fmt.Errorf("unsubscribe %d -> %s: %w", chatID, artistID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Связи не было — это не ошибка, но и снимать нечего.
		return false, tx.Commit()
	}
	var left int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions WHERE artist_id = ?`, artistID).Scan(&left); err != nil {
		return false, err
	}
	if left == 0 {
		// Артист без подписчиков никому не нужен — подчищаем сразу.
		if _, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE artist_id = ?`, artistID); err != nil {
			return false, fmt.Errorf("delete empty artist %s: %w", artistID, err)
		}
	}
	return true, tx.Commit()
}

func requireBoth(ctx context.Context, tx *sql.Tx, chatID int64, artistID string) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE chat_id = ?`, chatID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", chatID, domain.ErrNotFound)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists WHERE artist_id = ?`, artistID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("artist %s: %w", artistID, domain.ErrNotFound)
	}
	return nil
}

func (r *Registry) AllArtistIDs(ctx context.Context) (domain.ArtistIDCursor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT artist_id FROM artists ORDER BY artist_id`)
	if err != nil {
		return nil, fmt.Errorf("all artist ids: %w", err)
	}
	return &artistIDCursor{rows: rows}, nil
}

type artistIDCursor struct {
	rows *sql.Rows
	err  error
}

func (c *artistIDCursor) Next() (string, bool) {
	if !c.rows.Next() {
		return "", false
	}
	var id string
	if err := c.rows.Scan(&id); err != nil {
		c.err = err
		return "", false
	}
	return id, true
}

func (c *artistIDCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *artistIDCursor) Close() error { return c.rows.Close() }

func (r *Registry) UpdateLatestRelease(ctx context.Context, artistID, releaseID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE artists SET latest_release_id = ? WHERE artist_id = ?`, releaseID, artistID)
	if err != nil {
		return fmt.Errorf("update latest release %s: %w", artistID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOrphanArtists удаляет артистов без единой подписки.
func (r *Registry) DeleteOrphanArtists(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM artists WHERE artist_id NOT IN (SELECT artist_id FROM subscriptions)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphan artists: %w", err)
	}
	return res.RowsAffected()
}

// DeleteDanglingSubscriptions удаляет подписки, у которых нет
// пользователя или артиста.
func (r *Registry) DeleteDanglingSubscriptions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM subscriptions
WHERE chat_id NOT IN (SELECT chat_id FROM users)
   OR artist_id NOT IN (SELECT artist_id FROM artists)`)
	if err != nil {
		return 0, fmt.Errorf("delete dangling subscriptions: %w", err)
	}
	return res.RowsAffected()
}

func (r *Registry) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *Registry) CountArtists(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`).Scan(&n)
	return n, err
}

func (r *Registry) TopArtists(ctx context.Context, n int) ([]usecase.ArtistCount, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT artist_id, COUNT(*) AS subs FROM subscriptions
GROUP BY artist_id ORDER BY subs DESC, artist_id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top artists: %w", err)
	}
	defer rows.Close()
	out := make([]usecase.ArtistCount, 0, n)
	for rows.Next() {
		var c usecase.ArtistCount
		if err := rows.Scan(&c.ArtistID, &c.Subscribers); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
