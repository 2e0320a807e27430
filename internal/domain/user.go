package domain

import (
	"context"
	"time"
)

type User struct {
	ChatID        int64
	Subscriptions []string
	CreatedAt     time.Time
}

type Artist struct {
	ArtistID          string
	LatestReleaseID   string
	SubscribedChatIDs []int64
}

// Registry владеет записями пользователей и артистов вместе с двусторонней
// связью подписок. Остальные компоненты получают только копии.
type Registry interface {
	GetUser(ctx context.Context, chatID int64) (*User, error)
	AddUser(ctx context.Context, chatID int64) (*User, error)
	// RemoveUser сперва отписывает пользователя от всех артистов, потом удаляет запись.
	RemoveUser(ctx context.Context, chatID int64) error

	GetArtist(ctx context.Context, artistID string) (*Artist, error)
	AddArtist(ctx context.Context, artistID, latestReleaseID string) (*Artist, error)

	// Subscribe идемпотентен: повторная подписка — (false, nil), не ошибка.
	Subscribe(ctx context.Context, chatID int64, artistID string) (bool, error)
	// Unsubscribe идемпотентен: отсутствие связи — (false, nil).
	// Отписка последнего подписчика удаляет запись артиста целиком.
	Unsubscribe(ctx context.Context, chatID int64, artistID string) (bool, error)

	// AllArtistIDs отдает идентификаторы курсором, без материализации всей коллекции.
	AllArtistIDs(ctx context.Context) (ArtistIDCursor, error)
	UpdateLatestRelease(ctx context.Context, artistID, releaseID string) error
}

type ArtistIDCursor interface {
	Next() (string, bool)
	Err() error
	Close() error
}
