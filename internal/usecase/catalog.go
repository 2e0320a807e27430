package usecase

import (
	"context"

	"spotify-release-telegram-bot/internal/domain"
)

// Catalog — внешний музыкальный каталог. Обновление токена доступа —
// внутреннее дело реализации.
type Catalog interface {
	// LatestAlbum возвращает domain.ErrNotFound, если каталог не знает артиста.
	LatestAlbum(ctx context.Context, artistID string) (domain.AlbumInfo, error)
	// LatestAlbums работает по принципу best effort: недоступные артисты
	// просто отсутствуют в результате.
	LatestAlbums(ctx context.Context, artistIDs []string) ([]domain.AlbumInfo, error)
}
