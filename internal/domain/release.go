package domain

// AlbumInfo — последний релиз артиста по данным каталога.
type AlbumInfo struct {
	ArtistID string
	AlbumID  string
	AlbumURL string
}

// ReleaseEvent живет один цикл: создается поллером при смене релиза,
// потребляется диспетчером рассылки и отбрасывается.
type ReleaseEvent struct {
	ArtistID          string
	PreviousReleaseID string
	NewReleaseID      string
	AlbumURL          string
	Recipients        []int64
}
