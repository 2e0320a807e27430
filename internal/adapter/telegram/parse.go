package telegram

import "strings"

const artistURLPrefix = "https://open.spotify.com/artist/"

// ParseArtistID ищет в тексте ссылку на артиста и вырезает идентификатор.
// Хвост запроса (?si=...) отбрасывается.
func ParseArtistID(text string) (string, bool) {
	for _, chunk := range strings.Fields(text) {
		if !strings.HasPrefix(chunk, artistURLPrefix) {
			continue
		}
		id := strings.TrimPrefix(chunk, artistURLPrefix)
		id, _, _ = strings.Cut(id, "?")
		id = strings.TrimSuffix(id, "/")
		if id != "" {
			return id, true
		}
	}
	return "", false
}
