package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"spotify-release-telegram-bot/internal/domain"
)

// Client ходит в Spotify Web API по схеме client credentials. Токен доступа
// живет внутри клиента и обновляется фоновой горутиной; наружу торчат только
// запросы каталога.
type Client struct {
	APIBaseURL      string
	AccountsBaseURL string
	ClientID        string
	ClientSecret    string
	HTTPClient      *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(clientID, clientSecret string, opts ...func(*Client)) *Client {
	c := &Client{
		APIBaseURL:      "https://api.spotify.com",
		AccountsBaseURL: "https://accounts.spotify.com",
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		HTTPClient:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithAPIBaseURL(baseURL string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.APIBaseURL = baseURL
		}
	}
}

func WithAccountsBaseURL(baseURL string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.AccountsBaseURL = baseURL
		}
	}
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// Init получает первый токен и запускает цикл обновления, привязанный к ctx.
func (c *Client) Init(ctx context.Context) error {
	tok, err := c.requestToken(ctx)
	if err != nil {
		return fmt.Errorf("initial token: %w", err)
	}
	c.setToken(tok.AccessToken)
	go c.refreshLoop(ctx, refreshAfter(tok.ExpiresIn))
	return nil
}

// refreshAfter — пауза до следующего обновления: чуть раньше истечения.
func refreshAfter(expiresIn int) time.Duration {
	d := time.Duration(expiresIn-60) * time.Second
	if d < 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func (c *Client) refreshLoop(ctx context.Context, wait time.Duration) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		tok, err := backoff.Retry(ctx, func() (tokenResponse, error) {
			return c.requestToken(ctx)
		}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Старый токен еще может работать, пробуем снова через минуту.
			slog.Warn("spotify token refresh failed", "error", err)
			timer.Reset(time.Minute)
			continue
		}
		c.setToken(tok.AccessToken)
		timer.Reset(refreshAfter(tok.ExpiresIn))
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) requestToken(ctx context.Context) (tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	endpoint := strings.TrimRight(c.AccountsBaseURL, "/") + "/api/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.ClientID, c.ClientSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return tokenResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return tokenResponse{}, fmt.Errorf("spotify token non-2xx: %d: %s", resp.StatusCode, string(body))
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return tokenResponse{}, err
	}
	return tok, nil
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type albumsResponse struct {
	Items []struct {
		ID           string `json:"id"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	} `json:"items"`
}

// LatestAlbum запрашивает самый свежий релиз артиста (limit=1).
func (c *Client) LatestAlbum(ctx context.Context, artistID string) (domain.AlbumInfo, error) {
	endpoint := fmt.Sprintf("%s/v1/artists/%s/albums?limit=1&include_groups=album,single",
		strings.TrimRight(c.APIBaseURL, "/"), url.PathEscape(artistID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.AlbumInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.AlbumInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		// Spotify отвечает 400 на синтаксически кривой идентификатор,
		// 404 — на несуществующий. Для нас это один случай.
		return domain.AlbumInfo{}, fmt.Errorf("artist %s: %w", artistID, domain.ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.AlbumInfo{}, fmt.Errorf("spotify albums non-2xx: %d: %s", resp.StatusCode, string(body))
	}
	var albums albumsResponse
	if err := json.NewDecoder(resp.Body).Decode(&albums); err != nil {
		return domain.AlbumInfo{}, err
	}
	if len(albums.Items) == 0 {
		return domain.AlbumInfo{}, fmt.Errorf("artist %s has no releases: %w", artistID, domain.ErrNotFound)
	}
	return domain.AlbumInfo{
		ArtistID: artistID,
		AlbumID:  albums.Items[0].ID,
		AlbumURL: albums.Items[0].ExternalURLs.Spotify,
	}, nil
}

// LatestAlbums опрашивает артистов по одному; сбой одного артиста не
// прерывает остальных, он просто выпадает из результата до следующего круга.
func (c *Client) LatestAlbums(ctx context.Context, artistIDs []string) ([]domain.AlbumInfo, error) {
	result := make([]domain.AlbumInfo, 0, len(artistIDs))
	for _, id := range artistIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		album, err := c.LatestAlbum(ctx, id)
		if err != nil {
			continue
		}
		result = append(result, album)
	}
	return result, nil
}
