package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spotify-release-telegram-bot/internal/domain"
	"spotify-release-telegram-bot/internal/usecase"
)

// Registry — версия реестра в памяти для тестов и локальных запусков.
type Registry struct {
	mu      sync.RWMutex
	users   map[int64]time.Time
	artists map[string]string             // artist_id -> latest_release_id
	subs    map[int64]map[string]struct{} // chat_id -> artist_ids
}

func NewRegistry() *Registry {
	return &Registry{
		users:   make(map[int64]time.Time),
		artists: make(map[string]string),
		subs:    make(map[int64]map[string]struct{}),
	}
}

func (r *Registry) GetUser(_ context.Context, chatID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	createdAt, ok := r.users[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := &domain.User{ChatID: chatID, CreatedAt: createdAt}
	for artistID := range r.subs[chatID] {
		u.Subscriptions = append(u.Subscriptions, artistID)
	}
	sort.Strings(u.Subscriptions)
	return u, nil
}

func (r *Registry) AddUser(_ context.Context, chatID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[chatID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	now := time.Now().UTC()
	r.users[chatID] = now
	return &domain.User{ChatID: chatID, CreatedAt: now}, nil
}

func (r *Registry) RemoveUser(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[chatID]; !ok {
		return domain.ErrNotFound
	}
	for artistID := range r.subs[chatID] {
		if r.subscriberCountLocked(artistID) == 1 {
			delete(r.artists, artistID)
		}
	}
	delete(r.subs, chatID)
	delete(r.users, chatID)
	return nil
}

func (r *Registry) GetArtist(_ context.Context, artistID string) (*domain.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest, ok := r.artists[artistID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a := &domain.Artist{ArtistID: artistID, LatestReleaseID: latest}
	for chatID, artists := range r.subs {
		if _, ok := artists[artistID]; ok {
			a.SubscribedChatIDs = append(a.SubscribedChatIDs, chatID)
		}
	}
	sort.Slice(a.SubscribedChatIDs, func(i, j int) bool { return a.SubscribedChatIDs[i] < a.SubscribedChatIDs[j] })
	return a, nil
}

func (r *Registry) AddArtist(_ context.Context, artistID, latestReleaseID string) (*domain.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.artists[artistID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	r.artists[artistID] = latestReleaseID
	return &domain.Artist{ArtistID: artistID, LatestReleaseID: latestReleaseID}, nil
}

func (r *Registry) Subscribe(_ context.Context, chatID int64, artistID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[chatID]; !ok {
		return false, fmt.Errorf("user %d: %w", chatID, domain.ErrNotFound)
	}
	if _, ok := r.artists[artistID]; !ok {
		return false, fmt.Errorf("artist %s: %w", artistID, domain.ErrNotFound)
	}
	if r.subs[chatID] == nil {
		r.subs[chatID] = make(map[string]struct{})
	}
	if _, ok := r.subs[chatID][artistID]; ok {
		return false, nil
	}
	r.subs[chatID][artistID] = struct{}{}
	return true, nil
}

func (r *Registry) Unsubscribe(_ context.Context, chatID int64, artistID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[chatID]; !ok {
		return false, fmt.Errorf("user %d: %w", chatID, domain.ErrNotFound)
	}
	if _, ok := r.artists[artistID]; !ok {
		return false, fmt.Errorf("artist %s: %w", artistID, domain.ErrNotFound)
	}
	if _, ok := r.subs[chatID][artistID]; !ok {
		return false, nil
	}
	delete(r.subs[chatID], artistID)
	if r.subscriberCountLocked(artistID) == 0 {
		delete(r.artists, artistID)
	}
	return true, nil
}

func (r *Registry) subscriberCountLocked(artistID string) int {
	var n int
	for _, artists := range r.subs {
		if _, ok := artists[artistID]; ok {
			n++
		}
	}
	return n
}

func (r *Registry) AllArtistIDs(_ context.Context) (domain.ArtistIDCursor, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.artists))
	for id := range r.artists {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return &sliceCursor{ids: ids}, nil
}

type sliceCursor struct {
	ids []string
	pos int
}

func (c *sliceCursor) Next() (string, bool) {
	if c.pos >= len(c.ids) {
		return "", false
	}
	id := c.ids[c.pos]
	c.pos++
	return id, true
}

func (c *sliceCursor) Err() error   { return nil }
func (c *sliceCursor) Close() error { return nil }

func (r *Registry) UpdateLatestRelease(_ context.Context, artistID, releaseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.artists[artistID]; !ok {
		return domain.ErrNotFound
	}
	r.artists[artistID] = releaseID
	return nil
}

func (r *Registry) DeleteDanglingSubscriptions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for chatID, artists := range r.subs {
		if _, ok := r.users[chatID]; !ok {
			removed += int64(len(artists))
			delete(r.subs, chatID)
			continue
		}
		for artistID := range artists {
			if _, ok := r.artists[artistID]; !ok {
				delete(artists, artistID)
				removed++
			}
		}
	}
	return removed, nil
}

func (r *Registry) DeleteOrphanArtists(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for artistID := range r.artists {
		if r.subscriberCountLocked(artistID) == 0 {
			delete(r.artists, artistID)
			removed++
		}
	}
	return removed, nil
}

func (r *Registry) CountUsers(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *Registry) CountArtists(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.artists), nil
}

func (r *Registry) TopArtists(_ context.Context, n int) ([]usecase.ArtistCount, error) {
	r.mu.RLock()
	counts := make(map[string]int)
	for _, artists := range r.subs {
		for artistID := range artists {
			counts[artistID]++
		}
	}
	r.mu.RUnlock()
	out := make([]usecase.ArtistCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, usecase.ArtistCount{ArtistID: id, Subscribers: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subscribers != out[j].Subscribers {
			return out[i].Subscribers > out[j].Subscribers
		}
		return out[i].ArtistID < out[j].ArtistID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
