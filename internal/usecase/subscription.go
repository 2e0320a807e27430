package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"spotify-release-telegram-bot/internal/domain"
)

// ReplySender — ответы пользователю через транспорт.
type ReplySender interface {
	Reply(chatID int64, command domain.Command, success bool) error
	Welcome(chatID int64) error
}

// Coordinator обрабатывает входящие события: регистрацию пользователей,
// подписки, отписки и чистку недоступных получателей.
type Coordinator struct {
	registry domain.Registry
	catalog  Catalog
	sender   ReplySender
	events   chan domain.Event
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCoordinator(registry domain.Registry, catalog Catalog, sender ReplySender, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		catalog:  catalog,
		sender:   sender,
		events:   make(chan domain.Event, 64),
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Events — канал для транспорта и диспетчера рассылки.
func (c *Coordinator) Events() chan<- domain.Event { return c.events }

func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.Handle(ctx, ev)
		}
	}
}

func (c *Coordinator) Handle(ctx context.Context, ev domain.Event) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch e := ev.(type) {
	case domain.NewUser:
		c.handleNewUser(ctx, e.ChatID)
	case domain.UserUnreachable:
		c.handleUnreachable(ctx, e.ChatID)
	case domain.ArtistAdded:
		c.handleArtistAdded(ctx, e.ChatID, e.ArtistID)
	case domain.ArtistRemoved:
		c.handleArtistRemoved(ctx, e.ChatID, e.ArtistID)
	}
}

// handleNewUser создает пользователя, если его еще нет; приветствие
// отправляется в любом случае.
func (c *Coordinator) handleNewUser(ctx context.Context, chatID int64) {
	if _, err := c.registry.GetUser(ctx, chatID); errors.Is(err, domain.ErrNotFound) {
		if _, err := c.registry.AddUser(ctx, chatID); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			c.logger.Error("add user failed", "chat_id", chatID, "error", err)
		} else {
			c.logger.Info("user registered", "chat_id", chatID)
		}
	} else if err != nil {
		c.logger.Error("get user failed", "chat_id", chatID, "error", err)
	}
	if err := c.sender.Welcome(chatID); err != nil {
		c.logger.Warn("welcome failed", "chat_id", chatID, "error", err)
	}
}

// handleUnreachable — чистка fire-and-forget: ошибки только в лог.
func (c *Coordinator) handleUnreachable(ctx context.Context, chatID int64) {
	if err := c.registry.RemoveUser(ctx, chatID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		c.logger.Error("remove unreachable user failed", "chat_id", chatID, "error", err)
		return
	}
	c.logger.Info("unreachable user removed", "chat_id", chatID)
}

func (c *Coordinator) handleArtistAdded(ctx context.Context, chatID int64, artistID string) {
	if _, err := c.registry.GetUser(ctx, chatID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error("get user failed", "chat_id", chatID, "error", err)
		}
		c.reply(chatID, domain.CommandAdd, false)
		return
	}

	_, err := c.registry.GetArtist(ctx, artistID)
	if errors.Is(err, domain.ErrNotFound) {
		// Артиста еще нет: сперва спрашиваем каталог. Запись не создается,
		// пока каталог не подтвердил существование.
		album, catErr := c.catalog.LatestAlbum(ctx, artistID)
		if catErr != nil {
			if !errors.Is(catErr, domain.ErrNotFound) {
				c.logger.Error("catalog lookup failed", "artist_id", artistID, "error", catErr)
			}
			c.reply(chatID, domain.CommandAdd, false)
			return
		}
		if _, err := c.registry.AddArtist(ctx, artistID, album.AlbumID); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			c.logger.Error("add artist failed", "artist_id", artistID, "error", err)
			c.reply(chatID, domain.CommandAdd, false)
			return
		}
	} else if err != nil {
		c.logger.Error("get artist failed", "artist_id", artistID, "error", err)
		c.reply(chatID, domain.CommandAdd, false)
		return
	}

	if _, err := c.registry.Subscribe(ctx, chatID, artistID); err != nil {
		c.logger.Error("subscribe failed", "chat_id", chatID, "artist_id", artistID, "error", err)
		c.reply(chatID, domain.CommandAdd, false)
		return
	}
	c.logger.Info("subscribed", "chat_id", chatID, "artist_id", artistID)
	c.reply(chatID, domain.CommandAdd, true)
}

func (c *Coordinator) handleArtistRemoved(ctx context.Context, chatID int64, artistID string) {
	removed, err := c.registry.Unsubscribe(ctx, chatID, artistID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error("unsubscribe failed", "chat_id", chatID, "artist_id", artistID, "error", err)
		}
		c.reply(chatID, domain.CommandRemove, false)
		return
	}
	if removed {
		c.logger.Info("unsubscribed", "chat_id", chatID, "artist_id", artistID)
	}
	c.reply(chatID, domain.CommandRemove, removed)
}

func (c *Coordinator) reply(chatID int64, command domain.Command, success bool) {
	if err := c.sender.Reply(chatID, command, success); err != nil {
		c.logger.Warn("reply failed", "chat_id", chatID, "command", string(command), "error", err)
	}
}
