package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spotify-release-telegram-bot/internal/domain"
)

const (
	msgWelcome          = "Привет! Я слежу за новыми релизами на Spotify и сообщу, как только кто-то из ваших артистов выпустит альбом или сингл."
	msgControls         = "Пришлите ссылку на артиста (https://open.spotify.com/artist/...), чтобы подписаться.\n/add <ссылка> — подписаться\n/remove <ссылка> — отписаться\n/help — эта справка"
	msgArtistAdded      = "Подписка оформлена. Сообщу о новом релизе!"
	msgCantAddArtist    = "Не получилось подписаться. Проверьте ссылку на артиста."
	msgArtistRemoved    = "Подписка отменена."
	msgCantRemoveArtist = "Не получилось отписаться: такой подписки не нашлось."
	msgParseFailed      = "Не узнаю ссылку. Нужна ссылка вида https://open.spotify.com/artist/..."
	msgNewRelease       = "Новый релиз!\n"
)

// Sender — исходящая сторона транспорта для юзкейсов.
type Sender struct{ bot *tgbotapi.BotAPI }

func NewSender(bot *tgbotapi.BotAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) Reply(chatID int64, command domain.Command, success bool) error {
	switch command {
	case domain.CommandAdd:
		if success {
			return s.send(chatID, msgArtistAdded)
		}
		return s.send(chatID, msgCantAddArtist)
	case domain.CommandRemove:
		if success {
			return s.send(chatID, msgArtistRemoved)
		}
		return s.send(chatID, msgCantRemoveArtist)
	default:
		return nil
	}
}

func (s *Sender) Welcome(chatID int64) error {
	if err := s.send(chatID, msgWelcome); err != nil {
		return err
	}
	return s.send(chatID, msgControls)
}

func (s *Sender) SendRelease(chatID int64, albumURL string) error {
	return s.send(chatID, msgNewRelease+albumURL)
}

// send переводит «бот заблокирован» в domain.ErrUnreachable, чтобы ядро
// могло вычистить получателя.
func (s *Sender) send(chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == 403 {
		return fmt.Errorf("%w: %s", domain.ErrUnreachable, tgErr.Message)
	}
	return err
}
