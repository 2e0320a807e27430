package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"spotify-release-telegram-bot/internal/domain"
	"spotify-release-telegram-bot/internal/usecase"
)

// Handler читает обновления Telegram и превращает их в типизированные
// события для координатора. Разбор ссылок и ответы о кривом вводе живут
// здесь, до ядра они не доходят.
type Handler struct {
	bot      *tgbotapi.BotAPI
	events   chan<- domain.Event
	sender   *Sender
	stats    *usecase.StatsUsecase
	adminIDs map[int64]struct{}
	logger   *slog.Logger
}

func NewHandler(bot *tgbotapi.BotAPI, events chan<- domain.Event, stats *usecase.StatsUsecase, adminIDs map[int64]struct{}, logger *slog.Logger) *Handler {
	return &Handler{
		bot:      bot,
		events:   events,
		sender:   NewSender(bot),
		stats:    stats,
		adminIDs: adminIDs,
		logger:   logger,
	}
}

func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		h.bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if ctx.Err() != nil {
			return
		}
		if update.Message == nil {
			continue
		}
		chatID := update.Message.Chat.ID
		text := update.Message.Text

		if update.Message.IsCommand() {
			h.handleCommand(ctx, chatID, update.Message.Command(), text)
			continue
		}
		// Обычное сообщение со ссылкой — тоже подписка, как и /add.
		if artistID, ok := ParseArtistID(text); ok {
			h.emit(ctx, domain.ArtistAdded{ChatID: chatID, ArtistID: artistID})
			continue
		}
		h.reply(chatID, msgParseFailed)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, command, text string) {
	switch command {
	case "start":
		h.emit(ctx, domain.NewUser{ChatID: chatID})
	case "help":
		h.reply(chatID, msgControls)
	case "add":
		if artistID, ok := ParseArtistID(text); ok {
			h.emit(ctx, domain.ArtistAdded{ChatID: chatID, ArtistID: artistID})
			return
		}
		h.reply(chatID, msgParseFailed)
	case "remove":
		if artistID, ok := ParseArtistID(text); ok {
			h.emit(ctx, domain.ArtistRemoved{ChatID: chatID, ArtistID: artistID})
			return
		}
		h.reply(chatID, msgParseFailed)
	case "admin":
		h.handleAdmin(ctx, chatID)
	}
}

func (h *Handler) handleAdmin(ctx context.Context, chatID int64) {
	if !h.isAdmin(chatID) {
		h.reply(chatID, "Доступ запрещен")
		h.logger.Warn("admin denied", "chat_id", chatID)
		return
	}
	labels, values, err := h.stats.GraphData(ctx, 10)
	if err == nil && len(labels) > 0 {
		if chartErr := h.sendStatsChart(chatID, labels, values); chartErr != nil {
			h.logger.Error("stats chart failed", "error", chartErr)
		}
	}
	h.reply(chatID, h.stats.Summary(ctx))
}

func (h *Handler) isAdmin(chatID int64) bool {
	if len(h.adminIDs) == 0 {
		return false
	}
	_, ok := h.adminIDs[chatID]
	return ok
}

func (h *Handler) emit(ctx context.Context, ev domain.Event) {
	select {
	case h.events <- ev:
	case <-ctx.Done():
	}
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.sender.send(chatID, text); err != nil {
		h.logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendStatsChart(chatID int64, labels []string, values []int) error {
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// Избежать ошибки invalid data range при нулевых значениях
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return err
	}
	fname := "subscribers_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: buf.Bytes()})
	_, err := h.bot.Send(photo)
	return err
}
