// Package telegram escucha la sala de señales vía Telegram Bot API, responde
// comandos (/stats, /ping) y publica el resumen diario en un chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/alejandrodnm/signalroom/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	maxRetries     = 3
	maxStatsDays   = 90
	retryDelayBase = time.Second
)

// BotAPI es el subconjunto de *tgbotapi.BotAPI que usa el listener.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StatsFunc calcula el reporte de un rango para responder /stats.
type StatsFunc func(ctx context.Context, rng domain.DateRange) (domain.Report, error)

// Options configura el listener.
type Options struct {
	ChatIDs          []int64 // chats de los que se aceptan mensajes
	ReportChatID     int64   // 0 = no publicar reportes
	RepliesPerSecond float64
	Location         *time.Location
}

// Listener implementa ports.Reporter además de la escucha.
type Listener struct {
	bot        BotAPI
	chats      map[int64]bool
	reportChat int64
	limiter    *rate.Limiter
	loc        *time.Location
	stats      StatsFunc
	now        func() time.Time
	retryDelay time.Duration
}

// NewBot crea el cliente de Telegram a partir del token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram.NewBot: %w", err)
	}
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)
	return bot, nil
}

// NewListener crea un listener sobre un bot ya autenticado.
func NewListener(bot BotAPI, opts Options) *Listener {
	chats := make(map[int64]bool, len(opts.ChatIDs))
	for _, id := range opts.ChatIDs {
		chats[id] = true
	}
	rps := opts.RepliesPerSecond
	if rps <= 0 {
		rps = 1
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Listener{
		bot:        bot,
		chats:      chats,
		reportChat: opts.ReportChatID,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		loc:        loc,
		now:        time.Now,
		retryDelay: retryDelayBase,
	}
}

// OnStats registra la función que responde /stats.
func (l *Listener) OnStats(fn StatsFunc) {
	l.stats = fn
}

// Listen hace long polling hasta que ctx se cancela. Los mensajes de los
// chats permitidos se envían a out; los comandos se responden en el chat.
func (l *Listener) Listen(ctx context.Context, out chan<- domain.RawMessage) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := l.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			l.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := l.handleUpdate(ctx, update, out); err != nil {
				return err
			}
		}
	}
}

func (l *Listener) handleUpdate(ctx context.Context, update tgbotapi.Update, out chan<- domain.RawMessage) error {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.Chat == nil {
		return nil
	}
	if !l.chats[msg.Chat.ID] {
		slog.Debug("ignoring message from chat not in allow list", "chat_id", msg.Chat.ID)
		return nil
	}

	if msg.IsCommand() {
		l.handleCommand(ctx, msg)
		return nil
	}

	select {
	case out <- ToRawMessage(msg):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var text string
	switch msg.Command() {
	case "ping":
		text = "pong"
	case "stats":
		text = l.statsReply(ctx, msg.CommandArguments())
	default:
		return
	}

	if err := l.send(ctx, msg.Chat.ID, text); err != nil {
		slog.Warn("failed to reply to command", "command", msg.Command(), "chat_id", msg.Chat.ID, "err", err)
	}
}

// statsReply arma la respuesta de "/stats [días]".
func (l *Listener) statsReply(ctx context.Context, args string) string {
	if l.stats == nil {
		return escapeMarkdownV2("stats not available")
	}
	days := 1
	if a := strings.TrimSpace(args); a != "" {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 || n > maxStatsDays {
			return escapeMarkdownV2(fmt.Sprintf("usage: /stats [days 1-%d]", maxStatsDays))
		}
		days = n
	}

	report, err := l.stats(ctx, domain.LastDays(l.now().In(l.loc), days))
	if err != nil {
		slog.Error("stats command failed", "err", err)
		return escapeMarkdownV2("stats failed: " + err.Error())
	}
	return FormatSummary(report)
}

// Report publica el resumen en el chat de reportes, si hay uno configurado.
func (l *Listener) Report(ctx context.Context, r domain.Report) error {
	if l.reportChat == 0 {
		return nil
	}
	if err := l.send(ctx, l.reportChat, FormatSummary(r)); err != nil {
		return fmt.Errorf("telegram.Report: %w", err)
	}
	return nil
}

// send envía un mensaje MarkdownV2 con rate limiting y retry lineal.
func (l *Listener) send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		_, err := l.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("telegram send failed", "attempt", attempt+1, "err", err)
		if attempt == maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryDelay * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("send failed after %d retries: %w", maxRetries, lastErr)
}

// ToRawMessage convierte un mensaje de Telegram al formato de la sala.
// El ID combina chat y mensaje para que sea único entre chats. El formato
// que la Bot API separa en entities se vuelve a escribir como en la exportación.
func ToRawMessage(m *tgbotapi.Message) domain.RawMessage {
	raw := domain.RawMessage{
		Timestamp: m.Time(),
		Text:      restoreMarkup(m.Text, m.Entities),
	}
	if raw.Text == "" {
		raw.Text = restoreMarkup(m.Caption, m.CaptionEntities)
	}
	if m.Chat != nil {
		raw.ID = fmt.Sprintf("%d:%d", m.Chat.ID, m.MessageID)
	} else {
		raw.ID = strconv.Itoa(m.MessageID)
	}
	switch {
	case m.From != nil:
		raw.Sender = strconv.FormatInt(m.From.ID, 10)
	case m.SenderChat != nil:
		raw.Sender = strconv.FormatInt(m.SenderChat.ID, 10)
	}
	return raw
}

// restoreMarkup reinserta "**" (bold) y "`" (code) según las entities.
// Los offsets de Telegram están en unidades UTF-16.
func restoreMarkup(text string, entities []tgbotapi.MessageEntity) string {
	if len(entities) == 0 {
		return text
	}
	units := utf16.Encode([]rune(text))

	opens := make(map[int][]string)
	closes := make(map[int][]string)
	for _, e := range entities {
		var mark string
		switch e.Type {
		case "bold":
			mark = "**"
		case "code":
			mark = "`"
		default:
			continue
		}
		end := e.Offset + e.Length
		if e.Offset < 0 || e.Length <= 0 || end > len(units) {
			continue
		}
		opens[e.Offset] = append(opens[e.Offset], mark)
		closes[end] = append([]string{mark}, closes[end]...)
	}
	if len(opens) == 0 {
		return text
	}

	var b strings.Builder
	start := 0
	for i := 0; i <= len(units); i++ {
		if len(opens[i]) == 0 && len(closes[i]) == 0 {
			continue
		}
		b.WriteString(string(utf16.Decode(units[start:i])))
		start = i
		for _, mark := range closes[i] {
			b.WriteString(mark)
		}
		for _, mark := range opens[i] {
			b.WriteString(mark)
		}
	}
	b.WriteString(string(utf16.Decode(units[start:])))
	return b.String()
}
