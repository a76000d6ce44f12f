package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/alert"
	"github.com/tabuasmare/marebot/internal/chart"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/query"
)

// Sender is the part of tgbotapi.BotAPI used to talk to chats
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Resolver interface {
	Resolve(ctx context.Context, userID int64, text string) (*query.Result, error)
	ResolveLocation(ctx context.Context, coord models.Coordinate) (*query.Result, error)
	RenderChart(ctx context.Context, result *query.Result) (*chart.Chart, error)
}

type Store interface {
	History(userID int64) []string
	SetAlert(userID int64, alert models.AlertConfig)
}

type Bot struct {
	sender       Sender
	resolver     Resolver
	store        Store
	queryTimeout time.Duration
	wg           sync.WaitGroup
}

var _ alert.Notifier = (*Bot)(nil)

func New(sender Sender, resolver Resolver, store Store, queryTimeout time.Duration) *Bot {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &Bot{
		sender:       sender,
		resolver:     resolver,
		store:        store,
		queryTimeout: queryTimeout,
	}
}

// NewUpdatesChannel starts long polling on api
func NewUpdatesChannel(api *tgbotapi.BotAPI) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return api.GetUpdatesChan(u)
}

// Run handles each update on its own goroutine until ctx is done or updates
// is closed, then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Bot stopping, waiting for in-flight updates")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate processes one update. Panics are logged and answered with the generic error.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	userID := msg.Chat.ID
	if msg.From != nil {
		userID = msg.From.ID
	}

	logger := log.With().
		Str("request_id", uuid.NewString()).
		Int64("user_id", userID).
		Int("update_id", update.UpdateID).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Handler panicked")
			b.reply(ctx, msg.Chat.ID, unexpectedMessage, false)
		}
	}()

	switch {
	case msg.Location != nil:
		b.handleLocation(ctx, msg)
	case msg.IsCommand():
		b.handleCommand(ctx, msg, userID)
	case msg.Text != "":
		b.handleText(ctx, msg, userID)
	default:
		logger.Debug().Msg("Ignoring update without text or location")
	}
}

// Notify sends an alert to the user's private chat
func (b *Bot) Notify(ctx context.Context, userID int64, text string) error {
	m := tgbotapi.NewMessage(userID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(m); err != nil {
		return fmt.Errorf("sending alert to %d: %w", userID, err)
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markdown bool) {
	m := tgbotapi.NewMessage(chatID, text)
	if markdown {
		m.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.sender.Send(m); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendHelp(ctx context.Context, chatID int64) {
	m := tgbotapi.NewMessage(chatID, helpMessage)
	m.ParseMode = tgbotapi.ModeMarkdown
	m.ReplyMarkup = PresetKeyboard()
	if _, err := b.sender.Send(m); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send help")
	}
}
