package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/tabuasmare/marebot/internal/alert"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/query"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID int64) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("command", msg.Command()).Msg("Handling command")

	switch msg.Command() {
	case "start":
		b.sendHelp(ctx, msg.Chat.ID)
	case "historico":
		b.reply(ctx, msg.Chat.ID, HistoryMessage(b.store.History(userID)), false)
	case "alerta":
		cfg, err := alert.ParseCommand(strings.Fields(msg.CommandArguments()))
		if err != nil {
			b.reply(ctx, msg.Chat.ID, ErrorMessage(err), false)
			return
		}
		b.store.SetAlert(userID, cfg)
		logger.Info().Str("place", cfg.Place).Float64("threshold", cfg.Threshold).Msg("Alert registered")
		b.reply(ctx, msg.Chat.ID, alert.ConfirmationMessage(cfg), true)
	default:
		logger.Debug().Str("command", msg.Command()).Msg("Unknown command")
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, userID int64) {
	ctx, cancel := context.WithTimeout(ctx, b.queryTimeout)
	defer cancel()

	result, err := b.resolver.Resolve(ctx, userID, msg.Text)
	if err != nil {
		b.replyQueryError(ctx, msg.Chat.ID, err)
		return
	}
	if result.Query.Kind == query.KindGreeting {
		b.sendHelp(ctx, msg.Chat.ID)
		return
	}

	b.deliver(ctx, msg.Chat.ID, result)
}

func (b *Bot) handleLocation(ctx context.Context, msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(ctx, b.queryTimeout)
	defer cancel()

	coord := models.Coordinate{Latitude: msg.Location.Latitude, Longitude: msg.Location.Longitude}
	result, err := b.resolver.ResolveLocation(ctx, coord)
	if err != nil {
		b.replyQueryError(ctx, msg.Chat.ID, err)
		return
	}

	b.deliver(ctx, msg.Chat.ID, result)
}

// deliver sends the text reply, then the chart. A chart failure only adds a notice.
func (b *Bot) deliver(ctx context.Context, chatID int64, result *query.Result) {
	b.reply(ctx, chatID, result.Text, true)

	c, err := b.resolver.RenderChart(ctx, result)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("label", result.ChartLabel).Msg("Chart unavailable")
		b.reply(ctx, chatID, ChartErrorMessage(err), false)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(c.Path))
	if _, err := b.sender.Send(photo); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", c.Path).Msg("Failed to send chart")
	}
}

func (b *Bot) replyQueryError(ctx context.Context, chatID int64, err error) {
	text := ErrorMessage(err)
	logger := zerolog.Ctx(ctx)
	if text == unexpectedMessage {
		logger.Error().Err(err).Msg("Unexpected query failure")
	} else {
		logger.Info().Err(err).Msg("Query failed")
	}
	b.reply(ctx, chatID, text, false)
}
