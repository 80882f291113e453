package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MarianRoshchupkin/GigaMovie/internal/domain"
	"github.com/MarianRoshchupkin/GigaMovie/internal/store"
)

// botAPI is the slice of *tgbotapi.BotAPI the router needs; fakes satisfy
// it in tests.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Recommender produces a movie recommendation for a prompt.
type Recommender interface {
	Generate(ctx context.Context, userMessage string) (string, error)
}

// Router wires Telegram updates to handlers. Dispatch is a flat command
// table; there is no conversation state.
type Router struct {
	bot  botAPI
	log  *zap.Logger
	repo store.Repo
	rec  Recommender
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, rec Recommender) *Router {
	return &Router{bot: bot, log: log, repo: repo, rec: rec}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		if msg.From == nil {
			return
		}
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID, msg.From)
		case strings.HasPrefix(text, "/help"):
			r.handleHelp(chatID)
		case strings.HasPrefix(text, "/setgenres"):
			r.handleSetGenres(ctx, chatID, msg.From)
		case strings.HasPrefix(text, "/getgenres"):
			r.handleGetGenres(ctx, chatID, msg.From)
		case strings.HasPrefix(text, "/getfilm"):
			r.handleGetFilm(ctx, chatID, msg.From)
		default:
			r.sendText(chatID, notUnderstoodText)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if label, ok := domain.ParseGenreCallback(cb.Data); ok {
			r.handleGenreSelected(ctx, cb, label)
			return
		}
		// Unknown callback — acknowledge and ignore.
		_ = r.answerCallback(cb.ID, "")
	}
}
