package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MarianRoshchupkin/GigaMovie/internal/domain"
)

// ensureUser resolves the sender to a stored user, creating the row lazily.
func (r *Router) ensureUser(ctx context.Context, from *tgbotapi.User) (*domain.User, error) {
	return r.repo.GetOrCreateUser(ctx, from.ID, from.UserName)
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send message failed", zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// editKeepingKeyboard rewrites the genre-picker message text while
// re-attaching the keyboard, so every label stays pressable.
func (r *Router) editKeepingKeyboard(cb *tgbotapi.CallbackQuery, text string) {
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	kb := genresKeyboard()
	edit.ReplyMarkup = &kb
	if _, err := r.bot.Send(edit); err != nil {
		// Telegram rejects edits with identical text; harmless here.
		r.log.Warn("edit message failed", zap.Error(err))
	}
}

// --- Commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if _, err := r.ensureUser(ctx, from); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		msg := tgbotapi.NewMessage(chatID, registerErrText)
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		if _, err := r.bot.Send(msg); err != nil {
			r.log.Warn("send message failed", zap.Error(err))
		}
		return
	}
	msg := tgbotapi.NewMessage(chatID, welcomeText)
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send message failed", zap.Error(err))
	}
}

func (r *Router) handleHelp(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send message failed", zap.Error(err))
	}
}

func (r *Router) handleSetGenres(ctx context.Context, chatID int64, from *tgbotapi.User) {
	u, err := r.ensureUser(ctx, from)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, userLookupErrText)
		return
	}

	// Clear-then-accumulate: previous selections go away now; each button
	// press below records a genre on its own.
	if err := r.repo.ReplaceGenres(ctx, u.ID, nil); err != nil {
		r.log.Error("clear genres failed", zap.Int64("user_id", u.ID), zap.Error(err))
	} else {
		r.log.Info("genres cleared", zap.Int64("user_id", u.ID))
	}

	msg := tgbotapi.NewMessage(chatID, chooseGenresText)
	msg.ReplyMarkup = genresKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send message failed", zap.Error(err))
	}
}

func (r *Router) handleGenreSelected(ctx context.Context, cb *tgbotapi.CallbackQuery, label string) {
	if err := r.answerCallback(cb.ID, ""); err != nil {
		r.log.Warn("answer callback failed", zap.Error(err))
	}

	u, err := r.repo.GetOrCreateUser(ctx, cb.From.ID, cb.From.UserName)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.editKeepingKeyboard(cb, userLookupErrText)
		return
	}

	added, err := r.repo.AddGenreIfAbsent(ctx, u.ID, label)
	if err != nil {
		r.log.Error("add genre failed", zap.String("label", label), zap.Error(err))
		r.editKeepingKeyboard(cb, addGenreErrText)
		return
	}
	if added {
		r.editKeepingKeyboard(cb, fmt.Sprintf(genreAddedFmt, label))
	} else {
		r.editKeepingKeyboard(cb, fmt.Sprintf(genrePresentFmt, label))
	}
}

func (r *Router) handleGetGenres(ctx context.Context, chatID int64, from *tgbotapi.User) {
	u, err := r.ensureUser(ctx, from)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, userLookupErrText)
		return
	}

	labels, err := r.repo.ListGenres(ctx, u.ID)
	if err != nil {
		r.log.Error("list genres failed", zap.Int64("user_id", u.ID), zap.Error(err))
		r.sendText(chatID, listGenresErrText)
		return
	}
	if len(labels) == 0 {
		r.sendText(chatID, noGenresText)
		return
	}

	var b strings.Builder
	b.WriteString(genresTitle)
	for _, label := range labels {
		b.WriteString("\n- ")
		b.WriteString(label)
	}
	r.sendText(chatID, b.String())
}

func (r *Router) handleGetFilm(ctx context.Context, chatID int64, from *tgbotapi.User) {
	u, err := r.ensureUser(ctx, from)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, userLookupErrText)
		return
	}

	labels, err := r.repo.ListGenres(ctx, u.ID)
	if err != nil {
		r.log.Error("list genres failed", zap.Int64("user_id", u.ID), zap.Error(err))
		r.sendText(chatID, recommendErrText)
		return
	}

	reply, err := r.rec.Generate(ctx, domain.RecommendationPrompt(labels))
	if err != nil {
		r.log.Error("recommendation failed", zap.Error(err))
		r.sendText(chatID, recommendErrText)
		return
	}

	msg := tgbotapi.NewMessage(chatID, reply)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.bot.Send(msg); err != nil {
		// Model output is not guaranteed to be valid Markdown.
		r.log.Warn("send recommendation failed, retrying as plain text", zap.Error(err))
		r.sendText(chatID, reply)
	}
}
