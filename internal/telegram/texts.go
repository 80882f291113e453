package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MarianRoshchupkin/GigaMovie/internal/domain"
)

// User-facing texts (Russian, as the bot speaks to its audience).
const (
	welcomeText = "Добро пожаловать к GigaMovie!\n" +
		"Наберите /help, чтобы увидеть список команд."

	helpText = "Доступные команды:\n" +
		"/start - Начать работу\n" +
		"/help - Показать это сообщение\n" +
		"/setgenres - Выбрать/переустановить любимые жанры\n" +
		"/getgenres - Показать выбранные жанры\n" +
		"/getfilm - Получить рекомендацию через GigaChat\n"

	chooseGenresText  = "Выберите жанры заново (можно нажать несколько раз)."
	genresTitle       = "Выбранные жанры:"
	noGenresText      = "У вас пока нет выбранных жанров."
	notUnderstoodText = "Извините, я не понял сообщение. Наберите /help, чтобы увидеть список команд."

	registerErrText   = "Ошибка при регистрации пользователя."
	userLookupErrText = "Ошибка: пользователь не найден."
	addGenreErrText   = "Произошла ошибка при добавлении жанра."
	listGenresErrText = "Произошла ошибка при получении жанров."
	recommendErrText  = "Произошла ошибка при получении рекомендации."

	genreAddedFmt   = "Жанр %s добавлен!"
	genrePresentFmt = "Жанр %s уже был добавлен ранее."
)

// mainMenuKeyboard is the persistent reply keyboard with the top-level
// commands. It stays open between messages.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/setgenres"),
			tgbotapi.NewKeyboardButton("/getgenres"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/getfilm"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/help"),
		),
	)
	kb.OneTimeKeyboard = false
	return kb
}

// genresKeyboard builds the inline keyboard with one button per catalog
// genre, payloads prefixed for the callback router.
func genresKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(domain.Genres))
	for _, g := range domain.Genres {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g, domain.GenreCallback(g)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
