package domain

import "strings"

// Genres is the closed set of selectable genre labels, in menu order.
var Genres = []string{
	"Драма", "Комедия", "Боевик", "Триллер", "Ужасы",
	"Фантастика", "Фэнтези", "Романтика", "Документальное кино", "Мультфильмы/Анимация",
}

// CallbackPrefix marks genre-selection callback payloads.
const CallbackPrefix = "genre_"

// KnownGenre reports whether label belongs to the catalog.
func KnownGenre(label string) bool {
	for _, g := range Genres {
		if g == label {
			return true
		}
	}
	return false
}

// GenreCallback builds the callback payload for a genre button.
func GenreCallback(label string) string {
	return CallbackPrefix + label
}

// ParseGenreCallback extracts the genre label from a callback payload.
// Returns false when the payload is not a genre callback or names a label
// outside the catalog.
func ParseGenreCallback(data string) (string, bool) {
	label, found := strings.CutPrefix(data, CallbackPrefix)
	if !found || !KnownGenre(label) {
		return "", false
	}
	return label, true
}

// RecommendationPrompt renders the user message sent to the model for a
// film recommendation.
func RecommendationPrompt(labels []string) string {
	list := "нет (пока не выбрано)"
	if len(labels) > 0 {
		list = strings.Join(labels, ", ")
	}
	return "Пользователь выбрал следующие жанры:\n" +
		list + "\n\n" +
		"Пожалуйста, предложи интересный фильм в соответствии с этими жанрами, " +
		"или порекомендуй любой случайный вариант, если жанров нет."
}
