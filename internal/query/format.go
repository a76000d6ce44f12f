package query

import (
	"strings"

	"github.com/tabuasmare/marebot/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Title upper-cases the first letter of every word, e.g. "rio de janeiro" -> "Rio De Janeiro"
func Title(s string) string {
	// a Caser is stateful, so one per call
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// EscapeMarkdown protects user supplied text inside a Markdown reply
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatReply renders the Markdown text sent before the chart
func FormatReply(place string, series *models.TideSeries, weather *models.WeatherSnapshot) string {
	var b strings.Builder
	b.WriteString("🌊 *Maré para ")
	b.WriteString(EscapeMarkdown(place))
	b.WriteString("*:\n\n")
	b.WriteString(strings.Join(series.ExtremeLabels(), "\n"))
	b.WriteString("\n\n☀️ *Clima Atual*:\n")
	b.WriteString(weather.Text())
	return b.String()
}
