package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/query"
)

const (
	helpMessage = "🌊 *Bot de Marés e Clima do Brasil*\n\n" +
		"Use os seguintes comandos para interagir:\n\n" +
		"- *Consultar Maré e Clima por Cidade*: Digite o nome da cidade (ex: Salvador).\n" +
		"- *Consultar Maré por Data Específica*: Ex: Recife 2025-07-05.\n" +
		"- *Consultar por Localização Atual*: Use o botão 📍 *Enviar minha localização* abaixo.\n\n" +
		"*Comandos adicionais:*\n" +
		"- /historico — Ver seu histórico de consultas\n" +
		"- /alerta cidade limite — Ex: /alerta salvador 0.6\n"

	notFoundMessage     = "Cidade ou coordenadas não encontradas."
	unexpectedMessage   = "⚠️ Erro inesperado ao processar sua consulta. Tente novamente mais tarde."
	emptyHistoryMessage = "Nenhuma consulta realizada ainda."

	tideProvider    = "worldtides"
	weatherProvider = "openweather"
)

// ErrorMessage turns a query failure into the text shown to the user.
// Unknown errors get a generic message so internals never leak.
func ErrorMessage(err error) string {
	var (
		notFound  *models.NotFoundError
		invalid   *models.InvalidInputError
		provider  *models.ProviderError
		malformed *models.MalformedResponseError
	)

	switch {
	case errors.As(err, &notFound):
		return notFoundMessage
	case errors.As(err, &invalid):
		return invalid.Message
	case errors.As(err, &provider):
		return providerMessage(provider.Provider, provider.Message)
	case errors.As(err, &malformed):
		return providerMessage(malformed.Provider, malformed.Message)
	default:
		return unexpectedMessage
	}
}

func providerMessage(provider, message string) string {
	switch provider {
	case tideProvider:
		return "⚠️ Erro ao consultar maré: " + message
	case weatherProvider:
		return "⚠️ Erro ao consultar clima: " + message
	default:
		return unexpectedMessage
	}
}

// ChartErrorMessage is sent after the text reply when the chart cannot be drawn
func ChartErrorMessage(err error) string {
	var (
		asset *models.AssetNotFoundError
		empty *models.EmptySeriesError
	)

	reason := "erro inesperado"
	switch {
	case errors.As(err, &asset):
		reason = asset.Error()
	case errors.As(err, &empty):
		reason = empty.Error()
	}
	return "⚠️ Gráfico indisponível: " + reason
}

// HistoryMessage lists a user's past places, title-cased
func HistoryMessage(places []string) string {
	if len(places) == 0 {
		return emptyHistoryMessage
	}
	lines := make([]string, len(places))
	for i, p := range places {
		lines[i] = "- " + query.Title(p)
	}
	return fmt.Sprintf("📜 Histórico de consultas:\n%s", strings.Join(lines, "\n"))
}
