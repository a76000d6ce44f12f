package alert

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/query"
)

const (
	usageMessage  = "Uso: /alerta cidade limite\nExemplo: /alerta salvador 0.6"
	numberMessage = "O limite precisa ser um número. Ex: 0.5"
)

// ParseCommand reads "/alerta <place...> <threshold>" arguments
func ParseCommand(args []string) (models.AlertConfig, error) {
	if len(args) < 2 {
		return models.AlertConfig{}, models.NewInvalidInputError(usageMessage)
	}

	threshold, err := strconv.ParseFloat(strings.Replace(args[len(args)-1], ",", ".", 1), 64)
	if err != nil || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return models.AlertConfig{}, models.NewInvalidInputError(numberMessage)
	}

	return models.AlertConfig{
		Place:     strings.Join(args[:len(args)-1], " "),
		Threshold: threshold,
	}, nil
}

// ConfirmationMessage is the reply sent after an alert is registered
func ConfirmationMessage(cfg models.AlertConfig) string {
	return fmt.Sprintf("🔔 Alerta configurado para *%s* abaixo de *%sm*",
		query.EscapeMarkdown(query.Title(cfg.Place)), formatThreshold(cfg.Threshold))
}

// NotificationMessage is sent when an alert triggers
func NotificationMessage(cfg models.AlertConfig, height float64) string {
	return fmt.Sprintf("🔔 *Alerta de Maré* para %s! A maré atual é %.2fm, abaixo do limite configurado de %sm.",
		query.EscapeMarkdown(cfg.Place), height, formatThreshold(cfg.Threshold))
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
