package models

import (
	"fmt"
	"strconv"
)

// WeatherSnapshot holds the current conditions at a coordinate. Always fetched fresh.
type WeatherSnapshot struct {
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    int     `json:"humidity"`
}

// Text renders the snapshot as the lines shown under "Clima Atual"
func (w WeatherSnapshot) Text() string {
	return fmt.Sprintf("Descrição: %s\nTemperatura: %s°C\nSensação Térmica: %s°C\nUmidade: %d%%",
		w.Description,
		strconv.FormatFloat(w.Temperature, 'f', -1, 64),
		strconv.FormatFloat(w.FeelsLike, 'f', -1, 64),
		w.Humidity,
	)
}

// AlertConfig is a user's standing request to be told when the tide drops under Threshold
type AlertConfig struct {
	Place     string  `json:"place"`
	Threshold float64 `json:"threshold"`
}
