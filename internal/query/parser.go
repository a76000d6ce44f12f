package query

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tabuasmare/marebot/internal/models"
)

type Kind int

const (
	KindGreeting Kind = iota
	KindPlace
	KindPlaceOnDate
	KindCoordinate
)

func (k Kind) String() string {
	switch k {
	case KindGreeting:
		return "greeting"
	case KindPlace:
		return "place"
	case KindPlaceOnDate:
		return "place_on_date"
	case KindCoordinate:
		return "coordinate"
	default:
		return "unknown"
	}
}

const dateLayout = "2006-01-02"

var greetings = map[string]struct{}{
	"oi":        {},
	"olá":       {},
	"ola":       {},
	"bom dia":   {},
	"boa tarde": {},
	"boa noite": {},
}

// Query is the parsed form of one free-text message.
// Only the fields relevant to Kind are set.
type Query struct {
	Kind       Kind
	Text       string
	Place      string
	Date       *time.Time
	Coordinate models.Coordinate
}

// Parse classifies free text as a greeting, coordinates, a place with a date, or a place
func Parse(text string) (Query, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Query{}, models.NewInvalidInputError("Envie o nome de uma cidade ou coordenadas.")
	}

	if _, ok := greetings[strings.ToLower(trimmed)]; ok {
		return Query{Kind: KindGreeting, Text: trimmed}, nil
	}

	tokens := strings.Fields(trimmed)

	if len(tokens) == 2 {
		lat, latErr := parseFinite(tokens[0])
		lon, lonErr := parseFinite(tokens[1])
		if latErr == nil && lonErr == nil {
			return Query{
				Kind:       KindCoordinate,
				Text:       trimmed,
				Coordinate: models.Coordinate{Latitude: lat, Longitude: lon},
			}, nil
		}
	}

	if last := tokens[len(tokens)-1]; len(tokens) > 1 && strings.Count(last, "-") == 2 {
		date, err := time.Parse(dateLayout, last)
		if err != nil {
			return Query{}, models.NewInvalidInputError("Data inválida. Use o formato AAAA-MM-DD, ex: Recife 2025-07-05.")
		}
		return Query{
			Kind:  KindPlaceOnDate,
			Text:  trimmed,
			Place: strings.Join(tokens[:len(tokens)-1], " "),
			Date:  &date,
		}, nil
	}

	return Query{Kind: KindPlace, Text: trimmed, Place: trimmed}, nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// PlaceName is the place as the user typed it, or a synthetic label for coordinates.
// It is what gets recorded in history.
func (q Query) PlaceName() string {
	if q.Kind == KindCoordinate {
		return CoordinateLabel(q.Coordinate)
	}
	return q.Place
}

// CoordinateLabel renders "Lat <lat>, Lon <lon>" using the shortest float form
func CoordinateLabel(c models.Coordinate) string {
	return "Lat " + strconv.FormatFloat(c.Latitude, 'f', -1, 64) +
		", Lon " + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}
