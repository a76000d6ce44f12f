package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/chart"
	"github.com/tabuasmare/marebot/internal/models"
	"golang.org/x/sync/errgroup"
)

// LocationLabel is how a shared live location is named in replies
const LocationLabel = "sua localização"

type ChartRenderer interface {
	Render(ctx context.Context, labels []string, heights []float64, placeLabel string) (*chart.Chart, error)
}

type HistoryRecorder interface {
	RecordHistory(userID int64, place string)
}

// Result is everything needed to reply to one query
type Result struct {
	Query      Query                   `json:"-"`
	Place      string                  `json:"place"`
	ChartLabel string                  `json:"chartLabel"`
	Coordinate models.Coordinate       `json:"coordinate"`
	Series     *models.TideSeries      `json:"tides"`
	Weather    *models.WeatherSnapshot `json:"weather"`
	Text       string                  `json:"text"`
}

type Resolver struct {
	geocoder models.Geocoder
	tides    models.TideFetcher
	weather  models.WeatherFetcher
	charts   ChartRenderer
	history  HistoryRecorder
}

func NewResolver(geocoder models.Geocoder, tides models.TideFetcher, weather models.WeatherFetcher, charts ChartRenderer, history HistoryRecorder) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		tides:    tides,
		weather:  weather,
		charts:   charts,
		history:  history,
	}
}

// Resolve parses text and looks it up. Greetings return a Result with Kind
// KindGreeting and touch nothing external. Successful lookups are recorded
// in the user's history.
func (r *Resolver) Resolve(ctx context.Context, userID int64, text string) (*Result, error) {
	q, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if q.Kind == KindGreeting {
		return &Result{Query: q}, nil
	}

	result, err := r.Lookup(ctx, q)
	if err != nil {
		return nil, err
	}

	r.history.RecordHistory(userID, q.PlaceName())
	return result, nil
}

// Lookup resolves a parsed query without recording history
func (r *Resolver) Lookup(ctx context.Context, q Query) (*Result, error) {
	var coord models.Coordinate
	switch q.Kind {
	case KindCoordinate:
		coord = q.Coordinate
		if err := coord.Validate(); err != nil {
			return nil, models.NewNotFoundError(q.Text, err)
		}
	case KindPlace, KindPlaceOnDate:
		var err error
		coord, err = r.geocoder.Resolve(ctx, q.Place)
		if err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", q.Place, err)
		}
	default:
		return nil, models.NewInvalidInputError(fmt.Sprintf("unsupported query kind: %s", q.Kind))
	}

	place := Title(q.PlaceName())
	return r.lookupCoordinate(ctx, q, coord, place, strings.ReplaceAll(place, " ", "_"))
}

// ResolveLocation looks up a shared live location. It is not recorded in history.
func (r *Resolver) ResolveLocation(ctx context.Context, coord models.Coordinate) (*Result, error) {
	if err := coord.Validate(); err != nil {
		return nil, models.NewInvalidInputError(fmt.Sprintf("localização inválida: %v", err))
	}
	chartLabel := fmt.Sprintf("Lat_%.2f_Lon_%.2f", coord.Latitude, coord.Longitude)
	return r.lookupCoordinate(ctx, Query{Kind: KindCoordinate, Coordinate: coord}, coord, LocationLabel, chartLabel)
}

func (r *Resolver) lookupCoordinate(ctx context.Context, q Query, coord models.Coordinate, place, chartLabel string) (*Result, error) {
	var (
		series     *models.TideSeries
		weather    *models.WeatherSnapshot
		tideErr    error
		weatherErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		series, tideErr = r.tides.Fetch(gctx, coord, q.Date)
		return tideErr
	})
	g.Go(func() error {
		weather, weatherErr = r.weather.Fetch(gctx, coord)
		return weatherErr
	})
	_ = g.Wait()

	// a failing call cancels the other; a tide call cut short by the weather
	// failure must not hide it
	if weatherErr != nil && tideErr != nil && ctx.Err() == nil &&
		(errors.Is(tideErr, context.Canceled) || errors.Is(tideErr, weatherErr)) {
		return nil, fmt.Errorf("fetching weather: %w", weatherErr)
	}
	if tideErr != nil {
		return nil, fmt.Errorf("fetching tides: %w", tideErr)
	}
	if weatherErr != nil {
		return nil, fmt.Errorf("fetching weather: %w", weatherErr)
	}

	log.Debug().
		Str("place", place).
		Str("kind", q.Kind.String()).
		Int("extremes", len(series.Extremes)).
		Msg("Resolved query")

	return &Result{
		Query:      q,
		Place:      place,
		ChartLabel: chartLabel,
		Coordinate: coord,
		Series:     series,
		Weather:    weather,
		Text:       FormatReply(place, series, weather),
	}, nil
}

// RenderChart draws the result's tide curve. Callers send Result.Text first.
func (r *Resolver) RenderChart(ctx context.Context, result *Result) (*chart.Chart, error) {
	return r.charts.Render(ctx, result.Series.TimeLabels(), result.Series.Heights(), result.ChartLabel)
}
