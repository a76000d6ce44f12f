package tide

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/pkg/http/client"
)

const (
	providerName = "worldtides"
	// windowSeconds is the fixed 12 hour query length
	windowSeconds = 43200
)

type worldTidesHeight struct {
	Dt     int64   `json:"dt"`
	Height float64 `json:"height"`
}

type worldTidesExtreme struct {
	Dt     int64   `json:"dt"`
	Type   string  `json:"type"`
	Height float64 `json:"height"`
}

// Pointers distinguish an absent or null key from an empty list
type worldTidesResponse struct {
	Status   int                  `json:"status"`
	Error    *string              `json:"error"`
	Heights  *[]worldTidesHeight  `json:"heights"`
	Extremes *[]worldTidesExtreme `json:"extremes"`
}

type Service struct {
	httpClient client.Interface
	apiKey     string
	location   *time.Location
	clock      Clock
}

var _ models.TideFetcher = (*Service)(nil)

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// NewService creates a WorldTides fetcher. Labels and date midnights use loc.
func NewService(httpClient client.Interface, apiKey string, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		httpClient: httpClient,
		apiKey:     apiKey,
		location:   loc,
		clock:      systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WindowStart returns the epoch second the query window begins at
func (s *Service) WindowStart(date *time.Time) int64 {
	if date == nil {
		return s.clock.Now().Unix()
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.location).Unix()
}

func (s *Service) Fetch(ctx context.Context, coord models.Coordinate, date *time.Time) (*models.TideSeries, error) {
	params := url.Values{}
	params.Set("heights", "")
	params.Set("extremes", "")
	params.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("start", strconv.FormatInt(s.WindowStart(date), 10))
	params.Set("length", strconv.Itoa(windowSeconds))
	params.Set("key", s.apiKey)

	log.Debug().
		Float64("lat", coord.Latitude).
		Float64("lon", coord.Longitude).
		Str("start", params.Get("start")).
		Msg("Fetching tide series")

	resp, err := s.httpClient.Get(ctx, "/api/v2", params)
	if err != nil {
		return nil, models.NewProviderError(providerName, "request failed", err)
	}

	var data worldTidesResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, models.NewProviderError(providerName, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
		}
		return nil, models.NewMalformedResponseError(providerName, fmt.Sprintf("decoding response: %v", err))
	}

	if data.Error != nil {
		return nil, models.NewProviderError(providerName, *data.Error, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, models.NewProviderError(providerName, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if data.Heights == nil || data.Extremes == nil {
		return nil, models.NewMalformedResponseError(providerName, "incomplete tide data: heights or extremes missing")
	}

	series, err := s.toSeries(*data.Heights, *data.Extremes)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("samples", len(series.Samples)).
		Int("extremes", len(series.Extremes)).
		Msg("Fetched tide series")

	return series, nil
}

func (s *Service) toSeries(heights []worldTidesHeight, extremes []worldTidesExtreme) (*models.TideSeries, error) {
	series := &models.TideSeries{
		Samples:  make([]models.TideSample, 0, len(heights)),
		Extremes: make([]models.TideExtreme, 0, len(extremes)),
	}

	for _, h := range heights {
		series.Samples = append(series.Samples, models.TideSample{
			Timestamp: h.Dt,
			LocalTime: s.formatLocalTime(h.Dt),
			Height:    h.Height,
		})
	}

	for _, e := range extremes {
		tideType, err := parseTideType(e.Type)
		if err != nil {
			return nil, models.NewMalformedResponseError(providerName, err.Error())
		}
		series.Extremes = append(series.Extremes, models.TideExtreme{
			Type:      tideType,
			Timestamp: e.Dt,
			LocalTime: s.formatLocalTime(e.Dt),
			Height:    e.Height,
		})
	}

	if err := series.Validate(); err != nil {
		return nil, models.NewMalformedResponseError(providerName, err.Error())
	}

	return series, nil
}

func (s *Service) formatLocalTime(epoch int64) string {
	return time.Unix(epoch, 0).In(s.location).Format("15:04")
}

func parseTideType(raw string) (models.TideType, error) {
	switch strings.ToLower(raw) {
	case "high":
		return models.TideTypeHigh, nil
	case "low":
		return models.TideTypeLow, nil
	default:
		return "", fmt.Errorf("unknown extreme type: %q", raw)
	}
}
