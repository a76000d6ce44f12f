package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/pkg/http/client"
)

const providerName = "openweather"

type openWeatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	// Message is set on error responses
	Message string `json:"message"`
}

type Service struct {
	httpClient client.Interface
	apiKey     string
	lang       string
}

var _ models.WeatherFetcher = (*Service)(nil)

func NewService(httpClient client.Interface, apiKey, lang string) *Service {
	if lang == "" {
		lang = "pt_br"
	}
	return &Service{
		httpClient: httpClient,
		apiKey:     apiKey,
		lang:       lang,
	}
}

// Fetch returns current conditions. Results are never cached.
func (s *Service) Fetch(ctx context.Context, coord models.Coordinate) (*models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("appid", s.apiKey)
	params.Set("units", "metric")
	params.Set("lang", s.lang)

	resp, err := s.httpClient.Get(ctx, "/data/2.5/weather", params)
	if err != nil {
		return nil, models.NewProviderError(providerName, "request failed", err)
	}

	var data openWeatherResponse
	decodeErr := json.Unmarshal(resp.Body, &data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		if decodeErr == nil && data.Message != "" {
			message = data.Message
		}
		return nil, models.NewProviderError(providerName, message, nil)
	}
	if decodeErr != nil {
		return nil, models.NewMalformedResponseError(providerName, fmt.Sprintf("decoding response: %v", decodeErr))
	}
	if len(data.Weather) == 0 {
		return nil, models.NewMalformedResponseError(providerName, "missing weather description")
	}
	if data.Main == nil {
		return nil, models.NewMalformedResponseError(providerName, "missing main readings")
	}

	snapshot := &models.WeatherSnapshot{
		Description: capitalize(data.Weather[0].Description),
		Temperature: data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
		Humidity:    data.Main.Humidity,
	}

	log.Debug().
		Str("description", snapshot.Description).
		Float64("temp", snapshot.Temperature).
		Msg("Fetched weather")

	return snapshot, nil
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
