package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/cache"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/pkg/http/client"
)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type NominatimGeocoder struct {
	httpClient client.Interface
	cache      *cache.CoordinateCache
}

var _ models.Geocoder = (*NominatimGeocoder)(nil)

// NewNominatimGeocoder creates a geocoder. coordCache may be nil to disable caching.
func NewNominatimGeocoder(httpClient client.Interface, coordCache *cache.CoordinateCache) *NominatimGeocoder {
	return &NominatimGeocoder{
		httpClient: httpClient,
		cache:      coordCache,
	}
}

// Resolve turns free text into the first matching coordinate.
// Every failure, including transport errors, is reported as *models.NotFoundError.
func (g *NominatimGeocoder) Resolve(ctx context.Context, place string) (models.Coordinate, error) {
	if strings.TrimSpace(place) == "" {
		return models.Coordinate{}, models.NewNotFoundError(place, nil)
	}

	if g.cache != nil {
		if coord, ok := g.cache.Get(place); ok {
			log.Debug().Str("place", place).Msg("Geocode cache hit")
			return coord, nil
		}
	}

	coord, err := g.lookup(ctx, place)
	if err != nil {
		log.Debug().Err(err).Str("place", place).Msg("Geocoding failed")
		return models.Coordinate{}, models.NewNotFoundError(place, err)
	}

	if g.cache != nil {
		g.cache.Put(place, coord)
	}
	return coord, nil
}

func (g *NominatimGeocoder) lookup(ctx context.Context, place string) (models.Coordinate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", place)

	resp, err := g.httpClient.Get(ctx, "/search", params)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("searching place: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Coordinate{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.Unmarshal(resp.Body, &places); err != nil {
		return models.Coordinate{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(places) == 0 {
		return models.Coordinate{}, fmt.Errorf("no results")
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("parsing longitude: %w", err)
	}

	coord := models.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return models.Coordinate{}, err
	}
	return coord, nil
}
