package models

import (
	"context"
	"time"
)

type Geocoder interface {
	Resolve(ctx context.Context, place string) (Coordinate, error)
}

// TideFetcher returns the sampled curve and extremes for a 12 hour window.
// A nil date starts the window now; otherwise at that date's local midnight.
type TideFetcher interface {
	Fetch(ctx context.Context, coord Coordinate, date *time.Time) (*TideSeries, error)
}

type WeatherFetcher interface {
	Fetch(ctx context.Context, coord Coordinate) (*WeatherSnapshot, error)
}
