package models

import (
	"fmt"
	"math"
	"regexp"
)

type TideType string

const (
	TideTypeHigh TideType = "high"
	TideTypeLow  TideType = "low"
)

var localTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Coordinate is a resolved point on the globe
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TideExtreme represents a high or low tide
type TideExtreme struct {
	Type      TideType `json:"type"`
	Timestamp int64    `json:"timestamp"`
	LocalTime string   `json:"localTime"` // HH:MM
	Height    float64  `json:"height"`
}

// TideSample is one point of the sampled height curve
type TideSample struct {
	Timestamp int64   `json:"timestamp"`
	LocalTime string  `json:"localTime"` // HH:MM
	Height    float64 `json:"height"`
}

// TideSeries is the sampled curve plus its extremes for a query window
type TideSeries struct {
	Samples  []TideSample  `json:"samples"`
	Extremes []TideExtreme `json:"extremes"`
}

// Label renders the extreme the way it is shown to users, e.g. "06:12 - low (0.45m)"
func (te TideExtreme) Label() string {
	return fmt.Sprintf("%s - %s (%.2fm)", te.LocalTime, te.Type, te.Height)
}

// ExtremeLabels returns one display line per extreme, in provider order
func (s *TideSeries) ExtremeLabels() []string {
	labels := make([]string, len(s.Extremes))
	for i, e := range s.Extremes {
		labels[i] = e.Label()
	}
	return labels
}

// TimeLabels returns the HH:MM label of every sample
func (s *TideSeries) TimeLabels() []string {
	labels := make([]string, len(s.Samples))
	for i, p := range s.Samples {
		labels[i] = p.LocalTime
	}
	return labels
}

// Heights returns the height of every sample
func (s *TideSeries) Heights() []float64 {
	heights := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		heights[i] = p.Height
	}
	return heights
}

// Validate checks if a Coordinate is on the globe
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", c.Longitude)
	}
	return nil
}

// Validate checks if a TideSample's fields are valid
func (ts *TideSample) Validate() error {
	if ts.Timestamp <= 0 {
		return fmt.Errorf("invalid timestamp: %d", ts.Timestamp)
	}
	if !localTimePattern.MatchString(ts.LocalTime) {
		return fmt.Errorf("invalid local time format: %s", ts.LocalTime)
	}
	return nil
}

// Validate checks if a TideExtreme's fields are valid
func (te *TideExtreme) Validate() error {
	if te.Timestamp <= 0 {
		return fmt.Errorf("invalid timestamp: %d", te.Timestamp)
	}

	switch te.Type {
	case TideTypeHigh, TideTypeLow:
	default:
		return fmt.Errorf("invalid tide type: %s", te.Type)
	}

	if !localTimePattern.MatchString(te.LocalTime) {
		return fmt.Errorf("invalid local time format: %s", te.LocalTime)
	}
	return nil
}

// Validate checks that samples are time-ordered and every entry is well formed
func (s *TideSeries) Validate() error {
	for i, sample := range s.Samples {
		if err := sample.Validate(); err != nil {
			return fmt.Errorf("invalid sample at index %d: %w", i, err)
		}
		if i > 0 && sample.Timestamp < s.Samples[i-1].Timestamp {
			return fmt.Errorf("samples out of order at index %d", i)
		}
	}

	for i, extreme := range s.Extremes {
		if err := extreme.Validate(); err != nil {
			return fmt.Errorf("invalid extreme at index %d: %w", i, err)
		}
	}

	return nil
}
