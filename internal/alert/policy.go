package alert

import (
	"fmt"

	"github.com/tabuasmare/marebot/internal/models"
)

// Policy decides whether a tide series is low enough to notify about
type Policy interface {
	Name() string
	// Evaluate returns the height that was compared and whether it is below threshold
	Evaluate(series *models.TideSeries, threshold float64) (height float64, triggered bool)
}

// FirstExtremePolicy compares the first extreme reported for the window
type FirstExtremePolicy struct{}

func (FirstExtremePolicy) Name() string {
	return "first-extreme"
}

func (FirstExtremePolicy) Evaluate(series *models.TideSeries, threshold float64) (float64, bool) {
	if series == nil || len(series.Extremes) == 0 {
		return 0, false
	}
	h := series.Extremes[0].Height
	return h, h < threshold
}

// SeriesMinimumPolicy compares the lowest height seen anywhere in the window
type SeriesMinimumPolicy struct{}

func (SeriesMinimumPolicy) Name() string {
	return "series-minimum"
}

func (SeriesMinimumPolicy) Evaluate(series *models.TideSeries, threshold float64) (float64, bool) {
	if series == nil {
		return 0, false
	}

	found := false
	var lowest float64
	consider := func(h float64) {
		if !found || h < lowest {
			lowest = h
			found = true
		}
	}
	for _, s := range series.Samples {
		consider(s.Height)
	}
	for _, e := range series.Extremes {
		consider(e.Height)
	}

	if !found {
		return 0, false
	}
	return lowest, lowest < threshold
}

// PolicyByName maps a configured policy name to its implementation
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", FirstExtremePolicy{}.Name():
		return FirstExtremePolicy{}, nil
	case SeriesMinimumPolicy{}.Name():
		return SeriesMinimumPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown alert policy: %s", name)
	}
}
