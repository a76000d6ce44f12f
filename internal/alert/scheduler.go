package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/models"
	"github.com/tabuasmare/marebot/internal/store"
)

// Notifier delivers an alert message to a user
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// AlertSource returns a point-in-time copy of the registered alerts
type AlertSource interface {
	Alerts() []store.UserAlert
}

// TickSummary counts what happened during one evaluation pass
type TickSummary struct {
	Evaluated int
	Notified  int
	Failed    int
}

// Scheduler periodically evaluates every registered alert.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	alerts      AlertSource
	geocoder    models.Geocoder
	tides       models.TideFetcher
	notifier    Notifier
	policy      Policy
	interval    time.Duration
	evalTimeout time.Duration
}

// New creates a new Scheduler.
func New(alerts AlertSource, geocoder models.Geocoder, tides models.TideFetcher, notifier Notifier, policy Policy, interval, evalTimeout time.Duration) *Scheduler {
	if policy == nil {
		policy = FirstExtremePolicy{}
	}
	if evalTimeout <= 0 {
		evalTimeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		alerts:      alerts,
		geocoder:    geocoder,
		tides:       tides,
		notifier:    notifier,
		policy:      policy,
		interval:    interval,
		evalTimeout: evalTimeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first tick runs one interval after start and ticks never overlap.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().SingletonMode().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("scheduling alert job: %w", err)
	}

	s.scheduler.StartAsync()
	log.Info().
		Dur("interval", interval).
		Str("policy", s.policy.Name()).
		Msg("Alert scheduler started")
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce evaluates every alert once, in user id order.
// A failing alert is logged and never stops the others.
func (s *Scheduler) RunOnce(ctx context.Context) TickSummary {
	var summary TickSummary

	for _, ua := range s.alerts.Alerts() {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("Alert tick cancelled")
			break
		}

		summary.Evaluated++
		notified, err := s.evaluate(ctx, ua)
		if err != nil {
			summary.Failed++
			log.Error().
				Err(err).
				Int64("user_id", ua.UserID).
				Str("place", ua.Alert.Place).
				Msg("Alert evaluation failed")
			continue
		}
		if notified {
			summary.Notified++
		}
	}

	log.Debug().
		Int("evaluated", summary.Evaluated).
		Int("notified", summary.Notified).
		Int("failed", summary.Failed).
		Msg("Alert tick completed")

	return summary
}

func (s *Scheduler) evaluate(parent context.Context, ua store.UserAlert) (notified bool, err error) {
	ctx, cancel := context.WithTimeout(parent, s.evalTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			notified = false
			err = fmt.Errorf("panic evaluating alert: %v", r)
		}
	}()

	coord, err := s.geocoder.Resolve(ctx, ua.Alert.Place)
	if err != nil {
		return false, fmt.Errorf("geocoding alert place: %w", err)
	}

	series, err := s.tides.Fetch(ctx, coord, nil)
	if err != nil {
		return false, fmt.Errorf("fetching tides: %w", err)
	}

	height, triggered := s.policy.Evaluate(series, ua.Alert.Threshold)
	if !triggered {
		return false, nil
	}

	if err := s.notifier.Notify(ctx, ua.UserID, NotificationMessage(ua.Alert, height)); err != nil {
		return false, fmt.Errorf("sending notification: %w", err)
	}

	log.Info().
		Int64("user_id", ua.UserID).
		Str("place", ua.Alert.Place).
		Float64("height", height).
		Float64("threshold", ua.Alert.Threshold).
		Msg("Alert notification sent")
	return true, nil
}
