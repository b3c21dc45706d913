// Package poolstate assembles the current state of one swimming pool: the
// pool itself, its latest feed message, its first Blue device and that
// device's last measurements.
package poolstate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/systmms/blueconnect/internal/logging"
	"github.com/systmms/blueconnect/pkg/models"
)

// API is the part of client.Client the fetcher needs.
type API interface {
	User(ctx context.Context) (models.User, error)
	SwimmingPool(ctx context.Context, poolID string) (models.SwimmingPool, error)
	SwimmingPoolFeed(ctx context.Context, poolID, language string) (models.SwimmingPoolFeed, error)
	SwimmingPoolBlueDevices(ctx context.Context, poolID string) ([]models.BlueDevice, error)
	LastMeasurements(ctx context.Context, poolID, serial string) (models.SwimmingPoolLastMeasurements, error)
}

// State is a snapshot of one pool.
type State struct {
	FetchedAt       time.Time                        `json:"fetchedAt"`
	TemperatureUnit models.TemperatureUnit           `json:"temperatureUnit"`
	Pool            models.SwimmingPool              `json:"pool"`
	FeedMessage     *models.SwimmingPoolFeedMessage  `json:"feedMessage,omitempty"`
	Device          *models.BlueDevice               `json:"device,omitempty"`
	Measurements    []models.SwimmingPoolMeasurement `json:"measurements"`
}

// Measurement returns the measurement with the given name.
func (s *State) Measurement(name string) (models.SwimmingPoolMeasurement, bool) {
	for _, m := range s.Measurements {
		if m.Name == name {
			return m, true
		}
	}
	return models.SwimmingPoolMeasurement{}, false
}

// Fetcher builds State snapshots.
type Fetcher struct {
	api      API
	language string
	poolID   string
	logger   *logging.Logger
	now      func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLanguage sets the feed language.
func WithLanguage(lang string) Option {
	return func(f *Fetcher) {
		f.language = lang
	}
}

// WithPoolID selects a pool instead of the account's main pool.
func WithPoolID(id string) Option {
	return func(f *Fetcher) {
		f.poolID = id
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock sets the clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// New creates a Fetcher.
func New(api API, opts ...Option) *Fetcher {
	f := &Fetcher{
		api:      api,
		language: "en",
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch assembles a fresh snapshot. Any failing request fails the whole
// snapshot.
func (f *Fetcher) Fetch(ctx context.Context) (*State, error) {
	user, err := f.api.User(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	poolID := f.poolID
	if poolID == "" {
		poolID = user.UserPreferences.MainSwimmingPoolID
	}
	if poolID == "" {
		return nil, fmt.Errorf("account %s has no main swimming pool", user.UserInfo.Email)
	}
	f.logger.Debug("Fetching state of pool %s", poolID)

	state := &State{
		FetchedAt:       f.now(),
		TemperatureUnit: user.UserPreferences.DisplayTemperatureUnit,
		Measurements:    []models.SwimmingPoolMeasurement{},
	}

	var devices []models.BlueDevice
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool, err := f.api.SwimmingPool(gctx, poolID)
		if err != nil {
			return fmt.Errorf("fetching pool %s: %w", poolID, err)
		}
		state.Pool = pool
		return nil
	})
	g.Go(func() error {
		feed, err := f.api.SwimmingPoolFeed(gctx, poolID, f.language)
		if err != nil {
			return fmt.Errorf("fetching feed of pool %s: %w", poolID, err)
		}
		if msg, ok := feed.CurrentMessage(); ok {
			state.FeedMessage = &msg
		}
		return nil
	})
	g.Go(func() error {
		var err error
		devices, err = f.api.SwimmingPoolBlueDevices(gctx, poolID)
		if err != nil {
			return fmt.Errorf("fetching devices of pool %s: %w", poolID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		f.logger.Debug("Pool %s has no Blue device", poolID)
		return state, nil
	}
	device := devices[0]
	state.Device = &device

	last, err := f.api.LastMeasurements(ctx, poolID, device.Serial)
	if err != nil {
		return nil, fmt.Errorf("fetching measurements of device %s: %w", device.Serial, err)
	}
	if m := last.Measurements(); m != nil {
		state.Measurements = m
	}
	return state, nil
}
