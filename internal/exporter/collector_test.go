package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/blueconnect/internal/logging"
	"github.com/systmms/blueconnect/internal/poolstate"
	"github.com/systmms/blueconnect/pkg/client"
	"github.com/systmms/blueconnect/pkg/models"
)

type stubFetcher struct {
	state *poolstate.State
	err   error
}

func (s stubFetcher) Fetch(ctx context.Context) (*poolstate.State, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("fetch without deadline")
	}
	return s.state, s.err
}

func sampleState() *poolstate.State {
	return &poolstate.State{
		Pool:   models.SwimmingPool{SwimmingPoolID: "abc", Name: "Backyard"},
		Device: &models.BlueDevice{Serial: "00AA11", BatteryLow: true},
		Measurements: []models.SwimmingPoolMeasurement{
			{Name: "temperature", Issuer: "blue", Value: 26.5, OkMin: 20, OkMax: 30},
			{Name: "orp", Issuer: "blue", Value: 650, OkMin: 650, OkMax: 750, Expired: true},
		},
	}
}

func TestCollector_Success(t *testing.T) {
	t.Parallel()

	c := NewCollector(stubFetcher{state: sampleState()})

	expected := `
# HELP blueconnect_up Whether the last pool state fetch succeeded.
# TYPE blueconnect_up gauge
blueconnect_up 1
# HELP blueconnect_measurement_value Latest measured value.
# TYPE blueconnect_measurement_value gauge
blueconnect_measurement_value{issuer="blue",measurement="orp",pool="abc"} 650
blueconnect_measurement_value{issuer="blue",measurement="temperature",pool="abc"} 26.5
# HELP blueconnect_measurement_expired 1 if the measurement is too old to be trusted.
# TYPE blueconnect_measurement_expired gauge
blueconnect_measurement_expired{issuer="blue",measurement="orp",pool="abc"} 1
blueconnect_measurement_expired{issuer="blue",measurement="temperature",pool="abc"} 0
# HELP blueconnect_measurement_ok_min Lower bound of the healthy range.
# TYPE blueconnect_measurement_ok_min gauge
blueconnect_measurement_ok_min{issuer="blue",measurement="orp",pool="abc"} 650
blueconnect_measurement_ok_min{issuer="blue",measurement="temperature",pool="abc"} 20
# HELP blueconnect_measurement_ok_max Upper bound of the healthy range.
# TYPE blueconnect_measurement_ok_max gauge
blueconnect_measurement_ok_max{issuer="blue",measurement="orp",pool="abc"} 750
blueconnect_measurement_ok_max{issuer="blue",measurement="temperature",pool="abc"} 30
# HELP blueconnect_device_battery_low 1 if the Blue device reports a low battery.
# TYPE blueconnect_device_battery_low gauge
blueconnect_device_battery_low{serial="00AA11"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"blueconnect_up",
		"blueconnect_measurement_value",
		"blueconnect_measurement_expired",
		"blueconnect_measurement_ok_min",
		"blueconnect_measurement_ok_max",
		"blueconnect_device_battery_low",
	)
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(c, "blueconnect_scrape_duration_seconds"))
}

func TestCollector_SameNameFromProbeAndStrip(t *testing.T) {
	t.Parallel()

	state := sampleState()
	state.Measurements = []models.SwimmingPoolMeasurement{
		{Name: "ph", Issuer: "blue", Value: 7.2, OkMin: 7.0, OkMax: 7.4},
		{Name: "ph", Issuer: "strip", Value: 7.6, OkMin: 7.0, OkMax: 7.4},
	}
	c := NewCollector(stubFetcher{state: state})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	_, err := reg.Gather()
	require.NoError(t, err)

	expected := `
# HELP blueconnect_measurement_value Latest measured value.
# TYPE blueconnect_measurement_value gauge
blueconnect_measurement_value{issuer="blue",measurement="ph",pool="abc"} 7.2
blueconnect_measurement_value{issuer="strip",measurement="ph",pool="abc"} 7.6
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "blueconnect_measurement_value"))
	assert.Equal(t, 2, testutil.CollectAndCount(c, "blueconnect_measurement_expired"))
}

func TestCollector_NoDevice(t *testing.T) {
	t.Parallel()

	state := sampleState()
	state.Device = nil
	state.Measurements = nil
	c := NewCollector(stubFetcher{state: state})

	assert.Equal(t, 0, testutil.CollectAndCount(c, "blueconnect_device_battery_low"))
	assert.Equal(t, 0, testutil.CollectAndCount(c, "blueconnect_measurement_value"))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "blueconnect_up"))
}

func TestCollector_FetchFailure(t *testing.T) {
	t.Parallel()

	c := NewCollector(stubFetcher{err: errors.New("login failed")})

	expected := `
# HELP blueconnect_up Whether the last pool state fetch succeeded.
# TYPE blueconnect_up gauge
blueconnect_up 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "blueconnect_up"))
	assert.Equal(t, 0, testutil.CollectAndCount(c, "blueconnect_measurement_value"))
}

func TestCollector_FailureLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transient",
			err:  fmt.Errorf("fetching pool abc: %w", &client.RequestFailedError{Path: "swimming_pool/abc", StatusCode: 503}),
			want: "⚠ Pool state fetch failed, retrying on next scrape: fetching pool abc",
		},
		{
			name: "permanent",
			err:  &client.LoginFailedError{StatusCode: 401, Body: "denied"},
			want: "✗ Pool state fetch failed: login failed (status 401)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			c := NewCollector(stubFetcher{err: tt.err}, WithLogger(logging.NewWithWriter(&buf, false, true)))
			testutil.CollectAndCount(c, "blueconnect_up")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestCollector_Lint(t *testing.T) {
	t.Parallel()

	problems, err := testutil.CollectAndLint(NewCollector(stubFetcher{state: sampleState()}))
	require.NoError(t, err)
	assert.Empty(t, problems)
}
