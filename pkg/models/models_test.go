package models_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/blueconnect/pkg/decode"
	"github.com/systmms/blueconnect/pkg/models"
)

var (
	t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 = time.Date(2023, 1, 1, 6, 30, 0, 0, time.UTC)
)

func measurement(name string, value float64, trend models.MeasurementTrend) models.SwimmingPoolMeasurement {
	return models.SwimmingPoolMeasurement{
		Name:        name,
		Priority:    10,
		Timestamp:   t1,
		Expired:     false,
		Value:       value,
		Trend:       trend,
		OkMin:       7.2,
		OkMax:       7.6,
		WarningHigh: 8,
		WarningLow:  6.8,
		GaugeMax:    10,
		GaugeMin:    5,
		Issuer:      "blue",
	}
}

// roundTrip encodes v with its camelCase JSON tags and decodes it back.
func roundTrip[T any](t *testing.T, v T, schema *decode.Schema[T]) T {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	got, err := decode.Decode(raw, schema)
	require.NoError(t, err, "payload: %s", raw)
	return got
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("BlueDevice", func(t *testing.T) {
		in := models.BlueDevice{
			Serial:            "00AA11",
			HwGeneration:      3,
			HwProductType:     "blue_connect",
			HwProductName:     "Blue Connect Plus",
			LastMeasureBle:    t0,
			LastMeasureSigfox: t1,
			BatteryLow:        true,
		}
		assert.Equal(t, in, roundTrip(t, in, models.BlueDeviceSchema))
	})

	t.Run("User", func(t *testing.T) {
		in := models.User{
			UserInfo: models.UserInfo{
				UserID:      "u-1",
				FirstName:   "Ada",
				LastName:    "Lovelace",
				Email:       "ada@example.com",
				AccountType: "standard",
			},
			UserPreferences: models.UserPreferences{
				DisplayTemperatureUnit: models.Fahrenheit,
				DisplayUnitSystem:      "imperial",
				MainSwimmingPoolID:     "pool-1",
			},
		}
		assert.Equal(t, in, roundTrip(t, in, models.UserSchema))
	})

	t.Run("SwimmingPool", func(t *testing.T) {
		in := models.SwimmingPool{
			Updated:           t1,
			SwimmingPoolID:    "abc",
			Created:           t0,
			Name:              "Backyard",
			LastRefreshStatus: t1,
		}
		assert.Equal(t, in, roundTrip(t, in, models.SwimmingPoolSchema))
	})

	t.Run("SwimmingPoolStatus", func(t *testing.T) {
		in := models.SwimmingPoolStatus{
			Since:            t0,
			StatusID:         "st-1",
			GlobalStatusCode: "OK",
			SwimmingPoolID:   "abc",
			Created:          "2023-01-01T00:00:00Z",
			UpdateReason:     "measure",
			BlueDeviceSerial: "00AA11",
			LastNotifDate:    "2023-01-01",
			SwimmingPoolName: "Backyard",
			Tasks: []models.SwimmingPoolStatusTask{
				{
					StatusID:       "st-1",
					Since:          t0,
					Data:           `{"value":7.4}`,
					SwimmingPoolID: "abc",
					Created:        t1,
					TaskIdentifier: "PH_OK",
					UpdateReason:   "measure",
					Order:          1,
				},
			},
		}
		assert.Equal(t, in, roundTrip(t, in, models.SwimmingPoolStatusSchema))
	})

	t.Run("SwimmingPoolFeed", func(t *testing.T) {
		in := models.SwimmingPoolFeed{
			SwimmingPoolID: "abc",
			Timestamp:      t1,
			Data: []models.SwimmingPoolFeedMessage{
				{ID: "m1", Title: "All good", Message: "Your water is balanced."},
				{ID: "m0", Title: "Welcome", Message: "Hello"},
			},
			Lang: "en",
		}
		assert.Equal(t, in, roundTrip(t, in, models.SwimmingPoolFeedSchema))
	})

	t.Run("SwimmingPoolLastMeasurements", func(t *testing.T) {
		in := models.SwimmingPoolLastMeasurements{
			Status:                   "OK",
			SwimmingPoolID:           "abc",
			BlueDeviceSerial:         "00AA11",
			LastBlueMeasureTimestamp: &t1,
			Data: []models.SwimmingPoolMeasurement{
				measurement("temperature", 26.5, models.TrendIncrease),
				measurement("ph", 7.4, models.TrendStable),
			},
		}
		assert.Equal(t, in, roundTrip(t, in, models.SwimmingPoolLastMeasurementsSchema))
	})
}

func TestSwimmingPool_KeySpellings(t *testing.T) {
	t.Parallel()

	snake := `{"swimming_pool_id":"abc","name":"Backyard","updated":"2023-01-01T00:00:00Z","created":"2023-01-01T00:00:00Z","last_refresh_status":"2023-01-01T00:00:00Z"}`
	camel := `{"swimmingPoolId":"abc","name":"Backyard","updated":"2023-01-01T00:00:00Z","created":"2023-01-01T00:00:00Z","lastRefreshStatus":"2023-01-01T00:00:00Z"}`

	fromSnake, err := decode.Decode(snake, models.SwimmingPoolSchema)
	require.NoError(t, err)
	fromCamel, err := decode.Decode(camel, models.SwimmingPoolSchema)
	require.NoError(t, err)

	assert.Equal(t, "abc", fromSnake.SwimmingPoolID)
	assert.Equal(t, fromSnake, fromCamel)
	assert.True(t, fromSnake.Updated.Equal(t0))
}

func TestLastMeasurements_Sequence(t *testing.T) {
	t.Parallel()

	body := `{
		"status": "OK",
		"swimming_pool_id": "abc",
		"last_blue_measure_timestamp": "2023-01-01T06:30:00Z",
		"data": [
			{"name":"temperature","priority":10,"timestamp":"2023-01-01T06:30:00Z","expired":false,"value":26.5,"trend":"increase","ok_min":20,"ok_max":30,"warning_high":32,"warning_low":15,"gauge_max":40,"gauge_min":0,"issuer":"blue"},
			{"name":"ph","priority":20,"timestamp":"2023-01-01T06:30:00Z","expired":false,"value":7.4,"trend":"stable","ok_min":7.2,"ok_max":7.6,"warning_high":8,"warning_low":6.8,"gauge_max":10,"gauge_min":5,"issuer":"blue"},
			{"name":"orp","priority":30,"timestamp":"2023-01-01T06:30:00Z","expired":true,"value":650,"trend":"decrease","ok_min":650,"ok_max":750,"warning_high":900,"warning_low":400,"gauge_max":1000,"gauge_min":0,"issuer":"strip"}
		]
	}`

	got, err := decode.Decode(body, models.SwimmingPoolLastMeasurementsSchema)
	require.NoError(t, err)

	measurements := got.Measurements()
	require.Len(t, measurements, 3)
	assert.Equal(t, "temperature", measurements[0].Name)
	assert.Equal(t, "ph", measurements[1].Name)
	assert.Equal(t, "orp", measurements[2].Name)
	assert.Equal(t, models.TrendDecrease, measurements[2].Trend)
	assert.True(t, measurements[2].Expired)
	assert.Equal(t, 650.0, measurements[2].Value)

	assert.Equal(t, "", got.BlueDeviceSerial, "default applies when absent")
	require.NotNil(t, got.LastBlueMeasureTimestamp)
	assert.True(t, got.LastBlueMeasureTimestamp.Equal(t1))
	assert.Nil(t, got.LastStripTimestamp)

	ph, ok := got.Measurement("ph")
	require.True(t, ok)
	assert.True(t, ph.InRange())
	_, ok = got.Measurement("salt")
	assert.False(t, ok)
}

func TestLastMeasurements_EachElementValidated(t *testing.T) {
	t.Parallel()

	body := `{"status":"OK","swimming_pool_id":"abc","data":[
		{"name":"ph","priority":20,"timestamp":"2023-01-01T06:30:00Z","expired":false,"value":7.4,"trend":"stable","ok_min":7.2,"ok_max":7.6,"warning_high":8,"warning_low":6.8,"gauge_max":10,"gauge_min":5,"issuer":"blue"},
		{"name":"orp","priority":30,"timestamp":"2023-01-01T06:30:00Z","expired":false,"value":650,"trend":"rising","ok_min":650,"ok_max":750,"warning_high":900,"warning_low":400,"gauge_max":1000,"gauge_min":0,"issuer":"blue"}
	]}`

	_, err := decode.Decode(body, models.SwimmingPoolLastMeasurementsSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decode.ErrUnknownEnumValue))

	var de *decode.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "data[1].trend", de.Field)
	assert.Equal(t, "rising", de.Value)
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	trend, err := models.ParseMeasurementTrend("undefined")
	require.NoError(t, err)
	assert.Equal(t, models.TrendUndefined, trend)

	_, err = models.ParseMeasurementTrend("rising")
	assert.True(t, errors.Is(err, decode.ErrUnknownEnumValue))

	unit, err := models.ParseTemperatureUnit("celsius")
	require.NoError(t, err)
	assert.Equal(t, models.Celsius, unit)

	_, err = models.ParseTemperatureUnit("Celsius")
	assert.True(t, errors.Is(err, decode.ErrUnknownEnumValue))

	_, err = models.ParseTemperatureUnit("kelvin")
	assert.True(t, errors.Is(err, decode.ErrUnknownEnumValue))
}

func TestUser_NestedRecords(t *testing.T) {
	t.Parallel()

	body := `{
		"userInfo": {"userId":"u-1","firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","accountType":"standard","avatar":null},
		"user_preferences": {"display_temperature_unit":"celsius","display_unit_system":"metric","main_swimming_pool_id":"pool-1"},
		"settings": {"push": true}
	}`

	got, err := decode.Decode(body, models.UserSchema)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.UserInfo.FirstName)
	assert.Equal(t, models.Celsius, got.UserPreferences.DisplayTemperatureUnit)
	assert.Equal(t, "pool-1", got.UserPreferences.MainSwimmingPoolID)

	_, err = decode.Decode(`{"userInfo":{"userId":"u-1"},"userPreferences":{}}`, models.UserSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decode.ErrMissingField))
}

func TestFeed_CurrentMessage(t *testing.T) {
	t.Parallel()

	feed := models.SwimmingPoolFeed{Data: []models.SwimmingPoolFeedMessage{{ID: "newest"}, {ID: "older"}}}
	msg, ok := feed.CurrentMessage()
	require.True(t, ok)
	assert.Equal(t, "newest", msg.ID)
	assert.Len(t, feed.Messages(), 2)

	_, ok = models.SwimmingPoolFeed{}.CurrentMessage()
	assert.False(t, ok)
}

func TestStatus_Task(t *testing.T) {
	t.Parallel()

	status := models.SwimmingPoolStatus{Tasks: []models.SwimmingPoolStatusTask{
		{TaskIdentifier: "TEMPERATURE_LOW", Order: 1},
		{TaskIdentifier: "PH_HIGH", Order: 2},
		{TaskIdentifier: "PH_SECOND", Order: 3},
	}}

	task, ok := status.Task("PH_")
	require.True(t, ok)
	assert.Equal(t, 2, task.Order)

	_, ok = status.Task("ORP_")
	assert.False(t, ok)
}
