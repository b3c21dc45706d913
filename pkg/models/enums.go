package models

import (
	"github.com/systmms/blueconnect/pkg/decode"
)

// MeasurementTrend is the direction a measurement moved since the previous one.
type MeasurementTrend string

const (
	TrendStable    MeasurementTrend = "stable"
	TrendIncrease  MeasurementTrend = "increase"
	TrendDecrease  MeasurementTrend = "decrease"
	TrendUndefined MeasurementTrend = "undefined"
)

// TemperatureUnit is the user's display preference for temperatures.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

var (
	measurementTrendType = decode.Enum("MeasurementTrend", TrendStable, TrendIncrease, TrendDecrease, TrendUndefined)
	temperatureUnitType  = decode.Enum("TemperatureUnit", Celsius, Fahrenheit)
)

// ParseMeasurementTrend converts s to a MeasurementTrend, failing with an
// UnknownEnumValue decode error for anything outside the known set.
func ParseMeasurementTrend(s string) (MeasurementTrend, error) {
	return measurementTrendType.Coerce(s, "trend")
}

// ParseTemperatureUnit converts s to a TemperatureUnit.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	return temperatureUnitType.Coerce(s, "display_temperature_unit")
}
