package models

import (
	"time"

	"github.com/systmms/blueconnect/pkg/decode"
)

// Schemas for every record the API returns. Fields without a default are
// required, matching what each endpoint always sends.

var BlueDeviceSchema = decode.NewSchema("BlueDevice",
	decode.Required("serial", decode.String, func(d *BlueDevice) *string { return &d.Serial }),
	decode.Required("hw_generation", decode.Int, func(d *BlueDevice) *int { return &d.HwGeneration }),
	decode.Required("hw_product_type", decode.String, func(d *BlueDevice) *string { return &d.HwProductType }),
	decode.Required("hw_product_name", decode.String, func(d *BlueDevice) *string { return &d.HwProductName }),
	decode.Required("last_measure_ble", decode.Timestamp, func(d *BlueDevice) *time.Time { return &d.LastMeasureBle }),
	decode.Required("last_measure_sigfox", decode.Timestamp, func(d *BlueDevice) *time.Time { return &d.LastMeasureSigfox }),
	decode.Required("battery_low", decode.Bool, func(d *BlueDevice) *bool { return &d.BatteryLow }),
)

var SwimmingPoolMeasurementSchema = decode.NewSchema("SwimmingPoolMeasurement",
	decode.Required("name", decode.String, func(m *SwimmingPoolMeasurement) *string { return &m.Name }),
	decode.Required("priority", decode.Int, func(m *SwimmingPoolMeasurement) *int { return &m.Priority }),
	decode.Required("timestamp", decode.Timestamp, func(m *SwimmingPoolMeasurement) *time.Time { return &m.Timestamp }),
	decode.Required("expired", decode.Bool, func(m *SwimmingPoolMeasurement) *bool { return &m.Expired }),
	decode.Required("value", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.Value }),
	decode.Required("trend", measurementTrendType, func(m *SwimmingPoolMeasurement) *MeasurementTrend { return &m.Trend }),
	decode.Required("ok_min", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.OkMin }),
	decode.Required("ok_max", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.OkMax }),
	decode.Required("warning_high", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.WarningHigh }),
	decode.Required("warning_low", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.WarningLow }),
	decode.Required("gauge_max", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.GaugeMax }),
	decode.Required("gauge_min", decode.Float, func(m *SwimmingPoolMeasurement) *float64 { return &m.GaugeMin }),
	decode.Required("issuer", decode.String, func(m *SwimmingPoolMeasurement) *string { return &m.Issuer }),
)

var SwimmingPoolLastMeasurementsSchema = decode.NewSchema("SwimmingPoolLastMeasurements",
	decode.Required("status", decode.String, func(m *SwimmingPoolLastMeasurements) *string { return &m.Status }),
	decode.Required("swimming_pool_id", decode.String, func(m *SwimmingPoolLastMeasurements) *string { return &m.SwimmingPoolID }),
	decode.Required("data", decode.List(decode.Record(SwimmingPoolMeasurementSchema)), func(m *SwimmingPoolLastMeasurements) *[]SwimmingPoolMeasurement { return &m.Data }),
	decode.Default("blue_device_serial", decode.String, func(m *SwimmingPoolLastMeasurements) *string { return &m.BlueDeviceSerial }, ""),
	decode.Optional("last_blue_measure_timestamp", decode.Ptr(decode.Timestamp), func(m *SwimmingPoolLastMeasurements) **time.Time { return &m.LastBlueMeasureTimestamp }),
	decode.Optional("last_strip_timestamp", decode.Ptr(decode.Timestamp), func(m *SwimmingPoolLastMeasurements) **time.Time { return &m.LastStripTimestamp }),
)

var UserInfoSchema = decode.NewSchema("UserInfo",
	decode.Required("user_id", decode.String, func(u *UserInfo) *string { return &u.UserID }),
	decode.Required("first_name", decode.String, func(u *UserInfo) *string { return &u.FirstName }),
	decode.Required("last_name", decode.String, func(u *UserInfo) *string { return &u.LastName }),
	decode.Required("email", decode.String, func(u *UserInfo) *string { return &u.Email }),
	decode.Required("account_type", decode.String, func(u *UserInfo) *string { return &u.AccountType }),
)

var UserPreferencesSchema = decode.NewSchema("UserPreferences",
	decode.Required("display_temperature_unit", temperatureUnitType, func(p *UserPreferences) *TemperatureUnit { return &p.DisplayTemperatureUnit }),
	decode.Required("display_unit_system", decode.String, func(p *UserPreferences) *string { return &p.DisplayUnitSystem }),
	decode.Required("main_swimming_pool_id", decode.String, func(p *UserPreferences) *string { return &p.MainSwimmingPoolID }),
)

var UserSchema = decode.NewSchema("User",
	decode.Required("user_info", decode.Record(UserInfoSchema), func(u *User) *UserInfo { return &u.UserInfo }),
	decode.Required("user_preferences", decode.Record(UserPreferencesSchema), func(u *User) *UserPreferences { return &u.UserPreferences }),
)

var SwimmingPoolSchema = decode.NewSchema("SwimmingPool",
	decode.Required("updated", decode.Timestamp, func(p *SwimmingPool) *time.Time { return &p.Updated }),
	decode.Required("swimming_pool_id", decode.String, func(p *SwimmingPool) *string { return &p.SwimmingPoolID }),
	decode.Required("created", decode.Timestamp, func(p *SwimmingPool) *time.Time { return &p.Created }),
	decode.Required("name", decode.String, func(p *SwimmingPool) *string { return &p.Name }),
	decode.Required("last_refresh_status", decode.Timestamp, func(p *SwimmingPool) *time.Time { return &p.LastRefreshStatus }),
)

var SwimmingPoolStatusTaskSchema = decode.NewSchema("SwimmingPoolStatusTask",
	decode.Required("status_id", decode.String, func(t *SwimmingPoolStatusTask) *string { return &t.StatusID }),
	decode.Required("since", decode.Timestamp, func(t *SwimmingPoolStatusTask) *time.Time { return &t.Since }),
	decode.Required("data", decode.Any, func(t *SwimmingPoolStatusTask) *interface{} { return &t.Data }),
	decode.Required("swimming_pool_id", decode.String, func(t *SwimmingPoolStatusTask) *string { return &t.SwimmingPoolID }),
	decode.Required("created", decode.Timestamp, func(t *SwimmingPoolStatusTask) *time.Time { return &t.Created }),
	decode.Required("task_identifier", decode.String, func(t *SwimmingPoolStatusTask) *string { return &t.TaskIdentifier }),
	decode.Required("update_reason", decode.String, func(t *SwimmingPoolStatusTask) *string { return &t.UpdateReason }),
	decode.Required("order", decode.Int, func(t *SwimmingPoolStatusTask) *int { return &t.Order }),
)

var SwimmingPoolStatusSchema = decode.NewSchema("SwimmingPoolStatus",
	decode.Required("since", decode.Timestamp, func(s *SwimmingPoolStatus) *time.Time { return &s.Since }),
	decode.Required("status_id", decode.String, func(s *SwimmingPoolStatus) *string { return &s.StatusID }),
	decode.Required("global_status_code", decode.String, func(s *SwimmingPoolStatus) *string { return &s.GlobalStatusCode }),
	decode.Required("swimming_pool_id", decode.String, func(s *SwimmingPoolStatus) *string { return &s.SwimmingPoolID }),
	decode.Required("created", decode.String, func(s *SwimmingPoolStatus) *string { return &s.Created }),
	decode.Required("update_reason", decode.String, func(s *SwimmingPoolStatus) *string { return &s.UpdateReason }),
	decode.Required("blue_device_serial", decode.String, func(s *SwimmingPoolStatus) *string { return &s.BlueDeviceSerial }),
	decode.Required("last_notif_date", decode.String, func(s *SwimmingPoolStatus) *string { return &s.LastNotifDate }),
	decode.Required("swimming_pool_name", decode.String, func(s *SwimmingPoolStatus) *string { return &s.SwimmingPoolName }),
	decode.Required("tasks", decode.List(decode.Record(SwimmingPoolStatusTaskSchema)), func(s *SwimmingPoolStatus) *[]SwimmingPoolStatusTask { return &s.Tasks }),
)

var SwimmingPoolFeedMessageSchema = decode.NewSchema("SwimmingPoolFeedMessage",
	decode.Required("id", decode.String, func(m *SwimmingPoolFeedMessage) *string { return &m.ID }),
	decode.Required("title", decode.String, func(m *SwimmingPoolFeedMessage) *string { return &m.Title }),
	decode.Required("message", decode.String, func(m *SwimmingPoolFeedMessage) *string { return &m.Message }),
)

var SwimmingPoolFeedSchema = decode.NewSchema("SwimmingPoolFeed",
	decode.Required("swimming_pool_id", decode.String, func(f *SwimmingPoolFeed) *string { return &f.SwimmingPoolID }),
	decode.Required("timestamp", decode.Timestamp, func(f *SwimmingPoolFeed) *time.Time { return &f.Timestamp }),
	decode.Required("data", decode.List(decode.Record(SwimmingPoolFeedMessageSchema)), func(f *SwimmingPoolFeed) *[]SwimmingPoolFeedMessage { return &f.Data }),
	decode.Required("lang", decode.String, func(f *SwimmingPoolFeed) *string { return &f.Lang }),
)
