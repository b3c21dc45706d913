package fakes

import (
	"fmt"
	"net/http"
)

// Canned API payloads in the shapes the service returns.

const UserJSON = `{
	"user_info": {"user_id":"u-1","first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","account_type":"standard"},
	"user_preferences": {"display_temperature_unit":"celsius","display_unit_system":"metric","main_swimming_pool_id":"abc"}
}`

const PoolJSON = `{"swimming_pool_id":"abc","name":"Backyard","updated":"2023-01-01T00:00:00Z","created":"2022-06-01T12:00:00Z","last_refresh_status":"2023-01-01T06:30:00Z"}`

const PoolsJSON = `{"data":[
	{"swimming_pool":` + PoolJSON + `},
	{"swimming_pool":{"swimming_pool_id":"def","name":"Spa","updated":"2023-01-02T00:00:00Z","created":"2022-07-01T12:00:00Z","last_refresh_status":"2023-01-02T06:30:00Z"}}
]}`

const StatusJSON = `{
	"since":"2023-01-01T06:30:00Z","status_id":"st-1","global_status_code":"OK","swimming_pool_id":"abc",
	"created":"2023-01-01T06:30:00.000Z","update_reason":"measure","blue_device_serial":"00AA11",
	"last_notif_date":"2023-01-01","swimming_pool_name":"Backyard",
	"tasks":[
		{"status_id":"st-1","since":"2023-01-01T06:30:00Z","data":"{\"value\":7.4}","swimming_pool_id":"abc","created":"2023-01-01T06:30:00Z","task_identifier":"PH_OK","update_reason":"measure","order":1},
		{"status_id":"st-1","since":"2023-01-01T06:30:00Z","data":{"value":26.5},"swimming_pool_id":"abc","created":"2023-01-01T06:30:00Z","task_identifier":"TEMPERATURE_OK","update_reason":"measure","order":2}
	]
}`

const FeedJSON = `{"swimming_pool_id":"abc","timestamp":"2023-01-01T06:30:00Z","lang":"en","data":[
	{"id":"m1","title":"All good","message":"Your water is balanced."},
	{"id":"m0","title":"Welcome","message":"Your Blue Connect is ready."}
]}`

const BlueDevicesJSON = `{"data":[{"blue_device_serial":"00AA11","swimming_pool_id":"abc"}]}`

const DeviceJSON = `{"serial":"00AA11","hw_generation":3,"hw_product_type":"go","hw_product_name":"Blue Connect Go","last_measure_ble":"2023-01-01T06:00:00Z","last_measure_sigfox":"2023-01-01T06:30:00Z","battery_low":false}`

const LastMeasurementsJSON = `{"status":"OK","swimming_pool_id":"abc","blue_device_serial":"00AA11","last_blue_measure_timestamp":"2023-01-01T06:30:00Z","data":[
	{"name":"temperature","priority":10,"timestamp":"2023-01-01T06:30:00Z","expired":false,"value":26.5,"trend":"increase","ok_min":20,"ok_max":30,"warning_high":32,"warning_low":15,"gauge_max":40,"gauge_min":0,"issuer":"blue"},
	{"name":"ph","priority":20,"timestamp":"2023-01-01T06:30:00Z","expired":false,"value":7.4,"trend":"stable","ok_min":7.2,"ok_max":7.6,"warning_high":8,"warning_low":6.8,"gauge_max":10,"gauge_min":5,"issuer":"blue"},
	{"name":"orp","priority":30,"timestamp":"2023-01-01T06:30:00Z","expired":true,"value":650,"trend":"decrease","ok_min":650,"ok_max":750,"warning_high":900,"warning_low":400,"gauge_max":1000,"gauge_min":0,"issuer":"strip"}
]}`

// NewPoolAPI returns a transport that serves a complete, consistent account
// with pool "abc" and device "00AA11".
func NewPoolAPI(baseURL string) *FakeTransport {
	return NewFakeTransport(baseURL).
		OnLogin(LoginOK()).
		OnGet("user", OK(UserJSON)).
		OnGet("swimming_pool", OK(PoolsJSON)).
		OnGet("swimming_pool/abc", OK(PoolJSON)).
		OnGet("swimming_pool/abc/status", OK(StatusJSON)).
		OnGet("swimming_pool/abc/feed", OK(FeedJSON)).
		OnGet("swimming_pool/abc/blue", OK(BlueDevicesJSON)).
		OnGet("blue/00AA11", OK(DeviceJSON)).
		OnGet("swimming_pool/abc/blue/00AA11/lastMeasurements", OK(LastMeasurementsJSON))
}

// ServerError is a 500 reply.
func ServerError(msg string) Reply {
	return Status(http.StatusInternalServerError, fmt.Sprintf(`{"message":%q}`, msg))
}
