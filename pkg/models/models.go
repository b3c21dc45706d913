package models

import (
	"strings"
	"time"
)

// BlueDevice is a Blue Connect probe.
type BlueDevice struct {
	Serial            string    `json:"serial"`
	HwGeneration      int       `json:"hwGeneration"`
	HwProductType     string    `json:"hwProductType"`
	HwProductName     string    `json:"hwProductName"`
	LastMeasureBle    time.Time `json:"lastMeasureBle"`
	LastMeasureSigfox time.Time `json:"lastMeasureSigfox"`
	BatteryLow        bool      `json:"batteryLow"`
}

// SwimmingPoolMeasurement is one measured quantity (pH, ORP, temperature...)
// together with the ranges the service considers healthy.
type SwimmingPoolMeasurement struct {
	Name        string           `json:"name"`
	Priority    int              `json:"priority"`
	Timestamp   time.Time        `json:"timestamp"`
	Expired     bool             `json:"expired"`
	Value       float64          `json:"value"`
	Trend       MeasurementTrend `json:"trend"`
	OkMin       float64          `json:"okMin"`
	OkMax       float64          `json:"okMax"`
	WarningHigh float64          `json:"warningHigh"`
	WarningLow  float64          `json:"warningLow"`
	GaugeMax    float64          `json:"gaugeMax"`
	GaugeMin    float64          `json:"gaugeMin"`
	Issuer      string           `json:"issuer"`
}

// InRange reports whether the value lies within [OkMin, OkMax].
func (m SwimmingPoolMeasurement) InRange() bool {
	return m.Value >= m.OkMin && m.Value <= m.OkMax
}

// SwimmingPoolLastMeasurements is the latest reading set of one device.
type SwimmingPoolLastMeasurements struct {
	Status                   string                    `json:"status"`
	SwimmingPoolID           string                    `json:"swimmingPoolId"`
	Data                     []SwimmingPoolMeasurement `json:"data"`
	BlueDeviceSerial         string                    `json:"blueDeviceSerial"`
	LastBlueMeasureTimestamp *time.Time                `json:"lastBlueMeasureTimestamp,omitempty"`
	LastStripTimestamp       *time.Time                `json:"lastStripTimestamp,omitempty"`
}

// Measurements returns the current measurements.
func (m SwimmingPoolLastMeasurements) Measurements() []SwimmingPoolMeasurement {
	return m.Data
}

// Measurement returns the measurement with the given name.
func (m SwimmingPoolLastMeasurements) Measurement(name string) (SwimmingPoolMeasurement, bool) {
	for _, meas := range m.Data {
		if meas.Name == name {
			return meas, true
		}
	}
	return SwimmingPoolMeasurement{}, false
}

// UserInfo is the account identity part of User.
type UserInfo struct {
	UserID      string `json:"userId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	AccountType string `json:"accountType"`
}

// UserPreferences holds display settings and the main pool.
type UserPreferences struct {
	DisplayTemperatureUnit TemperatureUnit `json:"displayTemperatureUnit"`
	DisplayUnitSystem      string          `json:"displayUnitSystem"`
	MainSwimmingPoolID     string          `json:"mainSwimmingPoolId"`
}

// User is the logged-in account.
type User struct {
	UserInfo        UserInfo        `json:"userInfo"`
	UserPreferences UserPreferences `json:"userPreferences"`
}

// SwimmingPool describes one pool.
type SwimmingPool struct {
	Updated           time.Time `json:"updated"`
	SwimmingPoolID    string    `json:"swimmingPoolId"`
	Created           time.Time `json:"created"`
	Name              string    `json:"name"`
	LastRefreshStatus time.Time `json:"lastRefreshStatus"`
}

// SwimmingPoolStatusTask is a maintenance recommendation attached to a pool
// status. Data is passed through as delivered by the API (an object or a
// JSON encoded string).
type SwimmingPoolStatusTask struct {
	StatusID       string      `json:"statusId"`
	Since          time.Time   `json:"since"`
	Data           interface{} `json:"data"`
	SwimmingPoolID string      `json:"swimmingPoolId"`
	Created        time.Time   `json:"created"`
	TaskIdentifier string      `json:"taskIdentifier"`
	UpdateReason   string      `json:"updateReason"`
	Order          int         `json:"order"`
}

// SwimmingPoolStatus is the overall health verdict for a pool.
type SwimmingPoolStatus struct {
	Since            time.Time                `json:"since"`
	StatusID         string                   `json:"statusId"`
	GlobalStatusCode string                   `json:"globalStatusCode"`
	SwimmingPoolID   string                   `json:"swimmingPoolId"`
	Created          string                   `json:"created"`
	UpdateReason     string                   `json:"updateReason"`
	BlueDeviceSerial string                   `json:"blueDeviceSerial"`
	LastNotifDate    string                   `json:"lastNotifDate"`
	SwimmingPoolName string                   `json:"swimmingPoolName"`
	Tasks            []SwimmingPoolStatusTask `json:"tasks"`
}

// Task returns the first task whose identifier starts with prefix, e.g.
// "PH_", "ORP_" or "TEMPERATURE_".
func (s SwimmingPoolStatus) Task(prefix string) (SwimmingPoolStatusTask, bool) {
	for _, task := range s.Tasks {
		if strings.HasPrefix(task.TaskIdentifier, prefix) {
			return task, true
		}
	}
	return SwimmingPoolStatusTask{}, false
}

// SwimmingPoolFeedMessage is one localized feed entry.
type SwimmingPoolFeedMessage struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SwimmingPoolFeed is the localized message feed of a pool, newest first.
type SwimmingPoolFeed struct {
	SwimmingPoolID string                    `json:"swimmingPoolId"`
	Timestamp      time.Time                 `json:"timestamp"`
	Data           []SwimmingPoolFeedMessage `json:"data"`
	Lang           string                    `json:"lang"`
}

// Messages returns all feed messages.
func (f SwimmingPoolFeed) Messages() []SwimmingPoolFeedMessage {
	return f.Data
}

// CurrentMessage returns the latest message; ok is false for an empty feed.
func (f SwimmingPoolFeed) CurrentMessage() (SwimmingPoolFeedMessage, bool) {
	if len(f.Data) == 0 {
		return SwimmingPoolFeedMessage{}, false
	}
	return f.Data[0], true
}
