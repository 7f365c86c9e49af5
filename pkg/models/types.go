// Package models holds the shared data structures exchanged between the
// API client, the hierarchy resolver and the history services.
package models

import (
	"encoding/json"
	"time"
)

// HierarchyItem is a single row of a hierarchy table query. The same shape
// is used for groups, devices, sensors and channel candidates; which level
// a row belongs to is determined by the deepest non-empty identity field
// (Group, Device, Sensor, Name).
type HierarchyItem struct {
	ObjID     int64  `json:"objid"`
	Group     string `json:"group"`
	Device    string `json:"device"`
	Sensor    string `json:"sensor"`
	Name      string `json:"name"`
	Channel   string `json:"channel"`
	Status    string `json:"status"`
	StatusRaw int    `json:"status_raw"`
	Active    string `json:"active"`
	ActiveRaw int    `json:"active_raw"`
	Message   string `json:"message_raw"`

	// SensorID is set by the channel enumerator when a channel row is
	// annotated with its owning sensor. It never comes off the wire.
	SensorID int64 `json:"-"`
}

// HistoryPoint is one sample of a channel's time series. A nil Value marks
// a gap in the upstream series for that timestamp.
type HistoryPoint struct {
	Sensor  int64     `json:"sensor"`
	Channel string    `json:"channel"`
	Time    time.Time `json:"datetime"`
	Value   *float64  `json:"value"`
}

// MessageEvent is a sensor log entry mapped into the caller's time window.
type MessageEvent struct {
	Time  time.Time `json:"time"`
	Title string    `json:"title"`
	Text  string    `json:"text"`
}

// SensorDetails is the payload of a current-status lookup.
type SensorDetails struct {
	Name       string `json:"name"`
	SensorType string `json:"sensortype"`
	StatusID   int64  `json:"statusid,string"`
	StatusText string `json:"statustext"`
}

// ChannelValue is one named reading inside a history record.
type ChannelValue struct {
	Channel string  `json:"channel"`
	Value   float64 `json:"value"`
}

// ChannelValues decodes the backend's value_raw field, which is an array
// when a record carries several channel readings but a bare object when it
// carries exactly one.
type ChannelValues []ChannelValue

func (c *ChannelValues) UnmarshalJSON(data []byte) error {
	var list []ChannelValue
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}

	var single ChannelValue
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*c = ChannelValues{single}

	return nil
}

// HistoryRecord is one raw history row. DateTime is the vendor's day-count
// encoding, not a Unix timestamp.
type HistoryRecord struct {
	DateTime float64       `json:"datetime_raw"`
	Values   ChannelValues `json:"value_raw"`
}

// MessageRecord is one raw sensor log row.
type MessageRecord struct {
	DateTime float64 `json:"datetime_raw"`
	Status   string  `json:"status"`
	Parent   string  `json:"parent"`
	Type     string  `json:"type"`
	Message  string  `json:"message"`
}
