// Package history retrieves channel time series and sensor log events,
// translating the backend's date encodings along the way.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/sensorbridge/pkg/models"
)

// Querier is the slice of the API client the history services need.
type Querier interface {
	Request(ctx context.Context, method, params string) (json.RawMessage, error)
}

// unixDayCount is the backend's day-count value for 1970-01-01. History
// and message timestamps are days since the backend's day zero.
const unixDayCount = 25569

// StatusChannel is the pseudo-channel that maps to a current-status lookup
// instead of a history query.
const StatusChannel = "Status"

// Service fetches history and message data for resolved sensors.
type Service struct {
	client Querier
	logger *logrus.Logger
	now    func() time.Time
}

func New(client Querier, logger *logrus.Logger) *Service {
	return &Service{client: client, logger: logger, now: time.Now}
}

// Get returns the history of one sensor channel over [from, to]. The
// averaging resolution is chosen from the span length; spans of exactly
// 12, 36 or 745 hours request raw data, matching the backend's own
// boundary handling.
func (s *Service) Get(ctx context.Context, sensorID int64, channel string, from, to time.Time) ([]models.HistoryPoint, error) {
	if channel == StatusChannel {
		return s.currentStatus(ctx, sensorID)
	}

	avg := averagingSeconds(to.Sub(from).Hours())

	params := fmt.Sprintf(
		"content=values&sortby=-datetime&columns=datetime_raw,value_raw&usecaptionsonly=true&id=%d&sdate=%s&edate=%s&avg=%d&count=9999",
		sensorID, formatDate(from), formatDate(to), avg,
	)

	raw, err := s.client.Request(ctx, "table.json", params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		// No history container at all: the sensor simply has no data in
		// this window.
		return []models.HistoryPoint{}, nil
	}

	var records []models.HistoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding history records: %w", err)
	}

	points := make([]models.HistoryPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, models.HistoryPoint{
			Sensor:  sensorID,
			Channel: channel,
			Time:    DecodeDayCount(rec.DateTime),
			Value:   pickValue(rec.Values, channel),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"sensor":  sensorID,
		"channel": channel,
		"avg":     avg,
		"points":  len(points),
	}).Debug("history fetched")

	return points, nil
}

// currentStatus answers a Status-channel request with a single point
// carrying the sensor's numeric status id (1-14, passed through
// uninterpreted) at the current time.
func (s *Service) currentStatus(ctx context.Context, sensorID int64) ([]models.HistoryPoint, error) {
	raw, err := s.client.Request(ctx, "getsensordetails.json", fmt.Sprintf("id=%d", sensorID))
	if err != nil {
		return nil, err
	}

	var details models.SensorDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("decoding sensor details: %w", err)
	}

	value := float64(details.StatusID)

	return []models.HistoryPoint{{
		Sensor:  sensorID,
		Channel: StatusChannel,
		Time:    s.now(),
		Value:   &value,
	}}, nil
}

// pickValue selects the reading for the requested channel from a record's
// values. A label equal to the requested name matches, and so does
// "<name> (speed)", which bandwidth sensors use after silently renaming
// the channel. When several labels match in one record the last one in
// iteration order wins; that tie-break mirrors observed backend behavior
// and is not guaranteed to pick the better reading. No match leaves the
// point's value nil, marking a gap.
func pickValue(values models.ChannelValues, channel string) *float64 {
	var picked *float64
	for _, v := range values {
		if v.Channel == channel || v.Channel == channel+" (speed)" {
			value := v.Value
			picked = &value
		}
	}
	return picked
}

// averagingSeconds maps a span length in hours to the backend's averaging
// bucket. The interval bounds are open: exactly 12, 36 or 745 hours fall
// through to raw (unaveraged) data.
func averagingSeconds(hours float64) int {
	switch {
	case hours > 12 && hours < 36:
		return 300
	case hours > 36 && hours < 745:
		return 3600
	case hours > 745:
		return 86400
	default:
		return 0
	}
}

// formatDate renders t in the backend's query date format.
func formatDate(t time.Time) string {
	return t.Format("2006-01-02-15-04-05")
}

// DecodeDayCount converts the backend's day-count date encoding to wall
// clock time: day count 25569 is the Unix epoch.
func DecodeDayCount(dayCount float64) time.Time {
	ms := (dayCount - unixDayCount) * 86400 * 1000
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}
