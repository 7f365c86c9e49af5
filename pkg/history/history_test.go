package history

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuerier plays the role of the dispatcher: it records the last query
// and returns a canned normalized payload.
type stubQuerier struct {
	lastMethod string
	lastParams string
	calls      int
	raw        json.RawMessage
	err        error
}

func (s *stubQuerier) Request(_ context.Context, method, params string) (json.RawMessage, error) {
	s.calls++
	s.lastMethod = method
	s.lastParams = params
	return s.raw, s.err
}

func newTestService(q Querier) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(q, logger)
}

func TestAveragingSeconds(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		want  int
	}{
		{name: "short span is raw", hours: 6, want: 0},
		{name: "exactly 12h falls through to raw", hours: 12, want: 0},
		{name: "just past 12h averages at 300s", hours: 12.0001, want: 300},
		{name: "day-scale span", hours: 24, want: 300},
		{name: "exactly 36h falls through to raw", hours: 36, want: 0},
		{name: "just past 36h averages at 3600s", hours: 36.0001, want: 3600},
		{name: "month-scale span", hours: 400, want: 3600},
		{name: "exactly 745h falls through to raw", hours: 745, want: 0},
		{name: "just past 745h averages at 86400s", hours: 745.0001, want: 86400},
		{name: "year-scale span", hours: 9000, want: 86400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, averagingSeconds(tt.hours))
		})
	}
}

func TestDecodeDayCount(t *testing.T) {
	tests := []struct {
		name     string
		dayCount float64
		want     time.Time
	}{
		{name: "unix epoch", dayCount: 25569, want: time.UnixMilli(0).UTC()},
		{name: "one day later", dayCount: 25570, want: time.UnixMilli(86400000).UTC()},
		{name: "fractional day", dayCount: 25569.5, want: time.UnixMilli(43200000).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeDayCount(tt.dayCount))
		})
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 5, 2, 0, time.UTC)
	assert.Equal(t, "2024-03-07-09-05-02", formatDate(ts))
}

func TestGetBuildsAveragedQuery(t *testing.T) {
	q := &stubQuerier{raw: json.RawMessage(`[]`)}
	svc := newTestService(q)

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	_, err := svc.Get(context.Background(), 202, "Traffic In", from, to)
	require.NoError(t, err)

	assert.Equal(t, "table.json", q.lastMethod)
	assert.Contains(t, q.lastParams, "id=202")
	assert.Contains(t, q.lastParams, "sdate=2024-03-01-00-00-00")
	assert.Contains(t, q.lastParams, "edate=2024-03-02-00-00-00")
	assert.Contains(t, q.lastParams, "avg=300")
}

func TestGetDecodesRecords(t *testing.T) {
	q := &stubQuerier{raw: json.RawMessage(`[
		{"datetime_raw":25570,"value_raw":[{"channel":"Traffic In","value":12.5}]},
		{"datetime_raw":25570.5,"value_raw":{"channel":"Traffic In","value":20}}
	]`)}
	svc := newTestService(q)

	points, err := svc.Get(context.Background(), 202, "Traffic In",
		time.UnixMilli(0), time.UnixMilli(0).Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, points, 2)

	assert.Equal(t, int64(202), points[0].Sensor)
	assert.Equal(t, "Traffic In", points[0].Channel)
	assert.Equal(t, time.UnixMilli(86400000).UTC(), points[0].Time)
	require.NotNil(t, points[0].Value)
	assert.Equal(t, 12.5, *points[0].Value)

	// Second record used the bare-object value_raw form.
	require.NotNil(t, points[1].Value)
	assert.Equal(t, 20.0, *points[1].Value)
}

func TestChannelDisambiguationLastMatchWins(t *testing.T) {
	// Two labels match the request: the exact name and its "(speed)"
	// variant. The later one wins. This pins down observed behavior; it is
	// not a statement that the speed reading is the right pick.
	q := &stubQuerier{raw: json.RawMessage(`[
		{"datetime_raw":25570,"value_raw":[
			{"channel":"Traffic In","value":1},
			{"channel":"Traffic In (speed)","value":2},
			{"channel":"Traffic Out","value":3}
		]}
	]`)}
	svc := newTestService(q)

	points, err := svc.Get(context.Background(), 202, "Traffic In",
		time.UnixMilli(0), time.UnixMilli(0).Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, points, 1)
	require.NotNil(t, points[0].Value)
	assert.Equal(t, 2.0, *points[0].Value)
}

func TestMissingValueIsGap(t *testing.T) {
	q := &stubQuerier{raw: json.RawMessage(`[
		{"datetime_raw":25570},
		{"datetime_raw":25570.5,"value_raw":[{"channel":"Other","value":9}]}
	]`)}
	svc := newTestService(q)

	points, err := svc.Get(context.Background(), 202, "Traffic In",
		time.UnixMilli(0), time.UnixMilli(0).Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Nil(t, points[0].Value, "record without value_raw is a gap")
	assert.Nil(t, points[1].Value, "record without a matching channel is a gap")
}

func TestNoHistoryContainerIsEmptyNotError(t *testing.T) {
	q := &stubQuerier{raw: nil}
	svc := newTestService(q)

	points, err := svc.Get(context.Background(), 202, "Traffic In",
		time.UnixMilli(0), time.UnixMilli(0).Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestStatusChannelBypassesHistory(t *testing.T) {
	q := &stubQuerier{raw: json.RawMessage(`{"name":"Ping","statusid":"3","statustext":"Up"}`)}
	svc := newTestService(q)

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	points, err := svc.Get(context.Background(), 201, StatusChannel,
		time.UnixMilli(0), time.UnixMilli(0).Add(100*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, q.calls)
	assert.Equal(t, "getsensordetails.json", q.lastMethod)
	assert.Equal(t, "id=201", q.lastParams)

	require.Len(t, points, 1)
	assert.Equal(t, StatusChannel, points[0].Channel)
	assert.Equal(t, now, points[0].Time)
	require.NotNil(t, points[0].Value)
	assert.Equal(t, 3.0, *points[0].Value)
}
