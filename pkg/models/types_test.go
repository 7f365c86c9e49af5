package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelValuesDecodesArrayAndObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ChannelValues
	}{
		{
			name:  "array form",
			input: `[{"channel":"Traffic In","value":1},{"channel":"Traffic Out","value":2}]`,
			want: ChannelValues{
				{Channel: "Traffic In", Value: 1},
				{Channel: "Traffic Out", Value: 2},
			},
		},
		{
			name:  "bare object form",
			input: `{"channel":"Downtime","value":0}`,
			want:  ChannelValues{{Channel: "Downtime", Value: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ChannelValues
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistoryRecordDecode(t *testing.T) {
	var rec HistoryRecord
	err := json.Unmarshal([]byte(`{"datetime_raw":25570.25,"value_raw":[{"channel":"Ping Time","value":42}]}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, 25570.25, rec.DateTime)
	require.Len(t, rec.Values, 1)
	assert.Equal(t, "Ping Time", rec.Values[0].Channel)
}

func TestSensorDetailsDecodesStringStatusID(t *testing.T) {
	var details SensorDetails
	err := json.Unmarshal([]byte(`{"name":"Ping","sensortype":"ping","statusid":"13","statustext":"Down Acknowledged"}`), &details)
	require.NoError(t, err)

	assert.Equal(t, int64(13), details.StatusID)
	assert.Equal(t, "Down Acknowledged", details.StatusText)
}
