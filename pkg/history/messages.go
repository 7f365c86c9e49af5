package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tejusbharadwaj/sensorbridge/pkg/models"
)

// Messages returns the sensor's log events strictly inside (from, to).
// Events whose decoded time equals either bound are excluded; the window
// is exclusive on both ends.
func (s *Service) Messages(ctx context.Context, from, to time.Time, sensorID int64) ([]models.MessageEvent, error) {
	params := fmt.Sprintf(
		"content=messages&columns=objid,datetime_raw,parent,type,name,status,message&id=%d&count=9999",
		sensorID,
	)

	raw, err := s.client.Request(ctx, "table.json", params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []models.MessageEvent{}, nil
	}

	var records []models.MessageRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding message records: %w", err)
	}

	events := make([]models.MessageEvent, 0, len(records))
	for _, rec := range records {
		t := DecodeDayCount(rec.DateTime)
		if !t.After(from) || !t.Before(to) {
			continue
		}

		events = append(events, models.MessageEvent{
			Time:  t,
			Title: rec.Status,
			Text:  fmt.Sprintf("%s (%s): %s", rec.Parent, rec.Type, rec.Message),
		})
	}

	return events, nil
}
