// Package resolve narrows the monitored-object hierarchy level by level:
// groups, then devices, then sensors, then channels. Each level's accepted
// names become query constraints for the next, so a full resolution costs
// one discovery request per level plus one channel request per resolved
// sensor.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tejusbharadwaj/sensorbridge/pkg/filter"
	"github.com/tejusbharadwaj/sensorbridge/pkg/models"
)

// Querier is the slice of the API client the resolver needs.
type Querier interface {
	Request(ctx context.Context, method, params string) (json.RawMessage, error)
}

const tableMethod = "table.json"

// Resolver runs the four-stage cascade. A failure at any stage aborts the
// whole resolution; no partial results are returned.
type Resolver struct {
	client Querier
	logger *logrus.Logger
}

func New(client Querier, logger *logrus.Logger) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// Groups returns all groups accepted by groupFilter.
func (r *Resolver) Groups(ctx context.Context, groupFilter string) ([]models.HierarchyItem, error) {
	spec, err := filter.Parse(groupFilter)
	if err != nil {
		return nil, err
	}

	items, err := r.table(ctx, "content=groups&columns=objid,group,tags,active,status,message_raw&count=9999")
	if err != nil {
		return nil, err
	}

	return filter.Apply(items, spec, false), nil
}

// Devices resolves groups first and returns the devices inside them that
// deviceFilter accepts. The device query carries one constraint clause per
// resolved group, so the whole stage is a single upstream request.
func (r *Resolver) Devices(ctx context.Context, groupFilter, deviceFilter string) ([]models.HierarchyItem, error) {
	spec, err := filter.Parse(deviceFilter)
	if err != nil {
		return nil, err
	}

	groups, err := r.Groups(ctx, groupFilter)
	if err != nil {
		return nil, err
	}

	params := "content=devices&columns=objid,device,group,tags,active,status,message_raw&count=9999" +
		constraints("filter_group", groups, func(it models.HierarchyItem) string { return it.Group })

	items, err := r.table(ctx, params)
	if err != nil {
		return nil, err
	}

	return filter.Apply(items, spec, false), nil
}

// Sensors resolves devices first and returns the sensors on them that
// sensorFilter accepts.
func (r *Resolver) Sensors(ctx context.Context, groupFilter, deviceFilter, sensorFilter string) ([]models.HierarchyItem, error) {
	spec, err := filter.Parse(sensorFilter)
	if err != nil {
		return nil, err
	}

	devices, err := r.Devices(ctx, groupFilter, deviceFilter)
	if err != nil {
		return nil, err
	}

	params := "content=sensors&columns=objid,sensor,device,group,tags,active,status,message_raw&count=9999" +
		constraints("filter_device", devices, func(it models.HierarchyItem) string { return it.Device })

	items, err := r.table(ctx, params)
	if err != nil {
		return nil, err
	}

	return filter.Apply(items, spec, false), nil
}

// Channels resolves sensors first, enumerates every resolved sensor's
// channels, and filters the flattened candidates with channelFilter.
// Inversion is exposed only at this level; excluding channels (say,
// everything except Downtime) is the common use case.
func (r *Resolver) Channels(ctx context.Context, groupFilter, deviceFilter, sensorFilter, channelFilter string, invert bool) ([]models.HierarchyItem, error) {
	spec, err := filter.Parse(channelFilter)
	if err != nil {
		return nil, err
	}

	sensors, err := r.Sensors(ctx, groupFilter, deviceFilter, sensorFilter)
	if err != nil {
		return nil, err
	}

	candidates, err := r.enumerateChannels(ctx, sensors)
	if err != nil {
		return nil, err
	}

	return filter.Apply(candidates, spec, invert), nil
}

// enumerateChannels fetches each sensor's channel list and annotates every
// channel with its resolved sensor, device and group context. Sibling
// sensors are fetched concurrently; the first failure cancels the rest and
// nothing partial is returned.
func (r *Resolver) enumerateChannels(ctx context.Context, sensors []models.HierarchyItem) ([]models.HierarchyItem, error) {
	perSensor := make([][]models.HierarchyItem, len(sensors))

	g, ctx := errgroup.WithContext(ctx)
	for i, sensor := range sensors {
		i, sensor := i, sensor
		g.Go(func() error {
			params := fmt.Sprintf("content=channels&columns=objid,channel,name&id=%d", sensor.ObjID)
			channels, err := r.table(ctx, params)
			if err != nil {
				return fmt.Errorf("channels of sensor %d: %w", sensor.ObjID, err)
			}

			for j := range channels {
				channels[j].SensorID = sensor.ObjID
				channels[j].Sensor = sensor.Sensor
				channels[j].Device = sensor.Device
				channels[j].Group = sensor.Group
				channels[j].Channel = channels[j].Name
			}
			perSensor[i] = channels

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []models.HierarchyItem
	for _, channels := range perSensor {
		flat = append(flat, channels...)
	}

	r.logger.WithFields(logrus.Fields{
		"sensors":  len(sensors),
		"channels": len(flat),
	}).Debug("channel enumeration complete")

	return flat, nil
}

// table runs one hierarchy table query and decodes the normalized rows.
// An empty normalized payload decodes to no rows, which is valid.
func (r *Resolver) table(ctx context.Context, params string) ([]models.HierarchyItem, error) {
	raw, err := r.client.Request(ctx, tableMethod, params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var items []models.HierarchyItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding table rows: %w", err)
	}

	return items, nil
}

// constraints joins one filter clause per parent item into a single query
// fragment, keeping the request count per stage at one.
func constraints(field string, parents []models.HierarchyItem, name func(models.HierarchyItem) string) string {
	var b strings.Builder
	for _, parent := range parents {
		b.WriteString("&" + field + "=" + url.QueryEscape(name(parent)))
	}
	return b.String()
}
