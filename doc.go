// Package sensorbridge turns a monitoring platform's object hierarchy
// (group, device, sensor, channel) and its time-series history into a
// uniform, filterable, cacheable data-access API for visualization hosts.
//
// # Architecture
//
// The library is structured into several key packages:
//   - api: request dispatcher with TTL caching and response normalization
//   - cache: TTL response cache over request identities
//   - filter: literal-set and regex matching of hierarchy items
//   - resolve: cascading group/device/sensor/channel resolution
//   - history: channel history and sensor log retrieval
//   - config: YAML configuration loading
//   - models: shared data structures
//
// Key Features
//
//   - Cached discovery:
//     Repeated identical queries within the TTL window never reach the
//     network; each resolution stage issues a single upstream request.
//
//   - History normalization:
//     The averaging resolution is selected from the requested span, the
//     backend's day-count date encoding is converted to wall-clock time,
//     and same-named channels inside one record are disambiguated.
//
// Example Usage
//
//	client, _ := api.NewClient(cfg, api.NewHTTPTransport(30*time.Second), logger)
//	resolver := resolve.New(client, logger)
//	channels, err := resolver.Channels(ctx, "{DC1,DC2}", "/web.*/", "/.*/", "{Downtime}", true)
//
// For more information about specific packages, see their respective
// documentation.
package sensorbridge
