package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/sensorbridge/pkg/api"
	"github.com/tejusbharadwaj/sensorbridge/pkg/config"
	"github.com/tejusbharadwaj/sensorbridge/pkg/history"
	"github.com/tejusbharadwaj/sensorbridge/pkg/resolve"
)

// Command sensorbridge resolves the monitoring backend's object hierarchy
// from the command line and optionally pulls channel history, printing
// results as JSON. It exists mainly to exercise the library end to end
// against a live backend.
//
// Usage:
//
//	sensorbridge [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-groups/-devices/-sensors/-channels string
//	      filter specs, literal sets ("{a,b}") or regexes ("/web.*/")
//	-invert-channels
//	      exclude matching channels instead of selecting them
//	-since duration
//	      also fetch history for each resolved channel (0 disables)
//	-messages
//	      also fetch sensor log events inside the -since window
func main() {
	cfg := parseFlags()

	appConfig, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	if appConfig.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(appConfig.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	transport := api.NewHTTPTransport(time.Duration(appConfig.API.TimeoutSeconds) * time.Second)

	clientConfig := api.DefaultClientConfig()
	clientConfig.BaseURL = appConfig.API.BaseURL
	clientConfig.Username = appConfig.API.Username
	clientConfig.Passhash = appConfig.API.Passhash
	clientConfig.CacheTTL = time.Duration(appConfig.Cache.TTLMinutes) * time.Minute
	clientConfig.CacheSize = appConfig.Cache.Size
	clientConfig.RateLimit = appConfig.API.RateLimit
	clientConfig.RateLimitBurst = appConfig.API.RateLimitBurst

	client, err := api.NewClient(clientConfig, transport, logger)
	if err != nil {
		logger.Fatalf("Failed to create client: %v", err)
	}

	api.RegisterMetrics(prometheus.DefaultRegisterer)

	ctx := context.Background()

	version, err := client.APIVersion(ctx)
	if err != nil {
		logger.Fatalf("Backend unreachable: %v", err)
	}
	logger.WithField("version", version).Info("Connected to backend")

	resolver := resolve.New(client, logger)

	channels, err := resolver.Channels(ctx,
		cfg.GroupFilter, cfg.DeviceFilter, cfg.SensorFilter,
		cfg.ChannelFilter, cfg.InvertChannels,
	)
	if err != nil {
		logger.Fatalf("Resolution failed: %v", err)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	if err := out.Encode(channels); err != nil {
		logger.Fatalf("Failed to encode channels: %v", err)
	}

	if cfg.Since <= 0 {
		return
	}

	svc := history.New(client, logger)
	to := time.Now()
	from := to.Add(-cfg.Since)

	for _, ch := range channels {
		points, err := svc.Get(ctx, ch.SensorID, ch.Name, from, to)
		if err != nil {
			logger.Fatalf("History fetch failed for sensor %d channel %q: %v", ch.SensorID, ch.Name, err)
		}
		if err := out.Encode(points); err != nil {
			logger.Fatalf("Failed to encode history: %v", err)
		}

		if cfg.Messages {
			events, err := svc.Messages(ctx, from, to, ch.SensorID)
			if err != nil {
				logger.Fatalf("Message fetch failed for sensor %d: %v", ch.SensorID, err)
			}
			if err := out.Encode(events); err != nil {
				logger.Fatalf("Failed to encode messages: %v", err)
			}
		}
	}
}

type Config struct {
	ConfigPath     string
	GroupFilter    string
	DeviceFilter   string
	SensorFilter   string
	ChannelFilter  string
	InvertChannels bool
	Since          time.Duration
	Messages       bool
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.ConfigPath, "config", "config.yaml", "path to config file")
	flag.StringVar(&cfg.GroupFilter, "groups", "/.*/", "group filter spec")
	flag.StringVar(&cfg.DeviceFilter, "devices", "/.*/", "device filter spec")
	flag.StringVar(&cfg.SensorFilter, "sensors", "/.*/", "sensor filter spec")
	flag.StringVar(&cfg.ChannelFilter, "channels", "/.*/", "channel filter spec")
	flag.BoolVar(&cfg.InvertChannels, "invert-channels", false, "exclude matching channels")
	flag.DurationVar(&cfg.Since, "since", 0, "fetch history this far back (0 disables)")
	flag.BoolVar(&cfg.Messages, "messages", false, "also fetch sensor log events")

	flag.Parse()

	return cfg
}
