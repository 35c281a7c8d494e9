package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"

	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

var (
	// It is safe to use one Client from multiple goroutines simultaneously
	statsDClient *statsd.Client = getDefaultClient()

	samplingRate float64 = 1.0
)

// Init connects the statsd client to the given agent address with env/service tags.
func Init(address, env, service string) {
	client, err := statsd.New(
		address,
		statsd.WithTags([]string{"env:" + env, "service:" + service}),
	)
	if err != nil {
		// In local environments no statsd agent may be running; log and keep
		// the no-op-safe default client instead of failing startup.
		logger.Error("StatsD client initialization failed, metrics will be unavailable", err)
		return
	}
	statsDClient = client
	logger.Info(fmt.Sprintf("Metrics client initialized with statsd address - %s", address))
}

func getDefaultClient() *statsd.Client {
	client, err := statsd.New("localhost:8125")
	if err != nil {
		client, _ = statsd.New("localhost:8125", statsd.WithoutTelemetry())
	}
	return client
}

func Timing(name string, value time.Duration, tags []string) {
	if err := statsDClient.Timing(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd timing", err)
	}
}

func Count(name string, value int64, tags []string) {
	if err := statsDClient.Count(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd count", err)
	}
}
