package scrape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricListingPages tracks listing pages successfully processed.
	metricListingPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_listing_pages_total",
		Help: "The total number of listing pages successfully processed.",
	})
	// metricRecordsWritten tracks detail records handed to the sink.
	metricRecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_records_written_total",
		Help: "The total number of detail records written to the sink.",
	})
	// metricRetryAttempts tracks backoff-then-retry cycles.
	metricRetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_retry_attempts_total",
		Help: "The total number of retried fetch-and-extract attempts.",
	})
	// metricChallengeHits tracks anti-bot interstitials encountered.
	metricChallengeHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_challenge_hits_total",
		Help: "The total number of challenge pages served instead of content.",
	})
	// metricTerminalFailures tracks addresses abandoned after exhausting retries.
	metricTerminalFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_terminal_failures_total",
		Help: "The total number of addresses that exhausted their retry budget.",
	})
)
