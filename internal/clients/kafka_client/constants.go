package kafka_client

import "time"

const KAFKA_TOPIC_ANALYSIS_RESULTS = "analysis-results" // persisted analyses for the timeline archiver

const (
	MAX_RETRIES       = 5
	RETRY_DELAY       = 2 * time.Second
	POLL_TIMEOUT      = time.Second
	PRODUCE_RETRIES   = 3
	FLUSH_TIMEOUT_MS  = 5000
	DEFAULT_KAFKA_URL = "localhost:29092"
)
