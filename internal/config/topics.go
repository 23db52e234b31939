package config

const (
	// TopicIngestMaterial is the NSQ topic for study-material ingestion tasks.
	TopicIngestMaterial = "ingest.task"

	// ChannelIngestWorker is the consumer channel of the ingest worker.
	ChannelIngestWorker = "ingest_worker"
)
