package models

/*
Job status and queue constants for background retraining.
Centralizing these avoids magic strings across the client and the worker.
*/

// Job status constants
const (
	JobStatusEnqueued  = "enqueued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Queue names
const (
	QueueTraining = "training"
	QueueDefault  = "default"
)
