package tasks

// Defines constants for task types used in Asynq.

const (
	// TypeRetrainModels rebuilds the category and resolution-time models
	// from ticket history and persists them.
	TypeRetrainModels = "models:retrain"
)
