package models

import (
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation error")

	ErrTrainingFailed   = errors.New("model training failed")
	ErrModelsNotFound   = errors.New("persisted models not found")
	ErrModelUnavailable = errors.New("models are not trained")
)
