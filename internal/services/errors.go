package services

import "errors"

// Dashboard service errors
var (
	ErrDatasetNotLoaded  = errors.New("dataset not loaded")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
