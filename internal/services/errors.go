package services

import "errors"

var (
	// ErrNoData means the current selection left nothing to aggregate or render.
	ErrNoData = errors.New("no data for the current selection")
	// ErrBadSelection means the filter query could not be parsed.
	ErrBadSelection = errors.New("invalid selection")
	// ErrInvalidInput means a prediction input is outside the form bounds.
	ErrInvalidInput = errors.New("invalid prediction input")
)
