package domain

import "errors"

var (
	// ErrAuth means the provider rejected our credential. Never retried.
	ErrAuth = errors.New("weather provider: invalid credential")
	// ErrLocationNotFound means the provider does not know the location.
	ErrLocationNotFound = errors.New("weather provider: location not found")
	// ErrNoData is returned once transient failures exhaust the retry budget.
	ErrNoData = errors.New("weather provider: no data")
	// ErrShortForecast means the payload had fewer samples than SampleCount.
	ErrShortForecast = errors.New("weather provider: short forecast")

	ErrInvalidClock = errors.New("invalid time, expected HH:MM between 00:00 and 23:59")
	ErrRender       = errors.New("render failed")
)
