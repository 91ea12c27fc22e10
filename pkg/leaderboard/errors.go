package leaderboard

import "errors"

var (
	// ErrUnknownMetric marks client input naming a metric that does not exist
	// in the requested scope. Surfaced as a 4xx by the web layer.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrInvalidWindow marks negative top/side window sizes.
	ErrInvalidWindow = errors.New("invalid leaderboard window")
)
