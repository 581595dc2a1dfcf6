package datasource

import (
	"time"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

func getIntervalMinutes(interval Interval) (int, error) {
	var intervalMinutes int

	switch interval {
	case Interval1m:
		intervalMinutes = 1
	case Interval3m:
		intervalMinutes = 3
	case Interval5m:
		intervalMinutes = 5
	case Interval15m:
		intervalMinutes = 15
	case Interval30m:
		intervalMinutes = 30
	case Interval1h:
		intervalMinutes = 60
	case Interval4h:
		intervalMinutes = 240
	case Interval1d:
		intervalMinutes = 1440
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval: %s", interval)
	}

	return intervalMinutes, nil
}

// IntervalDuration returns the length of one candle of interval.
func IntervalDuration(interval Interval) (time.Duration, error) {
	minutes, err := getIntervalMinutes(interval)
	if err != nil {
		return 0, err
	}

	return time.Duration(minutes) * time.Minute, nil
}
