package datasource

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DatasourceUtilsTestSuite struct {
	suite.Suite
}

func TestDatasourceUtilsSuite(t *testing.T) {
	suite.Run(t, new(DatasourceUtilsTestSuite))
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutes() {
	tests := []struct {
		interval        Interval
		expectedMinutes int
	}{
		{Interval1m, 1},
		{Interval3m, 3},
		{Interval5m, 5},
		{Interval15m, 15},
		{Interval30m, 30},
		{Interval1h, 60},
		{Interval4h, 240},
		{Interval1d, 1440},
	}

	for _, tc := range tests {
		suite.Run(string(tc.interval), func() {
			minutes, err := getIntervalMinutes(tc.interval)
			suite.NoError(err)
			suite.Equal(tc.expectedMinutes, minutes)
		})
	}
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutesUnsupportedInterval() {
	for _, interval := range []Interval{"2m", "1w", ""} {
		suite.Run(string(interval), func() {
			_, err := getIntervalMinutes(interval)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
		})
	}
}

func (suite *DatasourceUtilsTestSuite) TestIntervalDuration() {
	d, err := IntervalDuration(Interval15m)
	suite.NoError(err)
	suite.Equal(15*time.Minute, d)

	_, err = IntervalDuration("7m")
	suite.Error(err)
}
