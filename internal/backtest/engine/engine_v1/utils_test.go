package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

// UtilsTestSuite is a test suite for utils package
type UtilsTestSuite struct {
	suite.Suite
}

// TestUtilsSuite runs the test suite
func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestGetResultFolder() {
	tests := []struct {
		name          string
		dataPath      string
		symbol        string
		resultsFolder string
		startTime     optional.Option[time.Time]
		endTime       optional.Option[time.Time]
		expectedPath  string
	}{
		{
			name:          "Basic case without time range",
			dataPath:      "/path/to/tape.parquet",
			symbol:        "BTCUSDT",
			resultsFolder: "/results",
			startTime:     optional.None[time.Time](),
			endTime:       optional.None[time.Time](),
			expectedPath:  "/results/tape/BTCUSDT",
		},
		{
			name:          "Case with time range",
			dataPath:      "/path/to/tape.parquet",
			symbol:        "BTCUSDT",
			resultsFolder: "/results",
			startTime:     optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			endTime:       optional.Some(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			expectedPath:  "/results/20230101_20231231/tape/BTCUSDT",
		},
		{
			name:          "Case with only start time",
			dataPath:      "/path/to/tape.parquet",
			symbol:        "ETHUSDT",
			resultsFolder: "/results",
			startTime:     optional.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
			endTime:       optional.None[time.Time](),
			expectedPath:  "/results/20230101_all/tape/ETHUSDT",
		},
		{
			name:          "Case with only end time",
			dataPath:      "/path/to/tape.csv",
			symbol:        "ETHUSDT",
			resultsFolder: "/results",
			startTime:     optional.None[time.Time](),
			endTime:       optional.Some(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
			expectedPath:  "/results/all_20231231/tape/ETHUSDT",
		},
		{
			name:          "Case with complex file names",
			dataPath:      "/path/to/btc.trades.2024.parquet",
			symbol:        "BTCUSDT",
			resultsFolder: "/results",
			startTime:     optional.None[time.Time](),
			endTime:       optional.None[time.Time](),
			expectedPath:  "/results/btc.trades.2024/BTCUSDT",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			config.StartTime = tc.startTime
			config.EndTime = tc.endTime

			mockEngine := &BacktestEngineV1{
				config:        config,
				resultsFolder: tc.resultsFolder,
			}

			resultPath := getResultFolder(tc.dataPath, tc.symbol, mockEngine)

			suite.Equal(filepath.Clean(tc.expectedPath), filepath.Clean(resultPath), "Result folder path mismatch")
		})
	}
}

func (suite *UtilsTestSuite) TestWriteYAML() {
	path := filepath.Join(suite.T().TempDir(), "balance.yaml")
	points := []BalancePoint{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Balance: 1000},
		{Time: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), Balance: 1001.5},
	}

	suite.Require().NoError(writeYAML(path, points))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var decoded []BalancePoint
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Equal(points, decoded)
}
