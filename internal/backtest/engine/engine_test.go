package engine

import (
	"testing"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackType() {
	var callback OnProcessDataCallback = func(current int, total int) error {
		return nil
	}

	suite.NotNil(callback)
	err := callback(1, 10)
	suite.NoError(err)
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestOnRunEndCallbackReceivesStats() {
	var received types.SessionStats

	callback := OnRunEndCallback(func(symbol string, dataFilePath string, resultFolderPath string, stats types.SessionStats) {
		received = stats
	})

	callbacks := LifecycleCallbacks{
		OnBacktestStart: nil,
		OnBacktestEnd:   nil,
		OnRunStart:      nil,
		OnRunEnd:        &callback,
		OnProcessData:   nil,
		OnSignalUpdate:  nil,
	}

	(*callbacks.OnRunEnd)("BTCUSDT", "tape.parquet", "results/tape/BTCUSDT", types.SessionStats{ID: "run-1"})
	suite.Equal("run-1", received.ID)
}
