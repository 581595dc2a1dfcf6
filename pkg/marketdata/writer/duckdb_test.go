package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBTapeWriterTestSuite struct {
	suite.Suite
	tempDir string
	log     *logger.Logger
}

func TestDuckDBTapeWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTapeWriterTestSuite))
}

func (suite *DuckDBTapeWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.log = logger.NewNopLogger()
}

func (suite *DuckDBTapeWriterTestSuite) newWriter(name string) *DuckDBTapeWriter {
	w, ok := NewDuckDBTapeWriter(filepath.Join(suite.tempDir, name), suite.log).(*DuckDBTapeWriter)
	suite.Require().True(ok)

	return w
}

func (suite *DuckDBTapeWriterTestSuite) TestNewDuckDBTapeWriter() {
	w := suite.newWriter("new.parquet")

	suite.Equal(filepath.Join(suite.tempDir, "new.parquet"), w.GetOutputPath())
	suite.Nil(w.db)
	suite.Nil(w.tx)
	suite.Nil(w.stmt)
}

func (suite *DuckDBTapeWriterTestSuite) TestInitialize() {
	w := suite.newWriter("init.parquet")
	defer w.Close()

	suite.Require().NoError(w.Initialize())
	suite.NotNil(w.db)
	suite.NotNil(w.tx)
	suite.NotNil(w.stmt)
}

func (suite *DuckDBTapeWriterTestSuite) TestWriteBeforeInitialize() {
	w := suite.newWriter("uninit.parquet")

	err := w.Write(types.Tick{Symbol: "BTCUSDT", Time: time.Now(), Price: 1, Quantity: 1})
	suite.Error(err)

	_, err = w.Finalize()
	suite.Error(err)
}

func (suite *DuckDBTapeWriterTestSuite) TestWriteAndFinalize() {
	w := suite.newWriter("BTCUSDT.parquet")
	defer w.Close()

	suite.Require().NoError(w.Initialize())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []types.Tick{
		{Symbol: "BTCUSDT", Time: start.Add(2 * time.Second), Price: 42010.5, Quantity: 0.2},
		{Symbol: "BTCUSDT", Time: start, Price: 42000, Quantity: 0.5},
		{Symbol: "BTCUSDT", Time: start.Add(time.Second), Price: 42005.25, Quantity: 1.25},
	}

	for _, tick := range ticks {
		suite.Require().NoError(w.Write(tick))
	}

	path, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Equal(w.GetOutputPath(), path)

	_, err = os.Stat(path)
	suite.Require().NoError(err)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`SELECT time, symbol, price, quantity FROM read_parquet('%s')`, path))
	suite.Require().NoError(err)
	defer rows.Close()

	var got []types.Tick

	for rows.Next() {
		var tick types.Tick
		suite.Require().NoError(rows.Scan(&tick.Time, &tick.Symbol, &tick.Price, &tick.Quantity))
		tick.Time = tick.Time.UTC()
		got = append(got, tick)
	}

	suite.Require().NoError(rows.Err())
	suite.Require().Len(got, 3)

	suite.Equal(start, got[0].Time)
	suite.Equal(42000.0, got[0].Price)
	suite.Equal(start.Add(time.Second), got[1].Time)
	suite.Equal(1.25, got[1].Quantity)
	suite.Equal(start.Add(2*time.Second), got[2].Time)
	suite.Equal("BTCUSDT", got[2].Symbol)
}

func (suite *DuckDBTapeWriterTestSuite) TestFinalizeTwice() {
	w := suite.newWriter("twice.parquet")
	defer w.Close()

	suite.Require().NoError(w.Initialize())

	_, err := w.Finalize()
	suite.Require().NoError(err)

	_, err = w.Finalize()
	suite.Error(err)
}

func (suite *DuckDBTapeWriterTestSuite) TestCloseWithoutFinalize() {
	w := suite.newWriter("abandoned.parquet")

	suite.Require().NoError(w.Initialize())
	suite.Require().NoError(w.Write(types.Tick{Symbol: "ETHUSDT", Time: time.Now(), Price: 2200, Quantity: 3}))

	suite.NoError(w.Close())
	suite.Nil(w.db)
	suite.Nil(w.tx)

	_, err := os.Stat(w.GetOutputPath())
	suite.True(os.IsNotExist(err))

	suite.NoError(w.Close())
}
