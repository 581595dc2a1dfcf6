package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/stretchr/testify/suite"
)

type SessionManagerTestSuite struct {
	suite.Suite
	tempDir string
	logger  *logger.Logger
	start   time.Time
}

func (s *SessionManagerTestSuite) SetupSuite() {
	s.logger = logger.NewNopLogger()
	s.start = time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
}

func (s *SessionManagerTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
}

func TestSessionManagerTestSuite(t *testing.T) {
	suite.Run(t, new(SessionManagerTestSuite))
}

func (s *SessionManagerTestSuite) mkdirs(date string, names ...string) {
	for _, name := range names {
		s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, date, name), 0755))
	}
}

func (s *SessionManagerTestSuite) TestInitialize_FirstRun() {
	sm := NewSessionManager(s.tempDir, s.logger)

	s.Require().NoError(sm.Initialize(s.start))

	s.Equal("run_1", sm.RunName())
	s.Equal(1, sm.RunNumber())
	s.Equal(s.start, sm.SessionStart())
	s.Equal(filepath.Join(s.tempDir, "2024-03-09", "run_1"), sm.RunPath())
	s.DirExists(sm.RunPath())
}

func (s *SessionManagerTestSuite) TestInitialize_NextRunNumber() {
	tests := []struct {
		name     string
		existing []string
		expected string
	}{
		{name: "second run", existing: []string{"run_1"}, expected: "run_2"},
		{name: "non sequential", existing: []string{"run_1", "run_3", "run_7"}, expected: "run_8"},
		{name: "double digits", existing: []string{"run_9", "run_10", "run_2"}, expected: "run_11"},
		{name: "ignores other folders", existing: []string{"run_2", "backup", "run_x"}, expected: "run_3"},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.tempDir = s.T().TempDir()
			s.mkdirs("2024-03-09", tc.existing...)

			sm := NewSessionManager(s.tempDir, s.logger)
			s.Require().NoError(sm.Initialize(s.start))
			s.Equal(tc.expected, sm.RunName())
		})
	}
}

func (s *SessionManagerTestSuite) TestInitialize_UsesUTCDate() {
	sm := NewSessionManager(s.tempDir, s.logger)

	start := time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	s.Require().NoError(sm.Initialize(start))

	s.Equal(filepath.Join(s.tempDir, "2024-03-09", "run_1"), sm.RunPath())
}

func (s *SessionManagerTestSuite) TestInitialize_OutputIsAFile() {
	path := filepath.Join(s.tempDir, "output")
	s.Require().NoError(os.WriteFile(path, []byte("x"), 0644))

	sm := NewSessionManager(path, s.logger)
	s.Error(sm.Initialize(s.start))
	s.Empty(sm.RunPath())
}

func (s *SessionManagerTestSuite) TestFilePath() {
	sm := NewSessionManager(s.tempDir, s.logger)
	s.Require().NoError(sm.Initialize(s.start))

	s.Equal(filepath.Join(s.tempDir, "2024-03-09", "run_1", "stats.yaml"), sm.FilePath("stats.yaml"))
}

func (s *SessionManagerTestSuite) TestListRuns() {
	s.mkdirs("2024-03-09", "run_3", "run_1", "run_12")
	s.Require().NoError(os.WriteFile(filepath.Join(s.tempDir, "2024-03-09", "run_4"), nil, 0644))

	sm := NewSessionManager(s.tempDir, s.logger)

	runs, err := sm.ListRuns("2024-03-09")
	s.Require().NoError(err)
	s.Equal([]string{"run_1", "run_3", "run_12"}, runs)

	runs, err = sm.ListRuns("2024-03-10")
	s.Require().NoError(err)
	s.Empty(runs)
}

func (s *SessionManagerTestSuite) TestDates() {
	s.mkdirs("2024-03-10", "run_1")
	s.mkdirs("2024-03-09", "run_1")
	s.mkdirs("latest")

	sm := NewSessionManager(s.tempDir, s.logger)

	dates, err := sm.Dates()
	s.Require().NoError(err)
	s.Equal([]string{"2024-03-09", "2024-03-10"}, dates)

	dates, err = NewSessionManager(filepath.Join(s.tempDir, "missing"), s.logger).Dates()
	s.Require().NoError(err)
	s.Empty(dates)
}

func (s *SessionManagerTestSuite) TestConcurrentAccess() {
	sm := NewSessionManager(s.tempDir, s.logger)
	s.Require().NoError(sm.Initialize(s.start))

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_ = sm.RunPath()
			_ = sm.RunName()
			_ = sm.FilePath(fmt.Sprintf("file_%d.yaml", i))
		}(i)
	}

	wg.Wait()
}
