package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var (
	runPattern  = regexp.MustCompile(`^run_(\d+)$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// SessionManager owns the output folder of a live session:
//
//	{outputPath}/{YYYY-MM-DD}/run_N/
//
// N counts the sessions started on the same date.
type SessionManager struct {
	outputPath   string
	runName      string
	runNumber    int
	sessionStart time.Time
	runPath      string
	mu           sync.Mutex
	logger       *logger.Logger
}

// NewSessionManager creates a manager writing below outputPath.
func NewSessionManager(outputPath string, log *logger.Logger) *SessionManager {
	return &SessionManager{
		outputPath:   outputPath,
		runName:      "",
		runNumber:    0,
		sessionStart: time.Time{},
		runPath:      "",
		mu:           sync.Mutex{},
		logger:       log,
	}
}

// Initialize picks the next run number for the date of start and creates the run folder.
func (s *SessionManager) Initialize(start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := start.UTC().Format(dateLayout)

	runs, err := s.listRuns(date)
	if err != nil {
		return err
	}

	next := 1
	if len(runs) > 0 {
		last, _ := strconv.Atoi(runPattern.FindStringSubmatch(runs[len(runs)-1])[1])
		next = last + 1
	}

	runPath := filepath.Join(s.outputPath, date, fmt.Sprintf("run_%d", next))
	if err := os.MkdirAll(runPath, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeSessionOutput, err, "failed to create run folder %s", runPath)
	}

	s.sessionStart = start
	s.runNumber = next
	s.runName = fmt.Sprintf("run_%d", next)
	s.runPath = runPath

	s.logger.Info("Session folder created",
		zap.String("run", s.runName),
		zap.String("date", date),
		zap.String("path", runPath),
	)

	return nil
}

// RunPath returns the run folder, or "" before Initialize.
func (s *SessionManager) RunPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runPath
}

// RunName returns the run folder name, e.g. "run_1".
func (s *SessionManager) RunName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runName
}

func (s *SessionManager) RunNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runNumber
}

func (s *SessionManager) SessionStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionStart
}

// FilePath returns the full path of filename in the run folder.
func (s *SessionManager) FilePath(filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filepath.Join(s.runPath, filename)
}

// ListRuns returns the run folders of date ordered by run number.
func (s *SessionManager) ListRuns(date string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listRuns(date)
}

// Dates returns every date with session output, oldest first.
func (s *SessionManager) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.outputPath)
	if os.IsNotExist(err) {
		return []string{}, nil
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionOutput, "failed to read output directory", err)
	}

	dates := []string{}

	for _, entry := range entries {
		if entry.IsDir() && datePattern.MatchString(entry.Name()) {
			dates = append(dates, entry.Name())
		}
	}

	sort.Strings(dates)

	return dates, nil
}

//nolint:funcorder // helper shared by Initialize and ListRuns
func (s *SessionManager) listRuns(date string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.outputPath, date))
	if os.IsNotExist(err) {
		return []string{}, nil
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionOutput, "failed to read date directory", err)
	}

	runs := []string{}

	for _, entry := range entries {
		if entry.IsDir() && runPattern.MatchString(entry.Name()) {
			runs = append(runs, entry.Name())
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		numI, _ := strconv.Atoi(runs[i][len("run_"):])
		numJ, _ := strconv.Atoi(runs[j][len("run_"):])

		return numI < numJ
	})

	return runs, nil
}
