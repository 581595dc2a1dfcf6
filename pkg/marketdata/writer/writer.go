package writer

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// TapeWriter persists a trade tape to a destination file.
type TapeWriter interface {
	// Initialize prepares the writer for a new tape.
	Initialize() error
	// Write appends a single trade.
	Write(tick types.Tick) error
	// Finalize flushes pending trades and exports the tape.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
