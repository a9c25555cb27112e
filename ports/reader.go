package ports

import (
	"io"

	"killcurve/internal/analysis"
)

// WorkbookReader turns an instrument export into analysis input. Input-shape
// problems are returned as errors wrapping the core sentinels; recoverable
// ones travel as warnings inside the input.
type WorkbookReader interface {
	ReadFile(path string) (analysis.Input, error)
	Read(fileName string, src io.Reader) (analysis.Input, error)
}
