package assay

import (
	"fmt"
	"strings"

	"killcurve/domain/core"
)

// AssayType is the target antigen of the killing assay.
type AssayType string

const (
	AssayCD19 AssayType = "CD19"
	AssayBCMA AssayType = "BCMA"
)

// Threshold returns the viability cell index the target cells are expected to
// reach before the effector is added.
func (a AssayType) Threshold() float64 {
	switch a {
	case AssayCD19:
		return 0.8
	case AssayBCMA:
		return 0.4
	default:
		return 0
	}
}

// Valid reports whether a is a known assay type.
func (a AssayType) Valid() bool {
	return a == AssayCD19 || a == AssayBCMA
}

// ParseAssayType derives the assay type from an instrument file name.
func ParseAssayType(fileName string) (AssayType, error) {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, "cd19"):
		return AssayCD19, nil
	case strings.Contains(lower, "bcma"):
		return AssayBCMA, nil
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnknownAssayType, fileName)
	}
}

// Point is one cell-index reading.
type Point struct {
	Hour      float64 `json:"hour"`
	HMS       string  `json:"hms"`
	CellIndex float64 `json:"cell_index"`
}

// WellReading is the time series of one well, ascending by hour.
type WellReading struct {
	Well   core.WellID `json:"well"`
	Points []Point     `json:"points"`
}

// Last returns the final point of the series.
func (r WellReading) Last() Point {
	return r.Points[len(r.Points)-1]
}

// WellMetadata maps a well to its cell type and sample (treatment) name.
type WellMetadata struct {
	Well     core.WellID `json:"well"`
	CellType string      `json:"cell_type"`
	Sample   string      `json:"sample"`
}

// AuditEvent is one row of the instrument's audit trail.
type AuditEvent struct {
	Action string `json:"action"`
	ID     int64  `json:"id"`
	Time   string `json:"time"`
}

// ContinueExperiment is the audit action recorded when the run is resumed
// after the effector cells were added.
const ContinueExperiment = "Continue Experiment"

// EffectorEvent is the resolved effector-addition time.
type EffectorEvent struct {
	ID   int64   `json:"id"`
	HMS  string  `json:"hms"`
	Hour float64 `json:"hour"`
}
