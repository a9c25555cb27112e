package ports

import (
	"context"
	"time"

	"killcurve/domain/assay"
	"killcurve/domain/core"
)

// RunRepository archives analysis reports
type RunRepository interface {
	// SaveRun stores a stamped report. Saving an existing run id replaces it.
	SaveRun(ctx context.Context, report *assay.Report) error

	// GetRun returns the full report, or core.ErrRunNotFound
	GetRun(ctx context.Context, id core.RunID) (*assay.Report, error)

	// ListRuns returns run summaries, newest first
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	AssayType assay.AssayType
	Status    assay.AssayStatus
	Limit     int
}

// Matches reports whether a record passes the filter's field criteria.
func (f RunFilter) Matches(r *RunRecord) bool {
	if f.AssayType != "" && r.AssayType != f.AssayType {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// RunRecord is the summary row of an archived run
type RunRecord struct {
	ID              core.RunID        `json:"id" db:"id"`
	FileName        string            `json:"file_name" db:"file_name"`
	AssayType       assay.AssayType   `json:"assay_type" db:"assay_type"`
	Status          assay.AssayStatus `json:"status" db:"status"`
	PositiveControl string            `json:"positive_control,omitempty" db:"positive_control"`
	WellCount       int               `json:"well_count" db:"well_count"`
	SampleCount     int               `json:"sample_count" db:"sample_count"`
	WarningCount    int               `json:"warning_count" db:"warning_count"`
	AnalyzedAt      time.Time         `json:"analyzed_at" db:"analyzed_at"`
}

// NewRunRecord summarizes a report.
func NewRunRecord(r *assay.Report) *RunRecord {
	return &RunRecord{
		ID:              r.RunID,
		FileName:        r.FileName,
		AssayType:       r.AssayType,
		Status:          r.Outcome.Status,
		PositiveControl: r.Outcome.PositiveControl,
		WellCount:       len(r.Wells),
		SampleCount:     len(r.Samples),
		WarningCount:    len(r.Warnings),
		AnalyzedAt:      r.AnalyzedAt,
	}
}
