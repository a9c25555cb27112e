package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/ports"
)

// RunRepository keeps runs in process memory. It is used when no database
// is configured and in tests.
type RunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*assay.Report
}

// NewRunRepository creates an empty in-memory archive
func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[core.RunID]*assay.Report)}
}

var _ ports.RunRepository = (*RunRepository)(nil)

// SaveRun stores a deep copy of the report
func (r *RunRepository) SaveRun(ctx context.Context, report *assay.Report) error {
	if report.RunID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	cp := report.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[report.RunID] = cp
	return nil
}

// GetRun returns a deep copy of the stored report
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*assay.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return report.Clone(), nil
}

// ListRuns returns matching run summaries, newest first
func (r *RunRepository) ListRuns(ctx context.Context, filter ports.RunFilter) ([]*ports.RunRecord, error) {
	r.mu.RLock()
	records := make([]*ports.RunRecord, 0, len(r.runs))
	for _, report := range r.runs {
		rec := ports.NewRunRecord(report)
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].AnalyzedAt.Equal(records[j].AnalyzedAt) {
			return records[i].AnalyzedAt.After(records[j].AnalyzedAt)
		}
		return records[i].ID > records[j].ID
	})

	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}
