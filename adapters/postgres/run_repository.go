package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// SaveRun upserts a run and its full report
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, report *assay.Report) error {
	if report.RunID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	rec := ports.NewRunRecord(report)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, file_name, assay_type, status, positive_control,
			well_count, sample_count, warning_count, analyzed_at, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			assay_type = EXCLUDED.assay_type,
			status = EXCLUDED.status,
			positive_control = EXCLUDED.positive_control,
			well_count = EXCLUDED.well_count,
			sample_count = EXCLUDED.sample_count,
			warning_count = EXCLUDED.warning_count,
			analyzed_at = EXCLUDED.analyzed_at,
			report = EXCLUDED.report
	`, rec.ID, rec.FileName, rec.AssayType, rec.Status, rec.PositiveControl,
		rec.WellCount, rec.SampleCount, rec.WarningCount, rec.AnalyzedAt, reportJSON)

	return err
}

// GetRun loads the stored report
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*assay.Report, error) {
	var reportJSON []byte
	err := r.db.GetContext(ctx, &reportJSON, `
		SELECT report FROM analysis_runs WHERE id = $1
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, err
	}

	var report assay.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// ListRuns returns run summaries, newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, filter ports.RunFilter) ([]*ports.RunRecord, error) {
	query, args := listRunsQuery(filter)

	var records []*ports.RunRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func listRunsQuery(filter ports.RunFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.AssayType != "" {
		args = append(args, filter.AssayType)
		where = append(where, fmt.Sprintf("assay_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, file_name, assay_type, status, positive_control,
		well_count, sample_count, warning_count, analyzed_at
		FROM analysis_runs`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY analyzed_at DESC, id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}
