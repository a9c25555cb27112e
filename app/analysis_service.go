package app

import (
	"context"
	"io"
	"time"

	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/internal/analysis"
	"killcurve/internal/batch"
	"killcurve/internal/errors"
	"killcurve/ports"

	"github.com/sirupsen/logrus"
)

// AnalysisService ingests workbooks, runs the analysis core and archives the
// stamped reports.
type AnalysisService struct {
	reader   ports.WorkbookReader
	analyzer *analysis.Analyzer
	runs     ports.RunRepository
	executor *batch.Executor
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewAnalysisService wires the service. runs may be nil to skip archiving.
func NewAnalysisService(
	reader ports.WorkbookReader,
	analyzer *analysis.Analyzer,
	runs ports.RunRepository,
	executor *batch.Executor,
	log logrus.FieldLogger,
) *AnalysisService {
	return &AnalysisService{
		reader:   reader,
		analyzer: analyzer,
		runs:     runs,
		executor: executor,
		now:      time.Now,
		log:      log.WithField("component", "analysis-service"),
	}
}

// Criteria returns the acceptance criteria the service analyzes with.
func (s *AnalysisService) Criteria() analysis.Criteria {
	return s.analyzer.Criteria()
}

// AnalyzeFile analyzes one workbook on disk.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path, manualPC string) (*assay.Report, error) {
	in, err := s.reader.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return s.process(ctx, in, manualPC)
}

// AnalyzeUpload analyzes a workbook streamed from a client.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, fileName string, src io.Reader, manualPC string) (*assay.Report, error) {
	in, err := s.reader.Read(fileName, src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", fileName)
	}
	return s.process(ctx, in, manualPC)
}

// AnalyzeFiles analyzes several workbooks concurrently. Each file succeeds or
// fails on its own; results keep the order of paths.
func (s *AnalysisService) AnalyzeFiles(ctx context.Context, paths []string, manualPC string) []batch.Result {
	return s.executor.Run(ctx, paths, func(ctx context.Context, path string) (*assay.Report, error) {
		return s.AnalyzeFile(ctx, path, manualPC)
	})
}

func (s *AnalysisService) process(ctx context.Context, in analysis.Input, manualPC string) (*assay.Report, error) {
	in.ManualPositiveControl = manualPC

	report, err := s.analyzer.Analyze(in)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to analyze %s", in.FileName)
	}

	report.RunID = core.NewRunID()
	report.AnalyzedAt = s.now().UTC()

	log := s.log.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"file":     report.FileName,
		"assay":    report.AssayType,
		"status":   report.Outcome.Status,
		"warnings": len(report.Warnings),
	})

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, report); err != nil {
			return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to archive run"))
		}
	}

	log.Info("Run analyzed")
	return report, nil
}

// GetRun loads an archived run.
func (s *AnalysisService) GetRun(ctx context.Context, id core.RunID) (*assay.Report, error) {
	if s.runs == nil {
		return nil, errors.Wrap(core.NewNotFoundError("run", id.String()), "run archive disabled")
	}
	report, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", id)
	}
	return report, nil
}

// ListRuns lists archived runs, newest first.
func (s *AnalysisService) ListRuns(ctx context.Context, filter ports.RunFilter) ([]*ports.RunRecord, error) {
	if s.runs == nil {
		return []*ports.RunRecord{}, nil
	}
	records, err := s.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list runs"))
	}
	return records, nil
}
