package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/internal/analysis"
	"killcurve/internal/batch"
	"killcurve/internal/errors"
	"killcurve/ports"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWorkbookReader struct {
	mock.Mock
}

func (m *MockWorkbookReader) ReadFile(path string) (analysis.Input, error) {
	args := m.Called(path)
	return args.Get(0).(analysis.Input), args.Error(1)
}

func (m *MockWorkbookReader) Read(fileName string, src io.Reader) (analysis.Input, error) {
	args := m.Called(fileName, src)
	return args.Get(0).(analysis.Input), args.Error(1)
}

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) SaveRun(ctx context.Context, report *assay.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, id core.RunID) (*assay.Report, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*assay.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, filter ports.RunFilter) ([]*ports.RunRecord, error) {
	args := m.Called(ctx, filter)
	if r := args.Get(0); r != nil {
		return r.([]*ports.RunRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

var fixedNow = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newService(reader ports.WorkbookReader, runs ports.RunRepository) *AnalysisService {
	svc := NewAnalysisService(reader, analysis.NewAnalyzer(analysis.DefaultCriteria()), runs,
		batch.NewExecutor(2, quietLogger()), quietLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// plate is a minimal two-sample plate: a growing medium well and a treated well.
func plate(name string) analysis.Input {
	hours := []float64{0, 1, 2, 4, 8, 12, 24}
	grow := []float64{0.2, 0.5, 0.8, 1.0, 1.4, 1.8, 2.2}
	kill := []float64{0.2, 1.0, 1.2, 0.9, 0.5, 0.3, 0.2}

	reading := func(well core.WellID, values []float64) assay.WellReading {
		r := assay.WellReading{Well: well}
		for i, h := range hours {
			r.Points = append(r.Points, assay.Point{Hour: h, HMS: core.FormatHMS(h), CellIndex: values[i]})
		}
		return r
	}

	return analysis.Input{
		FileName:  name,
		AssayType: assay.AssayCD19,
		Series:    []assay.WellReading{reading("A1", kill), reading("B1", grow)},
		Layout: []assay.WellMetadata{
			{Well: "A1", CellType: "Nalm6", Sample: "CAR-T 1"},
			{Well: "B1", CellType: "Nalm6", Sample: "Medium"},
		},
	}
}

func TestAnalyzeFile_StampsAndArchives(t *testing.T) {
	reader := &MockWorkbookReader{}
	runs := &MockRunRepository{}
	reader.On("ReadFile", "plate_CD19.xlsx").Return(plate("plate_CD19.xlsx"), nil)
	runs.On("SaveRun", mock.Anything, mock.AnythingOfType("*assay.Report")).Return(nil)

	report, err := newService(reader, runs).AnalyzeFile(context.Background(), "plate_CD19.xlsx", "")
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	_, err = core.ParseRunID(report.RunID.String())
	assert.NoError(t, err)
	assert.Equal(t, fixedNow, report.AnalyzedAt)
	assert.Equal(t, assay.StatusPending, report.Outcome.Status, "no positive control on the plate")
	require.Len(t, report.Wells, 2)

	saved := runs.Calls[0].Arguments.Get(1).(*assay.Report)
	assert.Same(t, report, saved)
	reader.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func TestAnalyzeUpload_ManualPositiveControl(t *testing.T) {
	reader := &MockWorkbookReader{}
	src := strings.NewReader("xlsx bytes")
	reader.On("Read", "upload_CD19.xlsx", src).Return(plate("upload_CD19.xlsx"), nil)

	report, err := newService(reader, nil).AnalyzeUpload(context.Background(), "upload_CD19.xlsx", src, "CAR-T 1")
	require.NoError(t, err)
	assert.Equal(t, "CAR-T 1", report.Outcome.PositiveControl)
	assert.Equal(t, assay.PCManual, report.Outcome.PositiveControlSource)
}

func TestAnalyzeFile_Errors(t *testing.T) {
	normalized := plate("lonza_CD19.xlsx")
	normalized.Normalized = true

	tests := []struct {
		name     string
		input    analysis.Input
		readErr  error
		manualPC string
		saveErr  error
		wantCode string
	}{
		{name: "unknown assay", readErr: fmt.Errorf("%w: plate.xlsx", core.ErrUnknownAssayType), wantCode: errors.CodeUnknownAssay},
		{name: "missing sheet", readErr: fmt.Errorf("Layout: %w", core.ErrMissingSheet), wantCode: errors.CodeMissingSheet},
		{name: "normalized", input: normalized, wantCode: errors.CodeNormalizedData},
		{name: "unknown manual control", input: plate("p_CD19.xlsx"), manualPC: "Nope", wantCode: errors.CodeInvalidInput},
		{name: "archive failure", input: plate("p_CD19.xlsx"), saveErr: stderrors.New("connection refused"), wantCode: errors.CodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &MockWorkbookReader{}
			runs := &MockRunRepository{}
			reader.On("ReadFile", "f.xlsx").Return(tt.input, tt.readErr)
			runs.On("SaveRun", mock.Anything, mock.Anything).Return(tt.saveErr)

			report, err := newService(reader, runs).AnalyzeFile(context.Background(), "f.xlsx", tt.manualPC)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))

			if tt.saveErr == nil {
				runs.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAnalyzeFiles(t *testing.T) {
	reader := &MockWorkbookReader{}
	reader.On("ReadFile", "a_CD19.xlsx").Return(plate("a_CD19.xlsx"), nil)
	reader.On("ReadFile", "b.xlsx").Return(analysis.Input{}, fmt.Errorf("%w: b.xlsx", core.ErrUnknownAssayType))
	reader.On("ReadFile", "c_CD19.xlsx").Return(plate("c_CD19.xlsx"), nil)

	results := newService(reader, nil).AnalyzeFiles(context.Background(), []string{"a_CD19.xlsx", "b.xlsx", "c_CD19.xlsx"}, "")

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, errors.CodeUnknownAssay, errors.GetCode(results[1].Err))
	require.NoError(t, results[2].Err)
	assert.Equal(t, "c_CD19.xlsx", results[2].Report.FileName)
	assert.NotEqual(t, results[0].Report.RunID, results[2].Report.RunID)
}

func TestGetRun(t *testing.T) {
	runs := &MockRunRepository{}
	stored := &assay.Report{RunID: "r1", FileName: "a_CD19.xlsx"}
	runs.On("GetRun", mock.Anything, core.RunID("r1")).Return(stored, nil)
	runs.On("GetRun", mock.Anything, core.RunID("r2")).Return(nil, core.NewNotFoundError("run", "r2"))

	svc := newService(&MockWorkbookReader{}, runs)

	got, err := svc.GetRun(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = svc.GetRun(context.Background(), "r2")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = newService(&MockWorkbookReader{}, nil).GetRun(context.Background(), "r1")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestListRuns(t *testing.T) {
	runs := &MockRunRepository{}
	filter := ports.RunFilter{Status: assay.StatusPass, Limit: 10}
	runs.On("ListRuns", mock.Anything, filter).Return([]*ports.RunRecord{{ID: "r1"}}, nil)

	records, err := newService(&MockWorkbookReader{}, runs).ListRuns(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = newService(&MockWorkbookReader{}, nil).ListRuns(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, records)
}
