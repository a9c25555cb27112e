package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/internal/analysis"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixtureHours = []float64{0, 1.9644, 2.1161, 2.6192, 3.5, 4.5, 5.5, 6.5, 8, 10, 12, 16, 20, 24}

var fixtureCurves = map[string][]float64{
	"A1": {0.2, 1.5, 1.1, 1.2, 1.0, 0.8, 0.6, 0.5, 0.3, 0.2, 0.15, 0.1, 0.1, 0.1},
	"A2": {0.2, 1.5, 1.1, 1.2, 1.0, 0.9, 0.7, 0.6, 0.45, 0.3, 0.2, 0.1, 0.1, 0.1},
	"B1": {0.2, 1.0, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2.0, 2.0, 2.1},
}

type fixture struct {
	normalized bool
	noLayout   bool
	noHMS      bool
	noHeader   bool
	nonFinite  bool // NaN and Inf cells in well A1
	auditSheet string // empty omits the audit trail
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func buildWorkbook(t *testing.T, fx fixture) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", CurveSheet))

	setRow := func(sheet string, row int, values ...interface{}) {
		ref, err := excelize.CoordinatesToCellName(1, row)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &values))
	}

	setRow(CurveSheet, 1, "Experiment: killing assay")
	if fx.normalized {
		setRow(CurveSheet, 2, "Normalized Cell Index")
	}
	header := []interface{}{"Time (Hour)", "Time (hh:mm:ss)", "Y (A1)", "Y (A2)", "Y (B1)"}
	if fx.noHMS {
		header[1] = "Comment"
	}
	if fx.noHeader {
		header[0] = "Hours"
	}
	setRow(CurveSheet, 4, header...)
	for i, h := range fixtureHours {
		setRow(CurveSheet, 5+i, h, core.FormatHMS(h), fixtureCurves["A1"][i], fixtureCurves["A2"][i], fixtureCurves["B1"][i])
	}

	if fx.nonFinite {
		require.NoError(t, f.SetCellValue(CurveSheet, "C5", "NaN"))
		require.NoError(t, f.SetCellValue(CurveSheet, fmt.Sprintf("C%d", 4+len(fixtureHours)), "+Inf"))
	}

	if !fx.noLayout {
		_, err := f.NewSheet(LayoutSheet)
		require.NoError(t, err)
		setRow(LayoutSheet, 1, "Well", "Cell", "Number", "Well Type", "Treatment")
		setRow(LayoutSheet, 2, "A1", "Nalm6", 1, "Sample", "CAR-T 1")
		setRow(LayoutSheet, 3, "A2", "Nalm6", 1, "Sample", "CAR-T 1")
		setRow(LayoutSheet, 4, "B1", "Nalm6", 1, "Sample", "Medium")
		setRow(LayoutSheet, 5, "B2", "Nalm6", 1, "Sample", "nan")
		// Row 6 left blank ends the plate map.
		setRow(LayoutSheet, 7, "C1", "Legend", "", "", "Not a sample")
	}

	if fx.auditSheet != "" {
		_, err := f.NewSheet(fx.auditSheet)
		require.NoError(t, err)
		setRow(fx.auditSheet, 1, "ID", "Experiment Time", "Action", "User")
		setRow(fx.auditSheet, 2, 0, "00:00:00", "Start Experiment", "lab")
		setRow(fx.auditSheet, 3, 1, "01:00:00", "Continue Experiment", "lab")
		setRow(fx.auditSheet, 4, 2, "01:59:00", "Pause Experiment", "lab")
		setRow(fx.auditSheet, 5, 3, "02:06:58", "Continue Experiment", "lab")
	}

	return f
}

func saveWorkbook(t *testing.T, name string, fx fixture) string {
	t.Helper()
	f := buildWorkbook(t, fx)
	defer f.Close()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadFile(t *testing.T) {
	path := saveWorkbook(t, "2026-10_CD19_plate1.xlsx", fixture{auditSheet: "Audit Trail"})

	in, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "2026-10_CD19_plate1.xlsx", in.FileName)
	assert.Equal(t, assay.AssayCD19, in.AssayType)
	assert.False(t, in.Normalized)
	assert.Empty(t, in.Warnings)

	require.Len(t, in.Series, 3)
	assert.Equal(t, core.WellID("A1"), in.Series[0].Well)
	assert.Equal(t, core.WellID("B1"), in.Series[2].Well)
	for _, s := range in.Series {
		require.Len(t, s.Points, len(fixtureHours), "well %s", s.Well)
	}
	assert.Equal(t, assay.Point{Hour: 2.6192, HMS: "02:37:09", CellIndex: 1.2}, in.Series[0].Points[3])

	assert.Equal(t, []assay.WellMetadata{
		{Well: "A1", CellType: "Nalm6", Sample: "CAR-T 1"},
		{Well: "A2", CellType: "Nalm6", Sample: "CAR-T 1"},
		{Well: "B1", CellType: "Nalm6", Sample: "Medium"},
	}, in.Layout)

	require.Len(t, in.Audit, 4)
	assert.Equal(t, assay.AuditEvent{Action: "Continue Experiment", ID: 3, Time: "02:06:58"}, in.Audit[3])
}

func TestReadFile_FeedsAnalysis(t *testing.T) {
	path := saveWorkbook(t, "run_BCMA.xlsx", fixture{auditSheet: "Audit_Trail"})

	in, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, assay.AssayBCMA, in.AssayType)

	report, err := analysis.NewAnalyzer(analysis.DefaultCriteria()).Analyze(in)
	require.NoError(t, err)

	require.NotNil(t, report.Effector)
	assert.Equal(t, int64(3), report.Effector.ID)
	require.Len(t, report.Wells, 3)
	assert.Equal(t, 2.6192, report.Wells[0].MaxTimeHour)
	require.NotNil(t, report.Wells[0].HalfKill)
	assert.Equal(t, 5.5, report.Wells[0].HalfKill.Hour)
	assert.Equal(t, assay.StatusPending, report.Outcome.Status)
}

func TestRead_FromStream(t *testing.T) {
	f := buildWorkbook(t, fixture{auditSheet: "Audit Trail"})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	in, err := NewWorkbookReader(discardLogger()).Read("upload_CD19.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "upload_CD19.xlsx", in.FileName)
	assert.Len(t, in.Series, 3)
}

func TestReadFile_MissingAudit(t *testing.T) {
	path := saveWorkbook(t, "legacy_CD19.xlsx", fixture{})

	in, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	require.NoError(t, err)
	assert.Nil(t, in.Audit)
	require.Len(t, in.Warnings, 1)
	assert.Equal(t, assay.WarnAuditUnavailable, in.Warnings[0].Code)
}

func TestReadFile_Normalized(t *testing.T) {
	path := saveWorkbook(t, "lonza_CD19.xlsx", fixture{normalized: true, auditSheet: "Audit Trail"})

	in, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	require.NoError(t, err)
	assert.True(t, in.Normalized)

	_, err = analysis.NewAnalyzer(analysis.DefaultCriteria()).Analyze(in)
	assert.True(t, errors.Is(err, core.ErrNormalizedData))
}

func TestReadFile_SkipsNonFiniteValues(t *testing.T) {
	path := saveWorkbook(t, "nan_CD19.xlsx", fixture{nonFinite: true, auditSheet: "Audit Trail"})

	in, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	require.NoError(t, err)

	a1 := in.Series[0].Points
	require.Len(t, a1, len(fixtureHours)-2)
	assert.Equal(t, fixtureHours[1], a1[0].Hour)
	assert.Equal(t, 20.0, a1[len(a1)-1].Hour)
	assert.Len(t, in.Series[1].Points, len(fixtureHours))

	require.Len(t, in.Warnings, 1)
	assert.Equal(t, assay.WarnNonFiniteValue, in.Warnings[0].Code)
	assert.Equal(t, core.WellID("A1"), in.Warnings[0].Well)
	assert.Contains(t, in.Warnings[0].Message, "skipped 2")
}

func TestReadFile_HMSFallback(t *testing.T) {
	path := saveWorkbook(t, "nohms_CD19.xlsx", fixture{noHMS: true})

	in, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "01:57:52", in.Series[0].Points[1].HMS)
}

func TestReadFile_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		fx   fixture
		want error
	}{
		{"unknown assay", "plate1.xlsx", fixture{}, core.ErrUnknownAssayType},
		{"missing layout", "plate_CD19.xlsx", fixture{noLayout: true}, core.ErrMissingSheet},
		{"missing time header", "plate_CD19.xlsx", fixture{noHeader: true}, core.ErrMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := saveWorkbook(t, tt.file, tt.fx)
			_, err := NewWorkbookReader(discardLogger()).ReadFile(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestReadFile_MissingCurveSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty_CD19.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := NewWorkbookReader(discardLogger()).ReadFile(path)
	assert.True(t, errors.Is(err, core.ErrMissingSheet))
}

func TestReadFile_NotFound(t *testing.T) {
	_, err := NewWorkbookReader(discardLogger()).ReadFile(filepath.Join(t.TempDir(), "missing_CD19.xlsx"))
	assert.Error(t, err)
}

func TestAuditColumns(t *testing.T) {
	action, id, tm := auditColumns([]string{"Event ID", "Date", "Time", " Action "})
	assert.Equal(t, 3, action)
	assert.Equal(t, 0, id)
	assert.Equal(t, 2, tm)

	action, _, _ = auditColumns([]string{"ID", "Time"})
	assert.Equal(t, -1, action)
}
