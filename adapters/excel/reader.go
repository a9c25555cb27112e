package excel

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/internal/analysis"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Sheet and header names of the instrument export.
const (
	CurveSheet  = "Data Analysis - Curve"
	LayoutSheet = "Layout"

	timeHourHeader = "Time (Hour)"
	timeHMSHeader  = "Time (hh:mm:ss)"
)

// AuditSheets are the accepted names of the audit trail sheet, in lookup order.
var AuditSheets = []string{"Audit Trail", "Audit_Trail"}

// WorkbookReader turns an xCELLigence workbook into analysis input.
type WorkbookReader struct {
	log logrus.FieldLogger
}

// NewWorkbookReader creates a reader.
func NewWorkbookReader(log logrus.FieldLogger) *WorkbookReader {
	return &WorkbookReader{log: log.WithField("component", "excel-reader")}
}

// ReadFile opens and reads the workbook at path. The file name drives assay
// type detection.
func (r *WorkbookReader) ReadFile(path string) (analysis.Input, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return analysis.Input{}, fmt.Errorf("workbook not found: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return analysis.Input{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return r.read(filepath.Base(path), f)
}

// Read reads a workbook from an upload stream named fileName.
func (r *WorkbookReader) Read(fileName string, src io.Reader) (analysis.Input, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return analysis.Input{}, fmt.Errorf("failed to open workbook %s: %w", fileName, err)
	}
	defer f.Close()

	return r.read(fileName, f)
}

func (r *WorkbookReader) read(fileName string, f *excelize.File) (analysis.Input, error) {
	start := time.Now()
	in := analysis.Input{FileName: fileName}

	assayType, err := assay.ParseAssayType(fileName)
	if err != nil {
		return in, err
	}
	in.AssayType = assayType

	sheets := f.GetSheetList()
	if !hasSheet(sheets, CurveSheet) {
		return in, fmt.Errorf("%w: %q", core.ErrMissingSheet, CurveSheet)
	}

	rows, err := f.GetRows(CurveSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return in, fmt.Errorf("failed to read %s: %w", CurveSheet, err)
	}
	if isNormalized(rows) {
		in.Normalized = true
		return in, nil
	}

	var curveWarnings []assay.Warning
	in.Series, curveWarnings, err = parseCurve(rows)
	if err != nil {
		return in, err
	}

	if !hasSheet(sheets, LayoutSheet) {
		return in, fmt.Errorf("%w: %q", core.ErrMissingSheet, LayoutSheet)
	}
	layoutRows, err := f.GetRows(LayoutSheet)
	if err != nil {
		return in, fmt.Errorf("failed to read %s: %w", LayoutSheet, err)
	}
	in.Layout, err = r.parseLayout(layoutRows)
	if err != nil {
		return in, err
	}

	var auditWarnings []assay.Warning
	in.Audit, auditWarnings = r.readAudit(f, sheets)
	in.Warnings = append(curveWarnings, auditWarnings...)

	r.log.WithFields(logrus.Fields{
		"file":     fileName,
		"assay":    in.AssayType,
		"wells":    len(in.Series),
		"layout":   len(in.Layout),
		"audit":    len(in.Audit),
		"duration": time.Since(start),
	}).Debug("Workbook read")

	return in, nil
}

func hasSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}

// isNormalized detects normalized exports by a column-A marker.
func isNormalized(rows [][]string) bool {
	for _, row := range rows {
		if len(row) > 0 && strings.Contains(strings.ToLower(row[0]), "normalized") {
			return true
		}
	}
	return false
}

// parseCurve reads the time table under the "Time (Hour)" header row. Cells
// that are blank or not numeric are skipped for that well only. NaN and Inf
// cells are skipped too and reported once per well.
func parseCurve(rows [][]string) ([]assay.WellReading, []assay.Warning, error) {
	headerIdx := -1
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == timeHourHeader {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil, fmt.Errorf("%w: %q in column A of %q", core.ErrMissingColumn, timeHourHeader, CurveSheet)
	}

	header := rows[headerIdx]
	hmsCol := -1
	type wellCol struct {
		col  int
		well core.WellID
	}
	var wells []wellCol
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == timeHMSHeader {
			hmsCol = i
			continue
		}
		if !strings.HasPrefix(h, "Y (") {
			continue
		}
		id, err := core.ParseWellID(h)
		if err != nil {
			continue
		}
		wells = append(wells, wellCol{col: i, well: id})
	}

	series := make([]assay.WellReading, len(wells))
	nonFinite := make([]int, len(wells))
	for i, w := range wells {
		series[i].Well = w.well
	}

	for _, row := range rows[headerIdx+1:] {
		if len(row) == 0 {
			continue
		}
		hour, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil || !finite(hour) {
			continue
		}
		hms := ""
		if hmsCol >= 0 && hmsCol < len(row) {
			hms = strings.TrimSpace(row[hmsCol])
		}
		if _, err := core.ParseHMS(hms); err != nil {
			hms = core.FormatHMS(hour)
		}

		for i, w := range wells {
			if w.col >= len(row) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[w.col]), 64)
			if err != nil {
				continue
			}
			if !finite(v) {
				nonFinite[i]++
				continue
			}
			series[i].Points = append(series[i].Points, assay.Point{Hour: hour, HMS: hms, CellIndex: v})
		}
	}

	var warnings []assay.Warning
	for i, n := range nonFinite {
		if n > 0 {
			warnings = append(warnings, assay.Warning{
				Code:    assay.WarnNonFiniteValue,
				Well:    series[i].Well,
				Message: fmt.Sprintf("skipped %d non-finite cell index values in well %s", n, series[i].Well),
			})
		}
	}

	return series, warnings, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseLayout maps wells to samples. Reading stops at the first blank row,
// which separates the plate map from the legend below it.
func (r *WorkbookReader) parseLayout(rows [][]string) ([]assay.WellMetadata, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q has no header row", core.ErrMissingColumn, LayoutSheet)
	}

	cols := map[string]int{"Well": -1, "Cell": -1, "Treatment": -1}
	for i, h := range rows[0] {
		if _, ok := cols[strings.TrimSpace(h)]; ok {
			cols[strings.TrimSpace(h)] = i
		}
	}
	for _, name := range []string{"Well", "Cell", "Treatment"} {
		if cols[name] < 0 {
			return nil, fmt.Errorf("%w: %q in %q", core.ErrMissingColumn, name, LayoutSheet)
		}
	}

	var layout []assay.WellMetadata
	for _, row := range rows[1:] {
		if blankRow(row) {
			break
		}
		well := cell(row, cols["Well"])
		treatment := cell(row, cols["Treatment"])
		if isMissing(well) || isMissing(treatment) {
			continue
		}
		id, err := core.ParseWellID(well)
		if err != nil {
			r.log.WithField("well", well).Warn("Skipping layout row with invalid well id")
			continue
		}
		layout = append(layout, assay.WellMetadata{
			Well:     id,
			CellType: cell(row, cols["Cell"]),
			Sample:   treatment,
		})
	}

	return layout, nil
}

// readAudit parses the audit trail. A missing or unreadable trail is not an
// error; the analysis then uses the full series.
func (r *WorkbookReader) readAudit(f *excelize.File, sheets []string) ([]assay.AuditEvent, []assay.Warning) {
	sheet := ""
	for _, name := range AuditSheets {
		if hasSheet(sheets, name) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return nil, []assay.Warning{{
			Code:    assay.WarnAuditUnavailable,
			Message: "no audit trail sheet; effector time unknown, full series analyzed",
		}}
	}

	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) == 0 {
		return nil, []assay.Warning{{
			Code:    assay.WarnAuditUnavailable,
			Message: fmt.Sprintf("audit trail sheet %q could not be read", sheet),
		}}
	}

	actionCol, idCol, timeCol := auditColumns(rows[0])
	if actionCol < 0 || idCol < 0 || timeCol < 0 {
		return nil, []assay.Warning{{
			Code:    assay.WarnAuditUnavailable,
			Message: fmt.Sprintf("audit trail sheet %q lacks action, id or time columns", sheet),
		}}
	}

	var events []assay.AuditEvent
	for _, row := range rows[1:] {
		action := cell(row, actionCol)
		if action == "" {
			continue
		}
		id, err := strconv.ParseFloat(cell(row, idCol), 64)
		if err != nil {
			continue
		}
		events = append(events, assay.AuditEvent{
			Action: action,
			ID:     int64(id),
			Time:   cell(row, timeCol),
		})
	}

	return events, nil
}

// auditColumns locates the action, id and experiment-time columns by header.
func auditColumns(header []string) (action, id, tm int) {
	action, id, tm = -1, -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case action < 0 && h == "action":
			action = i
		case id < 0 && (h == "id" || h == "event id"):
			id = i
		case tm < 0 && strings.Contains(h, "time"):
			tm = i
		}
	}
	return action, id, tm
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isMissing(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none":
		return true
	}
	return false
}
