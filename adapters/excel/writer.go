package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"killcurve/domain/assay"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Exporter writes analysis reports to a results workbook.
type Exporter struct {
	config ExportConfig
	log    logrus.FieldLogger
}

// NewExporter creates an exporter.
func NewExporter(config ExportConfig, log logrus.FieldLogger) *Exporter {
	return &Exporter{config: config, log: log.WithField("component", "excel-exporter")}
}

// ExportFileName names the results workbook after the first source file:
// <base>_Rapp_<yyyymmdd_hhmmss>.xlsx, or <base>_combined_<n>files_Rapp_... for
// several files.
func ExportFileName(reports []*assay.Report, at time.Time) string {
	base := "results"
	if len(reports) > 0 && reports[0].FileName != "" {
		base = strings.TrimSuffix(strings.TrimSuffix(reports[0].FileName, ".xlsx"), ".xls")
	}
	stamp := at.Format("20060102_150405")
	if len(reports) > 1 {
		return fmt.Sprintf("%s_combined_%dfiles_Rapp_%s.xlsx", base, len(reports), stamp)
	}
	return fmt.Sprintf("%s_Rapp_%s.xlsx", base, stamp)
}

// WriteFile writes the workbook into dir and returns its path.
func (e *Exporter) WriteFile(dir string, at time.Time, reports ...*assay.Report) (string, error) {
	path := filepath.Join(dir, ExportFileName(reports, at))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	if err := e.Write(out, reports...); err != nil {
		return "", err
	}
	return path, out.Close()
}

// Write builds the workbook for one or more reports and streams it to w.
func (e *Exporter) Write(w io.Writer, reports ...*assay.Report) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to export")
	}

	f, err := e.build(reports)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"reports": len(reports),
		"sheets":  len(f.GetSheetList()),
	}).Debug("Workbook exported")
	return nil
}

func (e *Exporter) build(reports []*assay.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, []*assay.Report) error{
		e.writeSummary,
		e.writeHalfKill,
		e.writeStats,
		e.writePrintReport,
		e.writeAudit,
		e.writeWarnings,
	}
	for _, step := range steps {
		if err := step(f, reports); err != nil {
			f.Close()
			return nil, err
		}
	}

	if e.config.Protect {
		for _, sheet := range f.GetSheetList() {
			if err := f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
				SelectLockedCells:   true,
				SelectUnlockedCells: true,
			}); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to protect %s: %w", sheet, err)
			}
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

func (e *Exporter) writeSummary(f *excelize.File, reports []*assay.Report) error {
	rows := make([][]interface{}, 0, len(reports))
	for i, r := range reports {
		row := []interface{}{
			"v" + e.config.AppVersion,
			r.FileName,
			string(r.AssayType),
			string(r.Outcome.Status),
			yesNo(len(r.Wells) > 0),
			effectorTime(r.Effector),
			r.Outcome.PositiveControl,
			string(r.Outcome.PositiveControlSource),
			yesNo(r.Outcome.NegativeControlFound),
			yesNo(r.Outcome.NegativeControlBehavior),
			yesNo(r.Outcome.PositiveControlValid),
			"", "", "", "",
		}
		if i == 0 {
			row[12] = e.config.SampleCriteriaText()
			row[14] = e.config.NegativeControlCriteriaText()
		}
		rows = append(rows, row)
	}

	if err := writeTable(f, SummarySheet, summaryHeaders, rows); err != nil {
		return err
	}

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}
	for _, col := range []string{"M", "O"} {
		if err := f.SetColWidth(SummarySheet, col, col, 60); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, col+"2", col+"2", wrap); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 50); err != nil {
		return err
	}
	return f.SetRowHeight(SummarySheet, 2, 75)
}

func (e *Exporter) writeHalfKill(f *excelize.File, reports []*assay.Report) error {
	var rows [][]interface{}
	for _, r := range reports {
		roles := sampleRoles(r)
		for _, w := range r.Wells {
			if roles[w.Sample] == assay.RoleNegativeControl {
				continue
			}
			row := []interface{}{
				r.FileName, string(r.AssayType), string(r.Outcome.Status),
				w.Sample, w.Well.String(), w.CellType,
				w.MaxCellIndex, w.MaxTimeHour, w.MaxTimeHMS,
				yesNo(w.Killed),
				nil, nil, nil, nil,
				yesNo(w.RecoveredAtEnd),
			}
			if hk := w.HalfKill; hk != nil {
				row[10], row[11], row[12], row[13] = hk.Hour, hk.HMS, hk.CellIndex, hk.ElapsedHours
			}
			rows = append(rows, row)
		}
	}
	return e.newTable(f, HalfKillSheet, halfKillHeaders, rows)
}

func (e *Exporter) writeStats(f *excelize.File, reports []*assay.Report) error {
	var (
		rows [][]interface{}
		low  []int
	)
	for _, r := range reports {
		for _, s := range r.Samples {
			if s.Stats.Role == assay.RoleNegativeControl {
				continue
			}
			row := []interface{}{
				r.FileName, string(r.AssayType), string(r.Outcome.Status),
				s.Stats.Sample, string(s.Stats.Role),
				s.Stats.Replicates, s.Stats.KillSummary(),
				optional(s.Stats.Mean), optional(s.Stats.StdDev), optional(s.Stats.CV),
				"", "", "", "", "",
			}
			if v := s.Validity; v != nil {
				row[10] = string(v.Verdict)
				row[11], row[12], row[13], row[14] = yesNo(v.CVPass), yesNo(v.AllKilled), yesNo(v.MeanPass), yesNo(v.NoRecovery)
			}
			if s.Stats.LowReplicates(e.config.Criteria.MinReplicates) {
				low = append(low, len(rows)+2)
			}
			rows = append(rows, row)
		}
	}
	if err := e.newTable(f, StatsSheet, statsHeaders, rows); err != nil {
		return err
	}
	if len(low) == 0 {
		return nil
	}

	red, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "8B0000"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFCCCC"}},
	})
	if err != nil {
		return err
	}
	for _, rowIdx := range low {
		ref, err := excelize.CoordinatesToCellName(statsReplicateCol, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(StatsSheet, ref, ref, red); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writePrintReport(f *excelize.File, reports []*assay.Report) error {
	var rows [][]interface{}
	for _, r := range reports {
		for _, w := range r.Wells {
			row := []interface{}{w.Sample, w.CellType, w.MaxTimeHour, w.MaxCellIndex, nil, nil}
			if hk := w.HalfKill; hk != nil {
				row[4], row[5] = hk.Hour, hk.CellIndex
			}
			rows = append(rows, row)
		}
	}
	return e.newTable(f, PrintSheet, printHeaders, rows)
}

func (e *Exporter) writeAudit(f *excelize.File, reports []*assay.Report) error {
	var rows [][]interface{}
	for _, r := range reports {
		for _, ev := range r.Audit {
			rows = append(rows, []interface{}{r.FileName, ev.Action, ev.ID, ev.Time})
		}
	}
	return e.newTable(f, AuditExportSheet, auditHeaders, rows)
}

func (e *Exporter) writeWarnings(f *excelize.File, reports []*assay.Report) error {
	var rows [][]interface{}
	for _, r := range reports {
		for _, w := range r.Warnings {
			rows = append(rows, []interface{}{r.FileName, string(w.Code), w.Well.String(), w.Sample, w.Message})
		}
	}
	return e.newTable(f, WarningsSheet, warningHeaders, rows)
}

// newTable adds sheet only when there is something to put in it.
func (e *Exporter) newTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeTable(f, sheet, headers, rows)
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, ref, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func sampleRoles(r *assay.Report) map[string]assay.SampleRole {
	roles := make(map[string]assay.SampleRole, len(r.Samples))
	for _, s := range r.Samples {
		roles[s.Stats.Sample] = s.Stats.Role
	}
	return roles
}

func effectorTime(ev *assay.EffectorEvent) string {
	if ev == nil {
		return ""
	}
	return ev.HMS
}

// optional leaves undefined statistics as blank cells.
func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
