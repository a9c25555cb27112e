package analysis

import (
	"killcurve/domain/assay"
	"killcurve/domain/core"
)

// series builds a reading whose clock strings are derived from the hours.
func series(well core.WellID, hours, values []float64) assay.WellReading {
	if len(hours) != len(values) {
		panic("hours and values must have the same length")
	}
	points := make([]assay.Point, len(hours))
	for i := range hours {
		points[i] = assay.Point{Hour: hours[i], HMS: core.FormatHMS(hours[i]), CellIndex: values[i]}
	}
	return assay.WellReading{Well: well, Points: points}
}

// steps returns 0, 1, 2, ... n-1 as hours.
func steps(n int) []float64 {
	h := make([]float64, n)
	for i := range h {
		h[i] = float64(i)
	}
	return h
}

// plateHours is an instrument-like sampling grid. The effector in the audit
// fixture is added at 02:06:58, just after the 1.9644 h reading.
var plateHours = []float64{0, 1.9644, 2.1161, 2.6192, 3.5, 4.5, 5.5, 6.5, 8, 10, 12, 16, 20, 24}

var (
	// Peaks before the effector at 1.5; the post-effector maximum is 1.2 at
	// 2.6192 h and the half-kill point (0.6) is reached at 5.5 h.
	killCurve = []float64{0.2, 1.5, 1.1, 1.2, 1.0, 0.8, 0.6, 0.5, 0.3, 0.2, 0.15, 0.1, 0.1, 0.1}
	// Same shape, half-kill point reached one hour later at 6.5 h.
	slowKillCurve = []float64{0.2, 1.5, 1.1, 1.2, 1.0, 0.9, 0.7, 0.6, 0.45, 0.3, 0.2, 0.1, 0.1, 0.1}
	// Target cells growing without effector.
	growthCurve = []float64{0.2, 1.0, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2.0, 2.0, 2.1}
	// Medium control that collapses to 0.3x its maximum at 5.5 h and never recovers.
	collapseCurve = []float64{0.2, 1.0, 1.1, 1.2, 1.0, 0.8, 0.36, 0.36, 0.36, 0.36, 0.36, 0.36, 0.36, 0.36}
)

func auditFixture() []assay.AuditEvent {
	return []assay.AuditEvent{
		{Action: "Start Experiment", ID: 0, Time: "00:00:00"},
		{Action: "Continue Experiment", ID: 1, Time: "01:00:00"},
		{Action: "Pause Experiment", ID: 2, Time: "01:59:00"},
		{Action: "Continue Experiment", ID: 3, Time: "02:06:58"},
	}
}

type wellFixture struct {
	well   core.WellID
	sample string
	values []float64
}

func plateInput(wells ...wellFixture) Input {
	in := Input{
		FileName:  "run_CD19_plate1.xlsx",
		AssayType: assay.AssayCD19,
		Audit:     auditFixture(),
	}
	for _, s := range wells {
		in.Layout = append(in.Layout, assay.WellMetadata{Well: s.well, CellType: "Nalm6", Sample: s.sample})
		in.Series = append(in.Series, series(s.well, plateHours, s.values))
	}
	return in
}

func passingPlate() Input {
	return plateInput(
		wellFixture{"A1", "CAR-T 1", killCurve},
		wellFixture{"A2", "CAR-T 1", killCurve},
		wellFixture{"A3", "CAR-T 1", slowKillCurve},
		wellFixture{"B1", "SSS-CAR", killCurve},
		wellFixture{"B2", "SSS-CAR", slowKillCurve},
		wellFixture{"B3", "SSS-CAR", killCurve},
		wellFixture{"C1", "Medium", growthCurve},
		wellFixture{"C2", "Medium", growthCurve},
		wellFixture{"C3", "Medium", growthCurve},
	)
}
