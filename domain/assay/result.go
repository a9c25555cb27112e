package assay

import (
	"fmt"
	"slices"
	"time"

	"killcurve/domain/core"
)

// HalfKill is the reading closest to half of the well's maximum.
type HalfKill struct {
	Hour      float64 `json:"hour"`
	HMS       string  `json:"hms"`
	CellIndex float64 `json:"cell_index"`
	// ElapsedHours is measured from the time of maximum cell index.
	ElapsedHours float64 `json:"elapsed_hours"`
}

// WellResult is the kinetics of one well over the post-effector window.
type WellResult struct {
	Well             core.WellID `json:"well"`
	Sample           string      `json:"sample"`
	CellType         string      `json:"cell_type,omitempty"`
	Points           int         `json:"points"`
	MaxCellIndex     float64     `json:"max_cell_index"`
	MaxTimeHour      float64     `json:"max_time_hour"`
	MaxTimeHMS       string      `json:"max_time_hms"`
	HalfThreshold    float64     `json:"half_threshold"`
	Killed           bool        `json:"killed"`
	HalfKill         *HalfKill   `json:"half_kill,omitempty"`
	FirstBelowHalf   *Point      `json:"first_below_half,omitempty"`
	FinalCellIndex   float64     `json:"final_cell_index"`
	RecoveredAtEnd   bool        `json:"recovered_at_end"`
	ReachedViability bool        `json:"reached_viability"`
}

// SampleRole distinguishes controls from ordinary samples.
type SampleRole string

const (
	RoleSample          SampleRole = "sample"
	RoleNegativeControl SampleRole = "negative_control"
	RolePositiveControl SampleRole = "positive_control"
)

// SampleStats summarizes half-kill times over the killed wells of a sample.
// Nil statistics are undefined (insufficient killed wells), never zero.
type SampleStats struct {
	Sample     string     `json:"sample"`
	Role       SampleRole `json:"role"`
	Replicates int        `json:"replicates"`
	Killed     int        `json:"killed"`
	Mean       *float64   `json:"mean,omitempty"`
	StdDev     *float64   `json:"std_dev,omitempty"`
	CV         *float64   `json:"cv,omitempty"`
}

// LowReplicates reports whether fewer than min wells were tested.
func (s SampleStats) LowReplicates(min int) bool {
	return s.Replicates < min
}

// KillSummary renders the killed/not-killed counts for reporting.
func (s SampleStats) KillSummary() string {
	notKilled := s.Replicates - s.Killed
	switch {
	case s.Replicates == 0:
		return "No kill data"
	case s.Killed == s.Replicates:
		return "All Yes"
	case s.Killed == 0:
		return "All No"
	default:
		return fmt.Sprintf("%d Yes, %d No", s.Killed, notKilled)
	}
}

// Verdict is the sample-level validity decision.
type Verdict string

const (
	Valid   Verdict = "Valid"
	Invalid Verdict = "Invalid"
)

// Validity records the verdict together with each criterion.
type Validity struct {
	Verdict    Verdict `json:"verdict"`
	CVPass     bool    `json:"cv_pass"`
	AllKilled  bool    `json:"all_killed"`
	MeanPass   bool    `json:"mean_pass"`
	NoRecovery bool    `json:"no_recovery"`
}

// SampleSummary pairs statistics with the verdict. Validity is nil for
// negative controls, which are judged by their own rule.
type SampleSummary struct {
	Stats    SampleStats `json:"stats"`
	Validity *Validity   `json:"validity,omitempty"`
}

// AssayStatus is the run-level decision.
type AssayStatus string

const (
	StatusPass    AssayStatus = "Pass"
	StatusFail    AssayStatus = "Fail"
	StatusPending AssayStatus = "Pending"
)

// PCSource records how the positive control was chosen.
type PCSource string

const (
	PCAuto   PCSource = "auto"
	PCManual PCSource = "manual"
	PCNone   PCSource = "none"
)

// AssayOutcome carries the status and the sub-criteria it was derived from.
type AssayOutcome struct {
	Status                  AssayStatus `json:"status"`
	NegativeControlFound    bool        `json:"negative_control_found"`
	NegativeControlBehavior bool        `json:"negative_control_behavior"`
	PositiveControl         string      `json:"positive_control,omitempty"`
	PositiveControlSource   PCSource    `json:"positive_control_source"`
	PositiveControlValid    bool        `json:"positive_control_valid"`
}

// WarningCode classifies non-fatal data-quality findings.
type WarningCode string

const (
	WarnLowReplicates      WarningCode = "low_replicates"
	WarnBelowViability     WarningCode = "below_viability_threshold"
	WarnMalformedAuditTime WarningCode = "malformed_audit_time"
	WarnEffectorAfterData  WarningCode = "effector_after_series"
	WarnMissingWellData    WarningCode = "missing_well_data"
	WarnAuditUnavailable   WarningCode = "audit_unavailable"
	WarnNonFiniteValue     WarningCode = "non_finite_value"
)

// Warning is a non-fatal finding surfaced alongside the results.
type Warning struct {
	Code    WarningCode `json:"code"`
	Well    core.WellID `json:"well,omitempty"`
	Sample  string      `json:"sample,omitempty"`
	Message string      `json:"message"`
}

// Report is the complete result of analyzing one file.
type Report struct {
	RunID      core.RunID      `json:"run_id,omitempty"`
	FileName   string          `json:"file_name"`
	AssayType  AssayType       `json:"assay_type"`
	Effector   *EffectorEvent  `json:"effector,omitempty"`
	Wells      []WellResult    `json:"wells"`
	Samples    []SampleSummary `json:"samples"`
	Outcome    AssayOutcome    `json:"outcome"`
	Warnings   []Warning       `json:"warnings"`
	Audit      []AuditEvent    `json:"audit,omitempty"`
	AnalyzedAt time.Time       `json:"analyzed_at,omitempty"`
}

// Sample returns the summary for name.
func (r *Report) Sample(name string) (SampleSummary, bool) {
	for _, s := range r.Samples {
		if s.Stats.Sample == name {
			return s, true
		}
	}
	return SampleSummary{}, false
}

// WellsOf returns the well results belonging to sample, in report order.
func (r *Report) WellsOf(sample string) []WellResult {
	var out []WellResult
	for _, w := range r.Wells {
		if w.Sample == sample {
			out = append(out, w)
		}
	}
	return out
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	cp := *r
	if r.Effector != nil {
		e := *r.Effector
		cp.Effector = &e
	}

	cp.Wells = slices.Clone(r.Wells)
	for i, w := range cp.Wells {
		if w.HalfKill != nil {
			hk := *w.HalfKill
			cp.Wells[i].HalfKill = &hk
		}
		if w.FirstBelowHalf != nil {
			p := *w.FirstBelowHalf
			cp.Wells[i].FirstBelowHalf = &p
		}
	}

	cp.Samples = slices.Clone(r.Samples)
	for i, s := range cp.Samples {
		cp.Samples[i].Stats.Mean = cloneFloat(s.Stats.Mean)
		cp.Samples[i].Stats.StdDev = cloneFloat(s.Stats.StdDev)
		cp.Samples[i].Stats.CV = cloneFloat(s.Stats.CV)
		if s.Validity != nil {
			v := *s.Validity
			cp.Samples[i].Validity = &v
		}
	}

	cp.Warnings = slices.Clone(r.Warnings)
	cp.Audit = slices.Clone(r.Audit)
	return &cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
