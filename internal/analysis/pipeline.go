package analysis

import (
	"fmt"

	"killcurve/domain/assay"
	"killcurve/domain/core"
)

// Input is everything the ingestion collaborator hands to the core for one file.
type Input struct {
	FileName  string
	AssayType assay.AssayType
	Series    []assay.WellReading
	Layout    []assay.WellMetadata
	// Audit is nil when the file carries no audit trail.
	Audit []assay.AuditEvent
	// ManualPositiveControl overrides automatic positive-control detection.
	ManualPositiveControl string
	// Normalized is set when the ingestion detected pre-normalized data.
	Normalized bool
	// Warnings raised during ingestion are carried into the report.
	Warnings []assay.Warning
}

// Analyzer runs the full analysis of one file. It holds only configuration and
// is safe for concurrent use.
type Analyzer struct {
	criteria Criteria
}

// NewAnalyzer creates an analyzer with the given acceptance criteria.
func NewAnalyzer(criteria Criteria) *Analyzer {
	return &Analyzer{criteria: criteria}
}

// Criteria returns the analyzer's acceptance limits.
func (a *Analyzer) Criteria() Criteria {
	return a.criteria
}

// Analyze is a pure function of its input: no clock, no identifiers, no I/O.
// RunID and AnalyzedAt are left for the caller to stamp.
func (a *Analyzer) Analyze(in Input) (*assay.Report, error) {
	if in.Normalized {
		return nil, fmt.Errorf("%s: %w", in.FileName, core.ErrNormalizedData)
	}
	if !in.AssayType.Valid() {
		return nil, fmt.Errorf("%s: %w", in.FileName, core.ErrUnknownAssayType)
	}

	mapped := make(map[core.WellID]bool, len(in.Layout))
	for _, meta := range in.Layout {
		if meta.Sample != "" {
			mapped[meta.Well] = true
		}
	}

	// Unused wells often export as blank columns; only mapped wells must have data.
	series := make(map[core.WellID]assay.WellReading, len(in.Series))
	for _, r := range in.Series {
		if len(r.Points) == 0 && mapped[r.Well] {
			return nil, fmt.Errorf("%s: %w: well %s", in.FileName, core.ErrEmptySeries, r.Well)
		}
		series[r.Well] = r
	}

	report := &assay.Report{
		FileName:  in.FileName,
		AssayType: in.AssayType,
		Audit:     in.Audit,
		Warnings:  append([]assay.Warning(nil), in.Warnings...),
	}

	effector, warnings := ResolveEffector(in.Audit)
	report.Effector = effector
	report.Warnings = append(report.Warnings, warnings...)

	wells, order, warnings, err := a.analyzeWells(in, series, effector)
	if err != nil {
		return nil, err
	}
	report.Wells = wells
	report.Warnings = append(report.Warnings, warnings...)

	bySample := make(map[string][]assay.WellResult, len(order))
	for _, w := range wells {
		bySample[w.Sample] = append(bySample[w.Sample], w)
	}

	pc, source, err := ResolvePositiveControl(order, a.criteria.PCMarker, in.ManualPositiveControl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.FileName, err)
	}

	outcome := assay.AssayOutcome{PositiveControl: pc, PositiveControlSource: source}
	var controlWells []assay.WellResult

	for _, name := range order {
		sampleWells := bySample[name]
		stats, warnings := Aggregate(name, sampleWells, a.criteria.MinReplicates)
		report.Warnings = append(report.Warnings, warnings...)

		summary := assay.SampleSummary{Stats: stats}
		switch {
		case name == pc:
			summary.Stats.Role = assay.RolePositiveControl
			v := Classify(stats, sampleWells, a.criteria)
			summary.Validity = &v
			outcome.PositiveControlValid = v.Verdict == assay.Valid
		case IsNegativeControl(name):
			summary.Stats.Role = assay.RoleNegativeControl
			outcome.NegativeControlFound = true
			controlWells = append(controlWells, sampleWells...)
		default:
			v := Classify(stats, sampleWells, a.criteria)
			summary.Validity = &v
		}
		report.Samples = append(report.Samples, summary)
	}

	outcome.NegativeControlBehavior = outcome.NegativeControlFound && NegativeControlBehavior(controlWells)
	outcome.Status = DecideStatus(
		outcome.NegativeControlFound,
		outcome.NegativeControlBehavior,
		source != assay.PCNone,
		outcome.PositiveControlValid,
	)
	report.Outcome = outcome

	return report, nil
}

// analyzeWells windows and analyzes every mapped well in layout order. It
// returns the sample names in order of first appearance.
func (a *Analyzer) analyzeWells(
	in Input,
	series map[core.WellID]assay.WellReading,
	effector *assay.EffectorEvent,
) ([]assay.WellResult, []string, []assay.Warning, error) {
	var (
		results  []assay.WellResult
		order    []string
		warnings []assay.Warning
	)
	seenWell := make(map[core.WellID]bool, len(in.Layout))
	seenSample := make(map[string]bool)
	viability := in.AssayType.Threshold()

	for _, meta := range in.Layout {
		if meta.Sample == "" || seenWell[meta.Well] {
			continue
		}
		seenWell[meta.Well] = true

		reading, ok := series[meta.Well]
		if !ok {
			warnings = append(warnings, assay.Warning{
				Code:    assay.WarnMissingWellData,
				Well:    meta.Well,
				Sample:  meta.Sample,
				Message: fmt.Sprintf("well %s (%s) has no cell index column", meta.Well, meta.Sample),
			})
			continue
		}

		windowed, inWindow := FilterWindow(reading, effector)
		if !inWindow {
			warnings = append(warnings, assay.Warning{
				Code:    assay.WarnEffectorAfterData,
				Well:    meta.Well,
				Sample:  meta.Sample,
				Message: fmt.Sprintf("effector time %s is after the last reading of well %s; using full series", effector.HMS, meta.Well),
			})
		}

		res, err := AnalyzeWell(windowed, viability)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", in.FileName, err)
		}
		res.Sample = meta.Sample
		res.CellType = meta.CellType
		if !res.ReachedViability {
			warnings = append(warnings, assay.Warning{
				Code:    assay.WarnBelowViability,
				Well:    meta.Well,
				Sample:  meta.Sample,
				Message: fmt.Sprintf("well %s never reaches the %s viability threshold %.1f", meta.Well, in.AssayType, viability),
			})
		}

		results = append(results, res)
		if !seenSample[meta.Sample] {
			seenSample[meta.Sample] = true
			order = append(order, meta.Sample)
		}
	}

	return results, order, warnings, nil
}
