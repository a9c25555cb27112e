package analysis

import (
	"fmt"
	"math"

	"killcurve/domain/assay"
	"killcurve/domain/core"

	"gonum.org/v1/gonum/floats"
)

// AnalyzeWell computes the half-killing kinetics of one (already windowed)
// series. viability is the assay threshold; it only feeds ReachedViability.
//
// The kill threshold is always half of the well's own maximum. A well is
// killed when some point strictly after the maximum falls below it.
func AnalyzeWell(r assay.WellReading, viability float64) (assay.WellResult, error) {
	if len(r.Points) == 0 {
		return assay.WellResult{}, fmt.Errorf("%w: well %s", core.ErrEmptySeries, r.Well)
	}

	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		values[i] = p.CellIndex
	}

	// MaxIdx returns the first index on ties, i.e. the earliest maximum.
	maxIdx := floats.MaxIdx(values)
	maxPoint := r.Points[maxIdx]
	half := maxPoint.CellIndex / 2
	last := r.Last()

	res := assay.WellResult{
		Well:             r.Well,
		Points:           len(r.Points),
		MaxCellIndex:     maxPoint.CellIndex,
		MaxTimeHour:      maxPoint.Hour,
		MaxTimeHMS:       maxPoint.HMS,
		HalfThreshold:    half,
		FinalCellIndex:   last.CellIndex,
		RecoveredAtEnd:   last.CellIndex >= half,
		ReachedViability: viability <= 0 || maxPoint.CellIndex >= viability,
	}

	for i := maxIdx + 1; i < len(r.Points); i++ {
		if r.Points[i].CellIndex < half {
			p := r.Points[i]
			res.Killed = true
			res.FirstBelowHalf = &p
			break
		}
	}
	if !res.Killed {
		return res, nil
	}

	idx := ClosestToTarget(r.Points, maxIdx, half)
	hk := r.Points[idx]
	res.HalfKill = &assay.HalfKill{
		Hour:         hk.Hour,
		HMS:          hk.HMS,
		CellIndex:    hk.CellIndex,
		ElapsedHours: hk.Hour - maxPoint.Hour,
	}

	return res, nil
}

// ClosestToTarget returns the index in points[from:] whose cell index has the
// smallest absolute distance to target. Ties resolve to the earliest point.
// It returns -1 when from is out of range.
func ClosestToTarget(points []assay.Point, from int, target float64) int {
	if from < 0 || from >= len(points) {
		return -1
	}

	best := from
	bestDiff := math.Abs(points[from].CellIndex - target)
	for i := from + 1; i < len(points); i++ {
		if d := math.Abs(points[i].CellIndex - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}
