package analysis

import (
	"killcurve/domain/assay"
	"killcurve/domain/core"
)

// clockHour is the point's elapsed time as read from its hh:mm:ss column,
// falling back to the decimal hour column. The clock string has the same
// resolution as the audit trail, the rounded decimal column does not.
func clockHour(p assay.Point) float64 {
	if p.HMS != "" {
		if h, err := core.ParseHMS(p.HMS); err == nil {
			return h
		}
	}
	return p.Hour
}

// FilterWindow restricts a series to points at or after the effector time.
// With no effector the series is returned unchanged. If no point falls in the
// window the unfiltered series is returned and ok is false.
func FilterWindow(r assay.WellReading, effector *assay.EffectorEvent) (assay.WellReading, bool) {
	if effector == nil {
		return r, true
	}

	kept := make([]assay.Point, 0, len(r.Points))
	for _, p := range r.Points {
		if clockHour(p) >= effector.Hour {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return r, false
	}

	return assay.WellReading{Well: r.Well, Points: kept}, true
}
