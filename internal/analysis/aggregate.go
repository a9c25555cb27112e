package analysis

import (
	"fmt"
	"math"

	"killcurve/domain/assay"

	"github.com/montanaflynn/stats"
)

// Aggregate summarizes the wells of one sample. Replicates counts every well;
// the statistics only use killed wells' half-kill hours. Mean needs one killed
// well, standard deviation and %CV need two, and %CV also needs a non-zero mean.
func Aggregate(sample string, wells []assay.WellResult, minReplicates int) (assay.SampleStats, []assay.Warning) {
	s := assay.SampleStats{
		Sample:     sample,
		Role:       assay.RoleSample,
		Replicates: len(wells),
	}

	var warnings []assay.Warning
	if s.Replicates < minReplicates {
		warnings = append(warnings, assay.Warning{
			Code:    assay.WarnLowReplicates,
			Sample:  sample,
			Message: fmt.Sprintf("sample %q has %d replicate(s), fewer than %d", sample, s.Replicates, minReplicates),
		})
	}

	times := make(stats.Float64Data, 0, len(wells))
	for _, w := range wells {
		if w.Killed && w.HalfKill != nil {
			times = append(times, w.HalfKill.Hour)
		}
	}
	s.Killed = len(times)
	if s.Killed == 0 {
		return s, warnings
	}

	mean, err := stats.Mean(times)
	if err != nil {
		return s, warnings
	}
	s.Mean = &mean

	if s.Killed < 2 {
		return s, warnings
	}
	sd, err := stats.StandardDeviationSample(times)
	if err != nil || math.IsNaN(sd) {
		return s, warnings
	}
	s.StdDev = &sd

	if mean != 0 {
		cv := 100 * sd / math.Abs(mean)
		s.CV = &cv
	}

	return s, warnings
}
