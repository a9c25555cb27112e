package analysis

import (
	"regexp"
	"strings"

	"killcurve/domain/assay"
)

// Criteria are the acceptance limits of the validity rule.
type Criteria struct {
	MaxCV         float64 `json:"max_cv"`
	MaxMeanHours  float64 `json:"max_mean_hours"`
	MinReplicates int     `json:"min_replicates"`
	PCMarker      string  `json:"pc_marker"`
}

// DefaultCriteria returns the laboratory's standard limits.
func DefaultCriteria() Criteria {
	return Criteria{
		MaxCV:         30,
		MaxMeanHours:  12,
		MinReplicates: 3,
		PCMarker:      "SSS",
	}
}

// Classify applies the four-criterion validity rule. It is used unchanged for
// ordinary samples and for the positive control.
func Classify(s assay.SampleStats, wells []assay.WellResult, c Criteria) assay.Validity {
	v := assay.Validity{
		CVPass:     s.CV != nil && *s.CV <= c.MaxCV,
		MeanPass:   s.Mean != nil && *s.Mean <= c.MaxMeanHours,
		AllKilled:  len(wells) > 0,
		NoRecovery: true,
	}
	for _, w := range wells {
		if !w.Killed {
			v.AllKilled = false
		}
		if w.RecoveredAtEnd {
			v.NoRecovery = false
		}
	}

	v.Verdict = assay.Invalid
	if v.CVPass && v.AllKilled && v.MeanPass && v.NoRecovery {
		v.Verdict = assay.Valid
	}
	return v
}

var onlyWord = regexp.MustCompile(`(?i)\bonly\b`)

// IsNegativeControl recognizes medium-only sample names: names starting with
// MED or CMM, or containing the word "only", all case-insensitive.
func IsNegativeControl(sample string) bool {
	name := strings.ToUpper(strings.TrimSpace(sample))
	return strings.HasPrefix(name, "MED") ||
		strings.HasPrefix(name, "CMM") ||
		onlyWord.MatchString(name)
}

// NegativeControlBehavior passes when every medium well either never dropped
// below half of its maximum or recovered by the last time point.
func NegativeControlBehavior(wells []assay.WellResult) bool {
	for _, w := range wells {
		if w.Killed && !w.RecoveredAtEnd {
			return false
		}
	}
	return true
}
