package analysis

import (
	"testing"

	"killcurve/domain/assay"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	c := DefaultCriteria()
	allKilled := []assay.WellResult{killed(5), killed(6), killed(7)}

	tests := []struct {
		name  string
		stats assay.SampleStats
		wells []assay.WellResult
		want  assay.Validity
	}{
		{
			name:  "valid",
			stats: assay.SampleStats{Mean: ptr(6), CV: ptr(16.7)},
			wells: allKilled,
			want:  assay.Validity{Verdict: assay.Valid, CVPass: true, AllKilled: true, MeanPass: true, NoRecovery: true},
		},
		{
			name:  "limits are inclusive",
			stats: assay.SampleStats{Mean: ptr(12), CV: ptr(30)},
			wells: allKilled,
			want:  assay.Validity{Verdict: assay.Valid, CVPass: true, AllKilled: true, MeanPass: true, NoRecovery: true},
		},
		{
			name:  "cv too high",
			stats: assay.SampleStats{Mean: ptr(6), CV: ptr(30.01)},
			wells: allKilled,
			want:  assay.Validity{Verdict: assay.Invalid, CVPass: false, AllKilled: true, MeanPass: true, NoRecovery: true},
		},
		{
			name:  "undefined cv fails",
			stats: assay.SampleStats{Mean: ptr(6)},
			wells: allKilled,
			want:  assay.Validity{Verdict: assay.Invalid, CVPass: false, AllKilled: true, MeanPass: true, NoRecovery: true},
		},
		{
			name:  "mean too slow",
			stats: assay.SampleStats{Mean: ptr(12.5), CV: ptr(10)},
			wells: allKilled,
			want:  assay.Validity{Verdict: assay.Invalid, CVPass: true, AllKilled: true, MeanPass: false, NoRecovery: true},
		},
		{
			name:  "one well not killed",
			stats: assay.SampleStats{Mean: ptr(6), CV: ptr(10)},
			wells: []assay.WellResult{killed(5), killed(7), {Killed: false}},
			want:  assay.Validity{Verdict: assay.Invalid, CVPass: true, AllKilled: false, MeanPass: true, NoRecovery: true},
		},
		{
			name:  "recovery at end",
			stats: assay.SampleStats{Mean: ptr(6), CV: ptr(10)},
			wells: []assay.WellResult{killed(5), killed(7), {Killed: true, RecoveredAtEnd: true, HalfKill: &assay.HalfKill{Hour: 6}}},
			want:  assay.Validity{Verdict: assay.Invalid, CVPass: true, AllKilled: true, MeanPass: true, NoRecovery: false},
		},
		{
			name:  "no wells",
			stats: assay.SampleStats{},
			wells: nil,
			want:  assay.Validity{Verdict: assay.Invalid, NoRecovery: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stats, tt.wells, c))
		})
	}
}

func TestIsNegativeControl(t *testing.T) {
	cases := map[string]bool{
		"Medium":          true,
		"medium":          true,
		"MED":             true,
		" Med 2":          true,
		"CMM":             true,
		"cmm + IL2":       true,
		"Target only":     true,
		"T cells ONLY":    true,
		"only":            true,
		"Nalm6-only":      true,
		"SSS-CAR":         false,
		"CAR-T 1":         false,
		"Onlyfans":        false,
		"Commando":        false,
		"Premedication":   false,
		"Untransduced T":  false,
		"":                false,
	}

	for name, want := range cases {
		assert.Equal(t, want, IsNegativeControl(name), "sample %q", name)
	}
}

func TestNegativeControlBehavior(t *testing.T) {
	assert.True(t, NegativeControlBehavior([]assay.WellResult{{Killed: false}, {Killed: false}}))
	assert.True(t, NegativeControlBehavior([]assay.WellResult{{Killed: true, RecoveredAtEnd: true}, {Killed: false}}))
	assert.False(t, NegativeControlBehavior([]assay.WellResult{{Killed: false}, {Killed: true, RecoveredAtEnd: false}}))
	assert.True(t, NegativeControlBehavior(nil))
}
