package excel

import (
	"fmt"
	"strings"

	"killcurve/internal/analysis"
)

// ExportConfig holds settings for the results workbook
type ExportConfig struct {
	Criteria analysis.Criteria
	// AppVersion is written to the summary sheet.
	AppVersion string
	// Protect locks every sheet against editing.
	Protect bool
}

// DefaultExportConfig returns the standard export settings
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Criteria:   analysis.DefaultCriteria(),
		AppVersion: "dev",
		Protect:    true,
	}
}

// SampleCriteriaText renders the validity checklist shown in the summary sheet.
func (c ExportConfig) SampleCriteriaText() string {
	return strings.Join([]string{
		fmt.Sprintf("1. %%CV <= %g%%", c.Criteria.MaxCV),
		"2. Killed below half max cell index = Yes for all wells",
		fmt.Sprintf("3. Average half-killing time <= %g hours", c.Criteria.MaxMeanHours),
		"4. Cell index does NOT recover above half-max at last time point",
	}, "\n")
}

// NegativeControlCriteriaText renders the medium-control checklist.
func (c ExportConfig) NegativeControlCriteriaText() string {
	return strings.Join([]string{
		"1. Medium/only/CMM sample found in data",
		"2. Medium/only/CMM either:",
		"   - Never drops below half of max cell index",
		"   OR",
		"   - Recovers above half-max at last time point",
	}, "\n")
}
