package analysis

import (
	"fmt"
	"strings"

	"killcurve/domain/assay"
	"killcurve/domain/core"
)

// ResolvePositiveControl picks the positive-control sample. A non-empty manual
// choice wins and must name a known sample. Otherwise the control is selected
// automatically only when exactly one sample name contains marker; zero or
// several matches leave it unresolved for the operator to choose.
func ResolvePositiveControl(samples []string, marker, manual string) (string, assay.PCSource, error) {
	if manual = strings.TrimSpace(manual); manual != "" {
		for _, s := range samples {
			if s == manual {
				return s, assay.PCManual, nil
			}
		}
		return "", assay.PCNone, fmt.Errorf("%w: positive control %q", core.ErrUnknownSample, manual)
	}

	if marker == "" {
		return "", assay.PCNone, nil
	}

	var matches []string
	for _, s := range samples {
		if strings.Contains(s, marker) {
			matches = append(matches, s)
		}
	}
	if len(matches) != 1 {
		return "", assay.PCNone, nil
	}
	return matches[0], assay.PCAuto, nil
}

// DecideStatus combines the control checks into the run status. Without a
// positive control the run cannot be confirmed and stays Pending.
func DecideStatus(ncFound, ncBehavior, pcSelected, pcValid bool) assay.AssayStatus {
	if !pcSelected {
		return assay.StatusPending
	}
	if ncFound && ncBehavior && pcValid {
		return assay.StatusPass
	}
	return assay.StatusFail
}
