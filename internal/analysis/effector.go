package analysis

import (
	"fmt"

	"killcurve/domain/assay"
	"killcurve/domain/core"
)

// ResolveEffector finds the effector-addition time: the most recent
// "Continue Experiment" entry of the audit trail. A missing trail, no matching
// action, or an unparseable time all yield nil so legacy files stay usable.
func ResolveEffector(events []assay.AuditEvent) (*assay.EffectorEvent, []assay.Warning) {
	var chosen *assay.AuditEvent
	for i := range events {
		if events[i].Action != assay.ContinueExperiment {
			continue
		}
		if chosen == nil || events[i].ID > chosen.ID {
			chosen = &events[i]
		}
	}
	if chosen == nil {
		return nil, nil
	}

	hour, err := core.ParseHMS(chosen.Time)
	if err != nil {
		return nil, []assay.Warning{{
			Code:    assay.WarnMalformedAuditTime,
			Message: fmt.Sprintf("audit event %d: %v; using full time series", chosen.ID, err),
		}}
	}

	return &assay.EffectorEvent{ID: chosen.ID, HMS: chosen.Time, Hour: hour}, nil
}
