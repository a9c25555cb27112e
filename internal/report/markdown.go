package report

import (
	"fmt"
	"strings"
	"time"

	"killcurve/domain/assay"
)

// Markdown renders a run summary: overview, sample table, well table and
// warnings. Undefined statistics are rendered as "-".
func Markdown(r *assay.Report) string {
	var sb strings.Builder

	sb.Grow(4096)

	writeTitle(&sb, r)
	writeOverview(&sb, r)
	writeSamples(&sb, r.Samples)
	writeWells(&sb, r.Wells)
	writeWarnings(&sb, r.Warnings)

	return sb.String()
}

func writeTitle(sb *strings.Builder, r *assay.Report) {
	fmt.Fprintf(sb, "# Killing Assay: %s\n\n", escape(r.FileName))
}

func writeOverview(sb *strings.Builder, r *assay.Report) {
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")

	fmt.Fprintf(sb, "| Status | **%s** |\n", r.Outcome.Status)
	fmt.Fprintf(sb, "| Assay | %s |\n", r.AssayType)

	if r.RunID != "" {
		fmt.Fprintf(sb, "| Run | `%s` |\n", r.RunID)
	}

	if !r.AnalyzedAt.IsZero() {
		fmt.Fprintf(sb, "| Analyzed | %s |\n", r.AnalyzedAt.UTC().Format(time.RFC3339))
	}

	if r.Effector != nil {
		fmt.Fprintf(sb, "| Effector added | %s (event %d) |\n", r.Effector.HMS, r.Effector.ID)
	} else {
		sb.WriteString("| Effector added | not recorded, full series used |\n")
	}

	pc := "none"
	if r.Outcome.PositiveControl != "" {
		pc = fmt.Sprintf("%s (%s)", escape(r.Outcome.PositiveControl), r.Outcome.PositiveControlSource)
	}
	fmt.Fprintf(sb, "| Positive control | %s |\n", pc)
	fmt.Fprintf(sb, "| Positive control valid | %s |\n", yesNo(r.Outcome.PositiveControlValid))
	fmt.Fprintf(sb, "| Negative control found | %s |\n", yesNo(r.Outcome.NegativeControlFound))
	fmt.Fprintf(sb, "| Negative control grows | %s |\n", yesNo(r.Outcome.NegativeControlBehavior))

	sb.WriteString("\n")
}

func writeSamples(sb *strings.Builder, samples []assay.SampleSummary) {
	if len(samples) == 0 {
		return
	}

	sb.WriteString("## Samples\n\n")
	sb.WriteString("| Sample | Role | Replicates | Killed | Mean (h) | SD (h) | CV (%) | Verdict |\n")
	sb.WriteString("|---|---|---:|---|---:|---:|---:|---|\n")

	for _, s := range samples {
		verdict := "-"
		if s.Validity != nil {
			verdict = string(s.Validity.Verdict)
		}
		fmt.Fprintf(sb, "| %s | %s | %d | %s | %s | %s | %s | %s |\n",
			escape(s.Stats.Sample), s.Stats.Role, s.Stats.Replicates, s.Stats.KillSummary(),
			number(s.Stats.Mean), number(s.Stats.StdDev), number(s.Stats.CV), verdict)
	}

	sb.WriteString("\n")
}

func writeWells(sb *strings.Builder, wells []assay.WellResult) {
	if len(wells) == 0 {
		return
	}

	sb.WriteString("## Wells\n\n")
	sb.WriteString("| Well | Sample | Max CI | Time at max | Killed | Half-kill time | Half-kill CI |\n")
	sb.WriteString("|---|---|---:|---|---|---|---:|\n")

	for _, w := range wells {
		halfTime, halfCI := "-", "-"
		if w.HalfKill != nil {
			halfTime = w.HalfKill.HMS
			halfCI = fmt.Sprintf("%.4f", w.HalfKill.CellIndex)
		}
		fmt.Fprintf(sb, "| %s | %s | %.4f | %s | %s | %s | %s |\n",
			w.Well, escape(w.Sample), w.MaxCellIndex, w.MaxTimeHMS, yesNo(w.Killed), halfTime, halfCI)
	}

	sb.WriteString("\n")
}

func writeWarnings(sb *strings.Builder, warnings []assay.Warning) {
	if len(warnings) == 0 {
		return
	}

	sb.WriteString("## Warnings\n\n")
	for _, w := range warnings {
		fmt.Fprintf(sb, "- `%s`: %s\n", w.Code, escape(w.Message))
	}
	sb.WriteString("\n")
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// escape keeps user-entered names from breaking table cells.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
