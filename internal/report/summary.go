package report

import (
	"regexp"
	"strings"
)

// SummaryFallback is returned whenever no primary diagnosis can be located.
const SummaryFallback = "No clear primary diagnosis found – needs manual review."

const assessmentHeading = "Diagnostic Assessment"

// rePrimaryDiagnosis matches a "Primary Diagnosis:" label at the start of a
// line, tolerating list bullets and markdown bold around the label.
var rePrimaryDiagnosis = regexp.MustCompile(`(?im)^\s*(?:[-*+]\s+)?(?:\*\*)?\s*primary diagnosis\s*(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)

// ExtractSummary derives a one-line primary-diagnosis summary from the
// report markdown. It is a best-effort text scan, not a structured parse: it
// narrows to the "Diagnostic Assessment" section when that heading exists
// (otherwise it scans the whole text), then looks for the first
// "Primary Diagnosis:" line. No match resolves to SummaryFallback, never an
// error. Pure function of its input.
func ExtractSummary(markdown string) string {
	section := markdown
	if i := strings.Index(markdown, assessmentHeading); i >= 0 {
		section = markdown[i:]
	}

	m := rePrimaryDiagnosis.FindStringSubmatch(section)
	if m == nil {
		return SummaryFallback
	}
	line := strings.TrimSpace(strings.ReplaceAll(m[1], "**", ""))
	if line == "" {
		return SummaryFallback
	}
	return line
}
