package summarize

import "strings"

// MaxSummaryChars bounds every sanitized summary.
const MaxSummaryChars = 800

const summaryMarker = "Summary:"

// stopPhrases mark where a base model drifts into inventing the rest of a
// paper. Order matters: each cut operates on the output of the previous one.
var stopPhrases = []string{
	"Question:", "Questions:", "[QUESTION", "[Q:", "Q:",
	"References:", "Reference:", "Bibliography:",
	"\n\n##", "##",
	"Introduction:", "Conclusion:",
	"Note:", "Notes:",
	"Acknowledgment", "Acknowledgement",
	"Appendix", "Figure", "Table",
}

// Sanitize trims raw model output down to the summary itself. It keeps the
// text after the first "Summary:" marker (or drops the echoed prompt when
// the marker is absent), cuts at the first stop phrase, collapses
// whitespace and clips to MaxSummaryChars runes.
func Sanitize(raw, prompt string) string {
	var summary string
	if _, after, ok := strings.Cut(raw, summaryMarker); ok {
		summary = strings.TrimSpace(after)
	} else {
		if prompt != "" {
			raw = strings.ReplaceAll(raw, prompt, "")
		}
		summary = strings.TrimSpace(raw)
	}

	for _, phrase := range stopPhrases {
		if before, _, ok := strings.Cut(summary, phrase); ok {
			summary = strings.TrimSpace(before)
		}
	}

	summary = strings.Join(strings.Fields(summary), " ")

	if r := []rune(summary); len(r) > MaxSummaryChars {
		summary = string(r[:MaxSummaryChars])
	}
	return summary
}
