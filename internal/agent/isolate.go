package agent

import "strings"

// Marker lists are scanned in order and the first listed marker present in
// the text wins, even when a later-listed one occurs earlier in the text.
var (
	abstractStartMarkers = []string{
		"Abstract",
		"ABSTRACT",
		"Summary",
		"Introduction",
		"1. Introduction",
		"I. INTRODUCTION",
	}
	abstractEndMarkers = []string{
		"Keywords:",
		"Key words:",
		"1. Introduction",
		"1 Introduction",
		"I. INTRODUCTION",
		"Contents",
		"Introduction\n",
	}
)

const (
	noMarkerWindow  = 3000
	fallbackWindow  = 2000
	minSectionRunes = 50
)

// isolation records how IsolateSection arrived at its answer.
type isolation struct {
	Start    string // start marker used, "" when none matched
	End      string // end marker used, "" when none matched
	Fallback bool   // section was too short and the document head was used
}

// IsolateSection returns the abstract (or introduction) of a paper's text.
// It never fails: without markers it uses the head of the document, and a
// section shorter than 50 characters is replaced by the first 2000
// characters of the original text.
func IsolateSection(text string) string {
	s, _ := isolateSection(text)
	return s
}

func isolateSection(text string) (string, isolation) {
	var info isolation

	working := headRunes(text, noMarkerWindow)
	for _, marker := range abstractStartMarkers {
		if _, after, ok := strings.Cut(text, marker); ok {
			working = after
			info.Start = marker
			break
		}
	}

	for _, marker := range abstractEndMarkers {
		if before, _, ok := strings.Cut(working, marker); ok {
			working = before
			info.End = marker
			break
		}
	}

	cleaned := strings.ReplaceAll(strings.TrimSpace(working), "\n", " ")
	if len([]rune(cleaned)) < minSectionRunes {
		info.Fallback = true
		cleaned = strings.ReplaceAll(headRunes(text, fallbackWindow), "\n", " ")
	}
	return cleaned, info
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
