package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorBold     = "\033[1m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// termMu serialises log writes with the banner and rules so a run's framing
// never interleaves with structured events.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer for log output that is serialised with
// PrintBanner and PrintRule.
func NewTermWriter() io.Writer {
	return termWriter{}
}

// Rule returns a horizontal rule sized to the terminal, capped at 80 columns.
func Rule(ch string) string {
	return strings.Repeat(ch, clamp(termWidth(), 20, 80))
}

// PrintBanner frames the start of a CLI run.
func PrintBanner(w io.Writer, input string) {
	termMu.Lock()
	defer termMu.Unlock()

	title := "PAPER SUMMARIZER AGENT"
	if isTerminal() {
		title = colorBold + colorNeonCyan + title + colorReset
	}
	fmt.Fprintf(w, "\n%s\n%s\n%s\nInput: %s\n\n", Rule("="), title, Rule("="), input)
}

// PrintComplete frames the end of a successful run.
func PrintComplete(w io.Writer) {
	termMu.Lock()
	defer termMu.Unlock()

	msg := "SUMMARIZATION COMPLETE"
	if isTerminal() {
		msg = colorNeonMag + msg + colorReset
	}
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", Rule("="), msg, Rule("="))
}

// PrintSection writes a titled block such as the final summary.
func PrintSection(w io.Writer, title, body string) {
	termMu.Lock()
	defer termMu.Unlock()

	fmt.Fprintf(w, "%s\n%s\n%s\n%s\n", title, Rule("-"), body, Rule("-"))
}
