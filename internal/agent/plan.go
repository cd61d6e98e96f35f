package agent

import "fmt"

// Stage is one step of the summarization pipeline. Stages run in their
// numeric order; there is no branching.
type Stage int

const (
	StageExtract Stage = iota + 1
	StageClean
	StageSummarize
	StageFormat
)

var stageNames = map[Stage]string{
	StageExtract:   "extract_text",
	StageClean:     "clean_text",
	StageSummarize: "summarize",
	StageFormat:    "format_output",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Symbolic inputs for steps 2-4. They document the data dependency; the
// executor wires each stage to its predecessor directly.
const (
	InputExtractedText = "extracted_text"
	InputCleanText     = "clean_text"
	InputSummary       = "summary"
)

// Step represents a single sub-task in the plan.
type Step struct {
	Ordinal     int    `json:"step"`
	Action      Stage  `json:"-"`
	Input       string `json:"input"`
	Description string `json:"description"`
}

// Plan is the fixed, ordered sequence of steps for one document. The zero
// value has no steps.
type Plan struct {
	steps []Step
}

// CreatePlan builds the four-step plan for ref. It never fails: whether ref
// points at anything readable is discovered during execution.
func CreatePlan(ref string) Plan {
	return Plan{steps: []Step{
		{Ordinal: 1, Action: StageExtract, Input: ref, Description: "Extract all text from PDF"},
		{Ordinal: 2, Action: StageClean, Input: InputExtractedText, Description: "Isolate relevant sections (abstract/introduction)"},
		{Ordinal: 3, Action: StageSummarize, Input: InputCleanText, Description: "Generate concise summary"},
		{Ordinal: 4, Action: StageFormat, Input: InputSummary, Description: "Format and finalize output"},
	}}
}

// Steps returns a copy of the plan's steps.
func (p Plan) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Len is the number of steps.
func (p Plan) Len() int {
	return len(p.steps)
}

// Descriptions renders "Step N: description" lines for logging.
func (p Plan) Descriptions() []string {
	out := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		out = append(out, fmt.Sprintf("Step %d: %s", s.Ordinal, s.Description))
	}
	return out
}

// input is the document reference the plan was created for.
func (p Plan) input() string {
	if len(p.steps) == 0 {
		return ""
	}
	return p.steps[0].Input
}
