package normalise

import "fmt"

// Step names one stage of the pipeline.
type Step string

const (
	StepClassify   Step = "classify"
	StepDiscover   Step = "discover"
	StepOutline    Step = "outline"
	StepFlatten    Step = "flatten"
	StepReposition Step = "reposition"
	StepConstrain  Step = "constrain"
	StepResize     Step = "resize"
	StepRecolour   Step = "recolour"
	StepCleanup    Step = "cleanup"
)

// Status is how a step ended.
type Status string

const (
	StatusApplied  Status = "applied"
	StatusSkipped  Status = "skipped"
	StatusDegraded Status = "degraded"
)

// StepResult records one step of one item.
type StepResult struct {
	Step   Step   `json:"step"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// State is the terminal state of an item.
type State string

const (
	StateSkipped    State = "skipped"
	StateNormalised State = "normalised"
	StateFailed     State = "failed"
)

// Outcome is the result of one processed item.
type Outcome struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	State  State        `json:"state"`
	Steps  []StepResult `json:"steps,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

func (o *Outcome) record(step Step, status Status, format string, args ...any) {
	o.Steps = append(o.Steps, StepResult{Step: step, Status: status, Reason: fmt.Sprintf(format, args...)})
}

// Degraded returns the steps that degraded to a no-op.
func (o Outcome) Degraded() []StepResult {
	var out []StepResult
	for _, s := range o.Steps {
		if s.Status == StatusDegraded {
			out = append(out, s)
		}
	}
	return out
}

// Report collects the outcomes of a run in selection order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Count returns the number of outcomes in state s.
func (r Report) Count(s State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == s {
			n++
		}
	}
	return n
}

// Normalised returns the number of items normalised.
func (r Report) Normalised() int {
	return r.Count(StateNormalised)
}
