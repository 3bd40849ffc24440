package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepRefine is the refinement planning step name.
const StepRefine = "refine"

// Refiner prepares the next write pass after a non-passing review: it
// snapshots the current draft as the previous plan, increments the
// refinement counter, and derives a guideline from the review. Whether
// another pass happens at all is the router's decision, not the
// refiner's.
type Refiner struct {
	LLM llm.Client
}

func (r *Refiner) Name() string       { return StepRefine }
func (r *Refiner) Requires() []string { return []string{"draft", "review"} }

func (r *Refiner) Run(ctx context.Context, st state.State) (state.State, error) {
	rev := st.Review

	var b strings.Builder
	fmt.Fprintf(&b, "리뷰 결과: %s (%d/10)\n", rev.Verdict, rev.OverallScore)
	if len(rev.CriticalIssues) > 0 {
		fmt.Fprintf(&b, "치명적 문제:\n- %s\n", strings.Join(rev.CriticalIssues, "\n- "))
	}
	if len(rev.Weaknesses) > 0 {
		fmt.Fprintf(&b, "약점:\n- %s\n", strings.Join(rev.Weaknesses, "\n- "))
	}
	if len(rev.ActionItems) > 0 {
		fmt.Fprintf(&b, "개선 지시:\n- %s\n", strings.Join(rev.ActionItems, "\n- "))
	}
	fmt.Fprintf(&b, "\n현재 초안:\n%s", clip(st.Draft.Flatten(), 10000))

	guideline, err := llm.Structured[state.RefinementStrategy](ctx, r.LLM, llm.Request{
		Messages: []llm.Message{
			llm.System(refinerSystemPrompt),
			llm.User(b.String()),
		},
		Preset: st.Preset,
	})
	if err != nil {
		return state.State{}, err
	}

	return r.advance(st, &guideline), nil
}

// Degrade still advances the loop with a guideline distilled directly
// from the review, so a failed refiner model call cannot stall the run.
func (r *Refiner) Degrade(st state.State) state.State {
	return r.advance(st, state.FallbackStrategy(st.Review))
}

func (r *Refiner) advance(st state.State, g *state.RefinementStrategy) state.State {
	return st.Apply(func(s *state.State) {
		s.PreviousPlan = st.Draft.Flatten()
		s.RefineCount = st.RefineCount + 1
		s.Guideline = g
		s.Refined = true
	})
}

func (r *Refiner) Summary(next state.State) string {
	return fmt.Sprintf("보완 %d회차 준비", next.RefineCount)
}
