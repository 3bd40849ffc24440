package agent

import (
	"context"
	"fmt"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepReview is the judging step name.
const StepReview = "review"

// Reviewer scores the draft 1-10 and issues a verdict. A missing or
// inconsistent verdict is inferred from the score; a failed reviewer
// degrades to REVISE so a broken judge can never pass a draft.
type Reviewer struct {
	LLM llm.Client
}

func (r *Reviewer) Name() string       { return StepReview }
func (r *Reviewer) Requires() []string { return []string{"draft"} }

func (r *Reviewer) Run(ctx context.Context, st state.State) (state.State, error) {
	prompt := fmt.Sprintf("다음 기획서 초안을 평가하세요.\n\n제목: %s\n\n%s",
		draftTitle(st), clip(st.Draft.Flatten(), 12000))
	if st.Analysis != nil {
		prompt += fmt.Sprintf("\n\n원래 요구사항:\n주제: %s\n목적: %s", st.Analysis.Topic, st.Analysis.Purpose)
	}

	review, err := llm.Structured[state.Review](ctx, r.LLM, llm.Request{
		Messages: []llm.Message{
			llm.System(reviewerSystemPrompt),
			llm.User(prompt),
		},
		Preset: st.Preset,
	})
	if err != nil {
		return state.State{}, err
	}

	if review.OverallScore < 1 {
		review.OverallScore = 1
	}
	if review.OverallScore > 10 {
		review.OverallScore = 10
	}
	switch review.Verdict {
	case state.VerdictPass, state.VerdictRevise, state.VerdictFail:
	default:
		review.Verdict = state.InferVerdict(review.OverallScore)
	}

	return st.Apply(func(s *state.State) {
		s.Review = &review
	}), nil
}

// Degrade substitutes the conservative REVISE judgement.
func (r *Reviewer) Degrade(st state.State) state.State {
	return st.Apply(func(s *state.State) {
		s.Review = state.FallbackReview()
	})
}

func (r *Reviewer) Summary(next state.State) string {
	if next.Review == nil {
		return ""
	}
	return fmt.Sprintf("%s (%d/10)", next.Review.Verdict, next.Review.OverallScore)
}

func draftTitle(st state.State) string {
	if st.Structure != nil {
		return st.Structure.Title
	}
	return ""
}
