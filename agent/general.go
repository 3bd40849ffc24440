package agent

import (
	"context"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepGeneralResponse is the small-talk step name.
const StepGeneralResponse = "general_response"

// GeneralResponse answers non-planning inputs directly. If the analyzer
// already produced an answer it is used verbatim without another model
// call; otherwise a short reply is generated.
type GeneralResponse struct {
	LLM llm.Client
}

func (g *GeneralResponse) Name() string       { return StepGeneralResponse }
func (g *GeneralResponse) Requires() []string { return []string{"analysis"} }

func (g *GeneralResponse) Run(ctx context.Context, st state.State) (state.State, error) {
	if answer := st.Analysis.GeneralAnswer; answer != "" {
		return st.Apply(func(s *state.State) {
			s.FinalOutput = answer
		}), nil
	}

	answer, err := g.LLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(generalResponseSystemPrompt),
			llm.User(st.UserInput),
		},
		Preset: llm.PresetFast,
	})
	if err != nil {
		return state.State{}, err
	}
	return st.Apply(func(s *state.State) {
		s.FinalOutput = answer
	}), nil
}

// Degrade answers with a fixed greeting so small talk never fails a run.
func (g *GeneralResponse) Degrade(st state.State) state.State {
	return st.Apply(func(s *state.State) {
		s.FinalOutput = "안녕하세요! PlanCraft입니다. 어떤 아이디어를 기획해드릴까요?"
	})
}
