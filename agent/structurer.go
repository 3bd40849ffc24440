package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepStructure is the outline design step name.
const StepStructure = "structure"

// Structurer designs the document outline from the analysis.
type Structurer struct {
	LLM llm.Client
}

func (st *Structurer) Name() string       { return StepStructure }
func (st *Structurer) Requires() []string { return []string{"user_input", "analysis"} }

func (st *Structurer) Run(ctx context.Context, s state.State) (state.State, error) {
	a := s.Analysis

	var b strings.Builder
	fmt.Fprintf(&b, "주제: %s\n목적: %s\n타겟: %s\n", a.Topic, a.Purpose, a.TargetUsers)
	if len(a.KeyFeatures) > 0 {
		fmt.Fprintf(&b, "핵심 기능: %s\n", strings.Join(a.KeyFeatures, ", "))
	}
	if s.RAGContext != "" {
		fmt.Fprintf(&b, "\n참고 자료:\n%s\n", clip(s.RAGContext, 3000))
	}
	if s.Guideline != nil {
		fmt.Fprintf(&b, "\n개선 방향: %s\n", s.Guideline.OverallDirection)
	}

	structure, err := llm.Structured[state.Structure](ctx, st.LLM, llm.Request{
		Messages: []llm.Message{
			llm.System(structurerSystemPrompt),
			llm.User(b.String()),
		},
		Preset: s.Preset,
	})
	if err != nil {
		return state.State{}, err
	}
	if len(structure.Sections) == 0 {
		return state.State{}, fmt.Errorf("invalid structure: no sections")
	}
	// Section ids are positional; renumber to keep them dense regardless
	// of what the model returned.
	for i := range structure.Sections {
		structure.Sections[i].ID = i + 1
	}
	if structure.Title == "" {
		structure.Title = a.Topic
	}

	return s.Apply(func(next *state.State) {
		next.Structure = &structure
	}), nil
}

// Degrade substitutes a minimal three-section outline.
func (st *Structurer) Degrade(s state.State) state.State {
	topic := ""
	if s.Analysis != nil {
		topic = s.Analysis.Topic
	}
	return s.Apply(func(next *state.State) {
		next.Structure = state.FallbackStructure(topic)
	})
}

func (st *Structurer) Summary(next state.State) string {
	if next.Structure == nil {
		return ""
	}
	return fmt.Sprintf("목차 %d개 섹션: %s", len(next.Structure.Sections), next.Structure.Title)
}
