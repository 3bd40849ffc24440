package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepAnalyze is the analyzer step name.
const StepAnalyze = "analyze"

// analysisPayload is the raw structured response. Options arrive as
// loosely typed JSON and are normalized afterwards.
type analysisPayload struct {
	Topic          string   `json:"topic"`
	Purpose        string   `json:"purpose"`
	TargetUsers    string   `json:"target_users"`
	KeyFeatures    []string `json:"key_features"`
	Assumptions    []string `json:"assumptions"`
	MissingInfo    []string `json:"missing_info"`
	IsGeneralQuery bool     `json:"is_general_query"`
	GeneralAnswer  string   `json:"general_answer"`
	NeedMoreInfo   bool     `json:"need_more_info"`
	OptionQuestion string   `json:"option_question"`
	Options        []any    `json:"options"`
}

// Analyzer reads the user request, decides whether it is a plan request
// or small talk, and either structures the planning intent or flags the
// thread for clarification.
type Analyzer struct {
	LLM llm.Client
}

func (a *Analyzer) Name() string       { return StepAnalyze }
func (a *Analyzer) Requires() []string { return []string{"user_input"} }

func (a *Analyzer) Run(ctx context.Context, st state.State) (state.State, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "사용자 입력:\n%s\n", st.UserInput)
	if st.FileContent != "" {
		fmt.Fprintf(&b, "\n첨부 파일 내용:\n%s\n", clip(st.FileContent, 4000))
	}
	if st.Analysis != nil {
		fmt.Fprintf(&b, "\n현재 제안된 기획(승인 여부 판단용):\n주제: %s / 목적: %s\n",
			st.Analysis.Topic, st.Analysis.Purpose)
	}
	if st.PreviousPlan != "" {
		fmt.Fprintf(&b, "\n이전 기획서:\n%s\n", clip(st.PreviousPlan, 4000))
	}
	if st.RAGContext != "" {
		fmt.Fprintf(&b, "\n참고 자료(내부 검색):\n%s\n", clip(st.RAGContext, 3000))
	}
	if st.WebContext != "" {
		fmt.Fprintf(&b, "\n참고 자료(웹 검색):\n%s\n", clip(st.WebContext, 3000))
	}

	payload, err := llm.Structured[analysisPayload](ctx, a.LLM, llm.Request{
		Messages: []llm.Message{
			llm.System(analyzerSystemPrompt),
			llm.User(b.String()),
		},
		Preset: st.Preset,
	})
	if err != nil {
		return state.State{}, err
	}

	analysis := &state.Analysis{
		Topic:          payload.Topic,
		Purpose:        payload.Purpose,
		TargetUsers:    payload.TargetUsers,
		KeyFeatures:    payload.KeyFeatures,
		Assumptions:    payload.Assumptions,
		MissingInfo:    payload.MissingInfo,
		IsGeneralQuery: payload.IsGeneralQuery,
		GeneralAnswer:  payload.GeneralAnswer,
		NeedMoreInfo:   payload.NeedMoreInfo,
		OptionQuestion: payload.OptionQuestion,
		Options:        state.NormalizeOptions(payload.Options),
	}

	// A clarification request needs options to choose from; without them
	// there is nothing to ask, so the run proceeds.
	needMore := analysis.NeedMoreInfo && len(analysis.Options) > 0 && !analysis.IsGeneralQuery

	return st.Apply(func(s *state.State) {
		s.Analysis = analysis
		s.NeedMoreInfo = needMore
		s.Options = analysis.Options
		s.OptionQuestion = analysis.OptionQuestion
	}), nil
}

// Degrade falls back to treating the raw input as the topic so the rest
// of the pipeline still produces a document.
func (a *Analyzer) Degrade(st state.State) state.State {
	return st.Apply(func(s *state.State) {
		s.Analysis = state.FallbackAnalysis(st.UserInput)
		s.NeedMoreInfo = false
		s.Options = nil
		s.OptionQuestion = ""
	})
}

func (a *Analyzer) Summary(next state.State) string {
	if next.Analysis == nil {
		return ""
	}
	if next.Analysis.IsGeneralQuery {
		return "일반 대화로 판단"
	}
	if next.NeedMoreInfo {
		return "추가 확인 필요: " + next.Analysis.Topic
	}
	return "분석 완료: " + next.Analysis.Topic
}

// clip truncates prompt material to n characters, never mid-rune.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n...(생략)"
}
