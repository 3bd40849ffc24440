package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepFormat is the final assembly step name.
const StepFormat = "format"

// Formatter assembles the final markdown document from the draft. The
// document body is deterministic; only the chat summary uses the model,
// and a summary failure falls back to a truncated excerpt rather than
// failing the step.
type Formatter struct {
	LLM    llm.Client
	Logger *slog.Logger
}

func (f *Formatter) Name() string       { return StepFormat }
func (f *Formatter) Requires() []string { return []string{"draft"} }

func (f *Formatter) Run(ctx context.Context, st state.State) (state.State, error) {
	doc := f.assemble(st)
	summary := f.summarize(ctx, st, doc)

	return st.Apply(func(s *state.State) {
		s.FinalOutput = doc
		s.ChatSummary = summary
	}), nil
}

func (f *Formatter) assemble(st state.State) string {
	var b strings.Builder

	title := draftTitle(st)
	if title == "" && st.Analysis != nil {
		title = st.Analysis.Topic
	}
	if title == "" {
		title = "기획서"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if st.Analysis != nil {
		if st.Analysis.Purpose != "" {
			fmt.Fprintf(&b, "> %s\n\n", st.Analysis.Purpose)
		}
		if st.Analysis.TargetUsers != "" {
			fmt.Fprintf(&b, "**타겟**: %s\n\n", st.Analysis.TargetUsers)
		}
	}

	// Table of contents.
	b.WriteString("## 목차\n\n")
	for i, sec := range st.Draft.Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, sec.Name)
	}
	b.WriteString("\n---\n\n")

	b.WriteString(st.Draft.Flatten())

	if st.Review != nil {
		fmt.Fprintf(&b, "\n\n---\n\n*품질 점수: %d/10", st.Review.OverallScore)
		if st.RefineCount > 0 {
			fmt.Fprintf(&b, ", 보완 %d회", st.RefineCount)
		}
		fmt.Fprintf(&b, " (%s 기준)*\n", time.Now().UTC().Format("2006-01-02"))
	}

	return b.String()
}

func (f *Formatter) summarize(ctx context.Context, st state.State, doc string) string {
	if f.LLM != nil {
		summary, err := f.LLM.Complete(ctx, llm.Request{
			Messages: []llm.Message{
				llm.System(summarySystemPrompt),
				llm.User(clip(doc, 8000)),
			},
			Preset: llm.PresetFast,
		})
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
		logger := f.Logger
		if logger == nil {
			logger = slog.Default()
		}
		if err != nil {
			logger.Warn("chat summary failed", slog.String("error", err.Error()))
		}
	}

	// Fallback: first section excerpt.
	if len(st.Draft.Sections) > 0 {
		return clipRunes(st.Draft.Sections[0].Content, 200)
	}
	return ""
}

func (f *Formatter) Summary(next state.State) string {
	return fmt.Sprintf("최종 문서 %d자 생성", len([]rune(next.FinalOutput)))
}

func clipRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
