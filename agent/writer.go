package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/state"
)

// StepWrite is the drafting step name.
const StepWrite = "write"

// writerConcurrency bounds parallel section generation.
const writerConcurrency = 3

// Writer fills each outline section with prose. Sections are generated
// concurrently; a section whose model call fails gets placeholder text
// so the draft is always complete. Only a failure of every section
// fails the step, and even then the degraded draft keeps every section
// body non-empty.
type Writer struct {
	LLM llm.Client
}

func (w *Writer) Name() string       { return StepWrite }
func (w *Writer) Requires() []string { return []string{"structure"} }

func (w *Writer) Run(ctx context.Context, st state.State) (state.State, error) {
	sections := st.Structure.Sections
	contents := make([]state.SectionContent, len(sections))

	var mu sync.Mutex
	failures := 0
	var firstErr error

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(writerConcurrency)
	for i, sec := range sections {
		eg.Go(func() error {
			body, err := w.writeSection(egCtx, st, sec)
			if err != nil {
				mu.Lock()
				failures++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				body = placeholderBody(sec)
			}
			contents[i] = state.SectionContent{ID: sec.ID, Name: sec.Name, Content: body}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return state.State{}, err
	}
	if failures == len(sections) {
		return state.State{}, fmt.Errorf("all %d sections failed: %w", failures, firstErr)
	}

	return st.Apply(func(s *state.State) {
		s.Draft = &state.Draft{Sections: contents}
	}), nil
}

func (w *Writer) writeSection(ctx context.Context, st state.State, sec state.Section) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "기획서 제목: %s\n", st.Structure.Title)
	fmt.Fprintf(&b, "작성할 섹션: %s\n설명: %s\n", sec.Name, sec.Description)
	if len(sec.KeyPoints) > 0 {
		fmt.Fprintf(&b, "핵심 포인트: %s\n", strings.Join(sec.KeyPoints, ", "))
	}
	if st.Analysis != nil {
		fmt.Fprintf(&b, "\n주제: %s\n타겟: %s\n", st.Analysis.Topic, st.Analysis.TargetUsers)
	}
	if st.RAGContext != "" {
		fmt.Fprintf(&b, "\n참고 자료:\n%s\n", clip(st.RAGContext, 2000))
	}
	if st.WebContext != "" {
		fmt.Fprintf(&b, "\n웹 참고 자료:\n%s\n", clip(st.WebContext, 2000))
	}
	if st.Guideline != nil {
		fmt.Fprintf(&b, "\n개선 방향: %s\n", st.Guideline.OverallDirection)
		if len(st.Guideline.Guidelines) > 0 {
			fmt.Fprintf(&b, "개선 지침: %s\n", strings.Join(st.Guideline.Guidelines, " / "))
		}
	}
	if st.PreviousPlan != "" {
		fmt.Fprintf(&b, "\n이전 버전(개선 대상):\n%s\n", clip(st.PreviousPlan, 3000))
	}

	body, err := w.LLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(writerSystemPrompt),
			llm.User(b.String()),
		},
		Preset: st.Preset,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("empty section body for %q", sec.Name)
	}
	return strings.TrimSpace(body), nil
}

// Degrade substitutes placeholder prose for every section.
func (w *Writer) Degrade(st state.State) state.State {
	return st.Apply(func(s *state.State) {
		s.Draft = state.FallbackDraft(st.Structure)
	})
}

func (w *Writer) Summary(next state.State) string {
	if next.Draft == nil {
		return ""
	}
	return fmt.Sprintf("%d개 섹션 작성", len(next.Draft.Sections))
}

func placeholderBody(sec state.Section) string {
	desc := sec.Description
	if desc == "" {
		desc = sec.Name
	}
	return fmt.Sprintf("(작성 실패) %s 내용을 생성하지 못했습니다. 주요 항목: %s", sec.Name, desc)
}
