package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/archive"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/checkpoint/memory"
	"github.com/plancraft/plancraft/graph"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/llm"
	"github.com/plancraft/plancraft/search"
)

// scriptedLLM answers each pipeline agent by matching its system prompt.
type scriptedLLM struct {
	mu       sync.Mutex
	analysis string
	calls    []string
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	system := ""
	if len(req.Messages) > 0 {
		system = req.Messages[0].Content
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.Contains(system, "기획 컨설턴트"):
		s.calls = append(s.calls, "analyze")
		return s.analysis, nil
	case strings.Contains(system, "구조 설계 전문가"):
		s.calls = append(s.calls, "structure")
		return `{"title":"산책 메이트 매칭 앱 기획서","sections":[
			{"id":1,"name":"서비스 개요","description":"왜 필요한가","key_points":["문제 정의"]},
			{"id":2,"name":"핵심 기능","description":"무엇을 만드는가","key_points":["매칭","채팅"]}
		]}`, nil
	case strings.Contains(system, "기획서 작성 전문가"):
		s.calls = append(s.calls, "write")
		return "반려견 보호자를 위한 산책 메이트 매칭 서비스의 상세 내용입니다.", nil
	case strings.Contains(system, "심사위원"):
		s.calls = append(s.calls, "review")
		return `{"overall_score":9,"verdict":"PASS","reasoning":"완성도 높음"}`, nil
	case strings.Contains(system, "개선 전략가"):
		s.calls = append(s.calls, "refine")
		return `{"overall_direction":"수익 모델 구체화","additional_search_keywords":["펫 시장 규모"]}`, nil
	case strings.Contains(system, "요약"):
		s.calls = append(s.calls, "summary")
		return "산책 메이트 매칭 앱 기획서입니다.", nil
	default:
		s.calls = append(s.calls, "general")
		return "안녕하세요! 어떤 아이디어든 기획서로 만들어 드릴게요.", nil
	}
}

func (s *scriptedLLM) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func proceedAnalysis() string {
	return `{"topic":"산책 메이트 매칭 앱","purpose":"반려견 산책 친구 찾기",
		"target_users":"1인 가구 반려인","key_features":["위치 기반 매칭"],
		"is_general_query":false,"need_more_info":false}`
}

func askAnalysis() string {
	return `{"topic":"산책 메이트 매칭 앱","need_more_info":true,
		"option_question":"어떤 플랫폼으로 시작할까요?",
		"options":[{"title":"모바일 앱","description":"iOS/Android"},{"title":"웹","description":"반응형 웹"}]}`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, model *scriptedLLM, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithStore(memory.New()),
		WithLLM(model),
		WithLogger(quietLogger()),
	}
	e, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewRequiresStoreAndClient(t *testing.T) {
	if _, err := New(WithLLM(&scriptedLLM{})); !errors.Is(err, plancraft.ErrNoStore) {
		t.Errorf("got %v, want ErrNoStore", err)
	}
	if _, err := New(WithStore(memory.New())); err == nil {
		t.Error("expected error without llm client")
	}
}

func TestRunEndToEnd(t *testing.T) {
	model := &scriptedLLM{analysis: proceedAnalysis()}
	arc := archive.NewMemoryStore()
	e := newEngine(t, model, WithArchive(arc))

	res, err := e.Run(context.Background(), RunRequest{UserInput: "반려견 산책 메이트 매칭 앱 기획해줘"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Thread.Status != checkpoint.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", res.Thread.Status)
	}
	if !strings.Contains(res.State.FinalOutput, "산책 메이트 매칭 앱 기획서") {
		t.Errorf("final output missing title: %q", res.State.FinalOutput)
	}
	if res.State.ChatSummary == "" {
		t.Error("missing chat summary")
	}
	// Two sections, one writer call each.
	if n := model.callCount("write"); n != 2 {
		t.Errorf("write calls = %d, want 2", n)
	}
	if n, _ := arc.Count(context.Background()); n != 1 {
		t.Errorf("archive count = %d, want 1", n)
	}
}

func TestRunValidation(t *testing.T) {
	e := newEngine(t, &scriptedLLM{analysis: proceedAnalysis()})

	cases := []struct {
		name string
		req  RunRequest
	}{
		{"empty input", RunRequest{}},
		{"input too long", RunRequest{UserInput: strings.Repeat("가", 10001)}},
		{"file too long", RunRequest{UserInput: "기획", FileContent: strings.Repeat("a", 100001)}},
		{"thread id too long", RunRequest{UserInput: "기획", ThreadID: strings.Repeat("x", 129)}},
		{"malformed thread id", RunRequest{UserInput: "기획", ThreadID: "ckpt_00000000000000000000000000"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := e.Run(context.Background(), c.req); !errors.Is(err, plancraft.ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}

	// The rejection must tell the caller what a thread id looks like.
	_, err := e.Run(context.Background(), RunRequest{UserInput: "기획", ThreadID: "session-42"})
	if err == nil || !strings.Contains(err.Error(), "thr_") {
		t.Errorf("malformed thread_id error lacks format guidance: %v", err)
	}
}

func TestRunInterruptResumeStatus(t *testing.T) {
	model := &scriptedLLM{analysis: askAnalysis()}
	e := newEngine(t, model)

	res, err := e.Run(context.Background(), RunRequest{UserInput: "앱 만들어줘"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Interrupt == nil {
		t.Fatal("expected suspension")
	}
	tid := res.Thread.ID.String()

	status, err := e.Status(context.Background(), tid)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Interrupt == nil || status.Interrupt.EventID != res.Interrupt.EventID {
		t.Error("status does not surface the persisted envelope")
	}

	// Answering re-runs analysis; proceed this time.
	model.mu.Lock()
	model.analysis = proceedAnalysis()
	model.mu.Unlock()

	res, err = e.Resume(context.Background(), tid, hitl.ResumeCommand{SelectedOption: "모바일 앱"})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if res.Thread.Status != checkpoint.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", res.Thread.Status)
	}
	if !strings.Contains(res.State.UserInput, "[선택: 모바일 앱 - iOS/Android]") {
		t.Errorf("selection not annotated: %q", res.State.UserInput)
	}

	timeline, err := e.Timeline(context.Background(), tid)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(timeline) < 5 {
		t.Errorf("timeline has %d checkpoints, want full run", len(timeline))
	}
}

func TestRollbackReplaysSuspension(t *testing.T) {
	model := &scriptedLLM{analysis: askAnalysis()}
	e := newEngine(t, model)

	res, err := e.Run(context.Background(), RunRequest{UserInput: "앱 만들어줘"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := res.Interrupt
	if first == nil {
		t.Fatal("expected suspension")
	}
	tid := res.Thread.ID.String()

	// Rewind past nothing: rollback to the suspension checkpoint itself
	// re-raises the identical interrupt.
	timeline, err := e.Timeline(context.Background(), tid)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	head := timeline[len(timeline)-1]

	res, err = e.Rollback(context.Background(), tid, head.Seq)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if res.Interrupt == nil {
		t.Fatal("expected re-raised interrupt")
	}
	if res.Interrupt.EventID != first.EventID {
		t.Errorf("re-raised envelope changed identity: %s vs %s", res.Interrupt.EventID, first.EventID)
	}
}

func TestReplayFromArchive(t *testing.T) {
	model := &scriptedLLM{analysis: proceedAnalysis()}
	arc := archive.NewMemoryStore()
	e := newEngine(t, model, WithArchive(arc))

	first, err := e.Run(context.Background(), RunRequest{UserInput: "산책 앱 기획해줘"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := arc.List(context.Background(), archive.ListOpts{})
	if err != nil || len(entries) != 1 {
		t.Fatalf("archive entries: %v, %v", entries, err)
	}

	res, err := e.Replay(context.Background(), entries[0].ID.String())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Thread.ID == first.Thread.ID {
		t.Error("replay reused the original thread id")
	}
	if res.Thread.Status != checkpoint.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", res.Thread.Status)
	}
	replayed, err := arc.Get(context.Background(), entries[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if replayed.ReplayedAt == nil {
		t.Error("entry not marked replayed")
	}
}

func TestWebSearchMemoized(t *testing.T) {
	var searches int
	var mu sync.Mutex
	web := searchFunc(func(ctx context.Context, query string) (search.Result, error) {
		mu.Lock()
		searches++
		mu.Unlock()
		return search.Result{Context: "반려 시장 동향", URLs: []string{"https://example.com/pet"}}, nil
	})

	model := &scriptedLLM{analysis: proceedAnalysis()}
	e := newEngine(t, model, WithWebSearch(web))

	if _, err := e.Run(context.Background(), RunRequest{UserInput: "산책 앱 기획해줘"}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := e.Run(context.Background(), RunRequest{UserInput: "산책 앱 기획해줘"}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if searches != 1 {
		t.Errorf("web search ran %d times, want 1 (memoized)", searches)
	}
}

type searchFunc func(ctx context.Context, query string) (search.Result, error)

func (f searchFunc) Search(ctx context.Context, query string) (search.Result, error) {
	return f(ctx, query)
}

func TestStatusUnknownThread(t *testing.T) {
	e := newEngine(t, &scriptedLLM{analysis: proceedAnalysis()})
	_, err := e.Status(context.Background(), graph.EntryNode)
	if !errors.Is(err, plancraft.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput for malformed id", err)
	}
}
