package hitl

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/plancraft/plancraft/state"
)

var webOptions = []state.Option{
	{Title: "웹", Description: "Web"},
	{Title: "앱", Description: "Mobile"},
}

func optionRequest() Request {
	return Request{
		Type:        TypeOptionSelection,
		Question:    "어떤 플랫폼으로 만들까요?",
		Options:     webOptions,
		AllowCustom: true,
		InterruptID: "platform-choice",
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := Build("thr_01", "analyze", optionRequest(), 0, "")
	b := Build("thr_01", "analyze", optionRequest(), 0, "")

	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	if string(aj) != string(bj) {
		t.Fatalf("replayed envelope differs:\n%s\n%s", aj, bj)
	}
	if a.EventID == "" {
		t.Fatal("empty event id")
	}
	if !a.Timestamp.IsZero() {
		t.Error("builder must not stamp a timestamp")
	}
}

func TestBuildVariesWithIdentity(t *testing.T) {
	base := Build("thr_01", "analyze", optionRequest(), 0, "")
	otherThread := Build("thr_02", "analyze", optionRequest(), 0, "")
	otherRetry := Build("thr_01", "analyze", optionRequest(), 1, "invalid")

	if base.EventID == otherThread.EventID {
		t.Error("event id identical across threads")
	}
	if base.EventID == otherRetry.EventID {
		t.Error("event id identical across retries")
	}
	if otherRetry.Error != "invalid" || otherRetry.RetryCount != 1 {
		t.Errorf("retry annotation missing: %+v", otherRetry)
	}
}

func TestValidate(t *testing.T) {
	env := Build("thr_01", "analyze", optionRequest(), 0, "")

	cases := []struct {
		name    string
		cmd     ResumeCommand
		wantErr bool
	}{
		{"valid option", ResumeCommand{SelectedOption: "웹"}, false},
		{"option with spaces", ResumeCommand{SelectedOption: "  앱  "}, false},
		{"custom input marker", ResumeCommand{SelectedOption: CustomInputTitle}, false},
		{"unknown option", ResumeCommand{SelectedOption: "데스크톱"}, true},
		{"empty", ResumeCommand{}, true},
	}
	for _, tc := range cases {
		err := Validate(env, tc.cmd, 10000)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", tc.name, err, tc.wantErr)
		}
	}

	textEnv := Build("thr_01", "analyze", Request{Type: TypeTextInput, Question: "q", InterruptID: "free"}, 0, "")
	if err := Validate(textEnv, ResumeCommand{TextInput: "직접 쓴 내용"}, 10000); err != nil {
		t.Errorf("valid text rejected: %v", err)
	}
	if err := Validate(textEnv, ResumeCommand{TextInput: strings.Repeat("a", 11)}, 10); err == nil {
		t.Error("oversized text accepted")
	}
	if err := Validate(textEnv, ResumeCommand{}, 10000); err == nil {
		t.Error("empty text accepted")
	}

	formEnv := Build("thr_01", "analyze", Request{Type: TypeFormInput, Question: "q", InterruptID: "form"}, 0, "")
	if err := Validate(formEnv, ResumeCommand{Fields: map[string]string{"대상": "직장인"}}, 10000); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}
	if err := Validate(formEnv, ResumeCommand{Fields: map[string]string{"대상": "  "}}, 10000); err == nil {
		t.Error("blank form accepted")
	}
}

func TestBuildSurfacesOptionsAsGiven(t *testing.T) {
	env := Build("thr_01", "analyze", optionRequest(), 0, "")

	if len(env.Options) != len(webOptions) {
		t.Fatalf("options = %v, want the request's %d entries untouched", env.Options, len(webOptions))
	}
	for i, opt := range webOptions {
		if env.Options[i] != opt {
			t.Errorf("options[%d] = %+v, want %+v", i, env.Options[i], opt)
		}
	}
	if !env.AllowCustom {
		t.Error("allow_custom not carried onto the envelope")
	}
}

func TestValidateCustomInputRequiresAllowCustom(t *testing.T) {
	req := optionRequest()
	req.AllowCustom = false
	env := Build("thr_01", "analyze", req, 0, "")

	if err := Validate(env, ResumeCommand{SelectedOption: CustomInputTitle}, 10000); err == nil {
		t.Error("custom input accepted by an envelope that does not allow it")
	}
	if err := Validate(env, ResumeCommand{SelectedOption: "웹"}, 10000); err != nil {
		t.Errorf("listed option rejected: %v", err)
	}
}

func TestValidateTextLimitCountsRunes(t *testing.T) {
	env := Build("thr_01", "analyze", Request{Type: TypeTextInput, Question: "q", InterruptID: "free"}, 0, "")

	// Ten Hangul characters are thirty bytes; a rune limit of ten must
	// still accept them.
	if err := Validate(env, ResumeCommand{TextInput: strings.Repeat("가", 10)}, 10); err != nil {
		t.Errorf("ten-character answer rejected: %v", err)
	}
	if err := Validate(env, ResumeCommand{TextInput: strings.Repeat("가", 11)}, 10); err == nil {
		t.Error("eleven-character answer accepted")
	}
}

func TestApplyOptionSelection(t *testing.T) {
	st := state.New("쇼핑몰을 만들어줘")
	st.NeedMoreInfo = true
	st.Options = webOptions
	st.OptionQuestion = "어떤 플랫폼으로 만들까요?"

	env := Build("thr_01", "analyze", optionRequest(), 0, "")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	got := Apply(st, env, ResumeCommand{SelectedOption: "웹"}, now)

	if !strings.HasSuffix(got.UserInput, "[선택: 웹 - Web]") {
		t.Errorf("annotation missing: %q", got.UserInput)
	}
	if got.SelectedOption == nil || got.SelectedOption.Title != "웹" {
		t.Errorf("selected option = %+v", got.SelectedOption)
	}
	if got.NeedMoreInfo || got.Options != nil || got.OptionQuestion != "" {
		t.Errorf("interrupt fields not cleared: %+v", got)
	}
	if got.LastInterrupt == nil || got.LastInterrupt.InterruptKey != "platform-choice" {
		t.Errorf("last interrupt = %+v", got.LastInterrupt)
	}

	last := got.StepHistory[len(got.StepHistory)-1]
	if last.Event != state.EventHumanResume {
		t.Errorf("history event = %q, want human_resume", last.Event)
	}

	// The input state must be untouched.
	if !st.NeedMoreInfo || len(st.Options) != 2 {
		t.Error("Apply mutated its input state")
	}
}

func TestApplyCustomInputLeadsToFreeText(t *testing.T) {
	st := state.New("입력")
	env := Build("thr_01", "analyze", optionRequest(), 0, "")
	got := Apply(st, env, ResumeCommand{SelectedOption: CustomInputTitle}, time.Now())

	if !got.PendingFreeText {
		t.Error("pending free text not set")
	}
	if strings.Contains(got.UserInput, "[선택:") {
		t.Errorf("custom input must not annotate a selection: %q", got.UserInput)
	}
}

func TestApplyTextAndForm(t *testing.T) {
	st := state.New("입력")
	st.PendingFreeText = true
	textEnv := Build("thr_01", "analyze", Request{Type: TypeTextInput, InterruptID: "free"}, 0, "")
	got := Apply(st, textEnv, ResumeCommand{TextInput: "  하이브리드 앱으로 해줘  "}, time.Now())
	if !strings.HasSuffix(got.UserInput, "[직접 입력: 하이브리드 앱으로 해줘]") {
		t.Errorf("text annotation = %q", got.UserInput)
	}
	if got.PendingFreeText {
		t.Error("pending free text not cleared")
	}

	formEnv := Build("thr_01", "analyze", Request{Type: TypeFormInput, InterruptID: "form"}, 0, "")
	got = Apply(state.New("입력"), formEnv, ResumeCommand{Fields: map[string]string{
		"대상":    "직장인",
		"예산":    "500만원",
		"빈 항목": "",
	}}, time.Now())
	if !strings.Contains(got.UserInput, "[추가 정보 입력]") {
		t.Errorf("form annotation missing: %q", got.UserInput)
	}
	if !strings.Contains(got.UserInput, "- 대상: 직장인") || !strings.Contains(got.UserInput, "- 예산: 500만원") {
		t.Errorf("form fields missing: %q", got.UserInput)
	}
	if strings.Contains(got.UserInput, "빈 항목") {
		t.Errorf("blank field leaked into annotation: %q", got.UserInput)
	}
}

func TestAutoContinue(t *testing.T) {
	st := state.New("입력")
	st.NeedMoreInfo = true
	st.Options = webOptions
	env := Build("thr_01", "analyze", optionRequest(), 3, "unknown option")

	got := AutoContinue(st, env, time.Now())
	if got.NeedMoreInfo || got.Options != nil {
		t.Error("interrupt fields not cleared")
	}
	if !strings.Contains(got.UserInput, "[자동 진행") {
		t.Errorf("auto-continue annotation missing: %q", got.UserInput)
	}
	last := got.StepHistory[len(got.StepHistory)-1]
	if last.Event != state.EventAutoContinue {
		t.Errorf("history event = %q, want auto_continue", last.Event)
	}
}
