package hitl

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/plancraft/plancraft/state"
)

// ResumeCommand is the caller's answer to a pending interrupt. Exactly
// one shape is valid per envelope type: selected_option for option
// selection, text_input for free text, fields for form input.
type ResumeCommand struct {
	SelectedOption string            `json:"selected_option,omitempty"`
	TextInput      string            `json:"text_input,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// Validate checks a resume payload against the envelope that raised the
// interrupt. maxTextLen bounds free-text answers. A non-nil error means
// the scheduler should re-issue the envelope with the error annotated
// rather than advance the run.
func Validate(env Envelope, cmd ResumeCommand, maxTextLen int) error {
	switch env.Type {
	case TypeOptionSelection:
		sel := strings.TrimSpace(cmd.SelectedOption)
		if sel == "" {
			return fmt.Errorf("selected_option is required")
		}
		if env.AllowCustom && sel == CustomInputTitle {
			return nil
		}
		if _, ok := state.FindOption(env.Options, sel); !ok {
			return fmt.Errorf("unknown option %q", sel)
		}
		return nil
	case TypeTextInput:
		text := strings.TrimSpace(cmd.TextInput)
		if text == "" {
			return fmt.Errorf("text_input is required")
		}
		if maxTextLen > 0 && utf8.RuneCountInString(cmd.TextInput) > maxTextLen {
			return fmt.Errorf("text_input exceeds %d characters", maxTextLen)
		}
		return nil
	case TypeFormInput:
		for _, v := range cmd.Fields {
			if strings.TrimSpace(v) != "" {
				return nil
			}
		}
		return fmt.Errorf("at least one form field is required")
	default:
		return fmt.Errorf("unsupported interrupt type %q", env.Type)
	}
}

// Apply folds a validated answer into the state: the answer is appended
// to the user input as an annotation, interrupt bookkeeping is recorded,
// and a human_resume event is added to the history. Selecting the custom
// input option instead marks the state so the node raises a follow-up
// free-text interrupt.
func Apply(st state.State, env Envelope, cmd ResumeCommand, now time.Time) state.State {
	now = now.UTC()
	note := &state.InterruptNote{
		InterruptKey: env.InterruptID,
		Node:         env.NodeRef,
		AnsweredAt:   now,
	}

	switch env.Type {
	case TypeOptionSelection:
		sel := strings.TrimSpace(cmd.SelectedOption)
		if env.AllowCustom && sel == CustomInputTitle {
			return st.Apply(
				func(s *state.State) {
					s.PendingFreeText = true
					s.HITLRetries = 0
				},
				state.WithHistory(state.StepRecord{
					Step:      env.NodeRef,
					Status:    state.StatusSuccess,
					Event:     state.EventHumanResume,
					Summary:   fmt.Sprintf("사용자 선택: %s", CustomInputTitle),
					Timestamp: now,
				}),
			)
		}
		opt, _ := state.FindOption(env.Options, sel)
		note.Summary = opt.Label()
		return st.Apply(
			func(s *state.State) {
				s.UserInput = s.UserInput + "\n\n[선택: " + opt.Label() + "]"
				s.SelectedOption = &opt
				s.LastInterrupt = note
				s.NeedMoreInfo = false
				s.Options = nil
				s.OptionQuestion = ""
				s.HITLRetries = 0
			},
			state.WithHistory(state.StepRecord{
				Step:      env.NodeRef,
				Status:    state.StatusSuccess,
				Event:     state.EventHumanResume,
				Summary:   fmt.Sprintf("사용자 선택: %s", opt.Title),
				Timestamp: now,
			}),
		)

	case TypeTextInput:
		text := strings.TrimSpace(cmd.TextInput)
		note.Summary = text
		return st.Apply(
			func(s *state.State) {
				s.UserInput = s.UserInput + "\n\n[직접 입력: " + text + "]"
				s.LastInterrupt = note
				s.NeedMoreInfo = false
				s.Options = nil
				s.OptionQuestion = ""
				s.PendingFreeText = false
				s.HITLRetries = 0
			},
			state.WithHistory(state.StepRecord{
				Step:      env.NodeRef,
				Status:    state.StatusSuccess,
				Event:     state.EventHumanResume,
				Summary:   "사용자 직접 입력",
				Timestamp: now,
			}),
		)

	default: // TypeFormInput
		var b strings.Builder
		b.WriteString("\n\n[추가 정보 입력]")
		for _, k := range sortedKeys(cmd.Fields) {
			v := strings.TrimSpace(cmd.Fields[k])
			if v == "" {
				continue
			}
			fmt.Fprintf(&b, "\n- %s: %s", k, v)
		}
		note.Summary = "form input"
		return st.Apply(
			func(s *state.State) {
				s.UserInput = s.UserInput + b.String()
				s.LastInterrupt = note
				s.NeedMoreInfo = false
				s.HITLRetries = 0
			},
			state.WithHistory(state.StepRecord{
				Step:      env.NodeRef,
				Status:    state.StatusSuccess,
				Event:     state.EventHumanResume,
				Summary:   "사용자 추가 정보 입력",
				Timestamp: now,
			}),
		)
	}
}

// AutoContinue folds an unanswered, retry-exhausted interrupt into the
// state so the run can proceed without the missing answer. The history
// gets a distinguishable auto_continue event.
func AutoContinue(st state.State, env Envelope, now time.Time) state.State {
	now = now.UTC()
	return st.Apply(
		func(s *state.State) {
			s.UserInput = s.UserInput + "\n\n[자동 진행: 응답 없이 계속합니다]"
			s.NeedMoreInfo = false
			s.Options = nil
			s.OptionQuestion = ""
			s.PendingFreeText = false
			s.HITLRetries = 0
			s.LastInterrupt = &state.InterruptNote{
				InterruptKey: env.InterruptID,
				Node:         env.NodeRef,
				Summary:      "auto-continued after retry exhaustion",
				AnsweredAt:   now,
			}
		},
		state.WithHistory(state.StepRecord{
			Step:      env.NodeRef,
			Status:    state.StatusSuccess,
			Event:     state.EventAutoContinue,
			Summary:   "응답 재시도 한도 초과, 자동 진행",
			Timestamp: now,
		}),
	)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
