package state

import (
	"fmt"
	"strings"
)

// Verdict is the reviewer's judgement of a draft.
type Verdict string

const (
	VerdictPass   Verdict = "PASS"
	VerdictRevise Verdict = "REVISE"
	VerdictFail   Verdict = "FAIL"
)

// InferVerdict maps a 1-10 quality score onto a Verdict when the reviewer
// returned a score without an explicit judgement.
func InferVerdict(score int) Verdict {
	switch {
	case score >= 8:
		return VerdictPass
	case score >= 4:
		return VerdictRevise
	default:
		return VerdictFail
	}
}

// Analysis is the analyzer's structured reading of the user request.
type Analysis struct {
	Topic          string   `json:"topic"`
	Purpose        string   `json:"purpose,omitempty"`
	TargetUsers    string   `json:"target_users,omitempty"`
	KeyFeatures    []string `json:"key_features,omitempty"`
	Assumptions    []string `json:"assumptions,omitempty"`
	MissingInfo    []string `json:"missing_info,omitempty"`
	Options        []Option `json:"options,omitempty"`
	OptionQuestion string   `json:"option_question,omitempty"`
	NeedMoreInfo   bool     `json:"need_more_info"`
	IsGeneralQuery bool     `json:"is_general_query"`
	GeneralAnswer  string   `json:"general_answer,omitempty"`
}

func (a Analysis) clone() Analysis {
	next := a
	next.KeyFeatures = cloneStrings(a.KeyFeatures)
	next.Assumptions = cloneStrings(a.Assumptions)
	next.MissingInfo = cloneStrings(a.MissingInfo)
	next.Options = cloneOptions(a.Options)
	return next
}

// Section is one planned section of the document outline.
type Section struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
}

// Structure is the document outline produced by the structurer.
type Structure struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

func (st Structure) clone() Structure {
	next := st
	next.Sections = make([]Section, len(st.Sections))
	for i, sec := range st.Sections {
		sec.KeyPoints = cloneStrings(sec.KeyPoints)
		next.Sections[i] = sec
	}
	return next
}

// SectionContent is the written body for one outline section.
type SectionContent struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Draft holds the written section bodies, in outline order.
type Draft struct {
	Sections []SectionContent `json:"sections"`
}

func (d Draft) clone() Draft {
	return Draft{Sections: append([]SectionContent(nil), d.Sections...)}
}

// Flatten renders the draft as a single markdown document, one heading
// per section.
func (d Draft) Flatten() string {
	var b strings.Builder
	for i, sec := range d.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", sec.Name, sec.Content)
	}
	return b.String()
}

// Review is the reviewer's structured judgement of a draft.
type Review struct {
	OverallScore   int      `json:"overall_score"`
	Verdict        Verdict  `json:"verdict"`
	CriticalIssues []string `json:"critical_issues,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
	Weaknesses     []string `json:"weaknesses,omitempty"`
	ActionItems    []string `json:"action_items,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
}

func (r Review) clone() Review {
	next := r
	next.CriticalIssues = cloneStrings(r.CriticalIssues)
	next.Strengths = cloneStrings(r.Strengths)
	next.Weaknesses = cloneStrings(r.Weaknesses)
	next.ActionItems = cloneStrings(r.ActionItems)
	return next
}

// RefinementStrategy is the refiner's guidance for the next write pass.
type RefinementStrategy struct {
	OverallDirection string   `json:"overall_direction"`
	KeyFocusAreas    []string `json:"key_focus_areas,omitempty"`
	Guidelines       []string `json:"specific_guidelines,omitempty"`
	SearchKeywords   []string `json:"additional_search_keywords,omitempty"`
}

func (g RefinementStrategy) clone() RefinementStrategy {
	next := g
	next.KeyFocusAreas = cloneStrings(g.KeyFocusAreas)
	next.Guidelines = cloneStrings(g.Guidelines)
	next.SearchKeywords = cloneStrings(g.SearchKeywords)
	return next
}

// FallbackAnalysis is the degraded analysis used when the analyzer model
// call fails with a survivable error. It treats the raw input as the
// topic so the rest of the pipeline can still produce a document.
func FallbackAnalysis(userInput string) *Analysis {
	topic := strings.TrimSpace(userInput)
	if r := []rune(topic); len(r) > 80 {
		topic = string(r[:80])
	}
	if topic == "" {
		topic = "문서 기획"
	}
	return &Analysis{
		Topic:       topic,
		Purpose:     "사용자 요청에 대한 기획 문서 작성",
		Assumptions: []string{"분석 단계가 실패하여 입력을 그대로 주제로 사용했습니다."},
	}
}

// FallbackStructure is the degraded outline used when the structurer
// fails. It is minimal but non-empty so the writer has sections to fill.
func FallbackStructure(topic string) *Structure {
	if topic == "" {
		topic = "기획 문서"
	}
	return &Structure{
		Title: topic,
		Sections: []Section{
			{ID: 1, Name: "개요", Description: "주제 소개 및 배경"},
			{ID: 2, Name: "주요 내용", Description: "핵심 내용 정리"},
			{ID: 3, Name: "결론", Description: "요약 및 다음 단계"},
		},
	}
}

// FallbackDraft fills every outline section with placeholder prose when
// the writer fails. Every section body is non-empty.
func FallbackDraft(st *Structure) *Draft {
	if st == nil || len(st.Sections) == 0 {
		st = FallbackStructure("")
	}
	d := &Draft{Sections: make([]SectionContent, len(st.Sections))}
	for i, sec := range st.Sections {
		body := sec.Description
		if body == "" {
			body = sec.Name
		}
		d.Sections[i] = SectionContent{
			ID:      sec.ID,
			Name:    sec.Name,
			Content: fmt.Sprintf("(작성 실패) %s 내용을 생성하지 못했습니다. 주요 항목: %s", sec.Name, body),
		}
	}
	return d
}

// FallbackReview is the degraded judgement used when the reviewer fails.
// Verdict is REVISE, never PASS, so a broken reviewer cannot wave a draft
// through.
func FallbackReview() *Review {
	return &Review{
		OverallScore: 5,
		Verdict:      VerdictRevise,
		ActionItems:  []string{"검토 단계가 실패하여 자동으로 보완 판정되었습니다. 초안 전반을 다시 확인하세요."},
		Reasoning:    "reviewer unavailable, defaulting to revision",
	}
}

// FallbackStrategy is the degraded guideline used when the refiner's
// model call fails but the loop still has budget to retry.
func FallbackStrategy(rev *Review) *RefinementStrategy {
	g := &RefinementStrategy{
		OverallDirection: "검토 지적 사항을 우선적으로 반영해 문서를 보완하세요.",
	}
	if rev != nil {
		g.KeyFocusAreas = cloneStrings(rev.CriticalIssues)
		g.Guidelines = cloneStrings(rev.ActionItems)
	}
	return g
}
