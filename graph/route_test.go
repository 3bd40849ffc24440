package graph

import (
	"testing"

	"github.com/plancraft/plancraft/state"
)

func TestRoute(t *testing.T) {
	opts := []state.Option{{Title: "웹", Description: "Web"}}

	cases := []struct {
		name string
		from string
		st   state.State
		want string
	}{
		{
			name: "gather goes to analyze on first pass",
			from: NodeContextGathering,
			st:   state.State{},
			want: NodeAnalyze,
		},
		{
			name: "gather skips to structure on refinement pass",
			from: NodeContextGathering,
			st:   state.State{Guideline: &state.RefinementStrategy{OverallDirection: "보완"}},
			want: NodeStructure,
		},
		{
			name: "analyze routes general query to direct response",
			from: NodeAnalyze,
			st:   state.State{Analysis: &state.Analysis{IsGeneralQuery: true}},
			want: NodeGeneralResponse,
		},
		{
			name: "analyze pauses when clarification options exist",
			from: NodeAnalyze,
			st:   state.State{Analysis: &state.Analysis{}, NeedMoreInfo: true, Options: opts},
			want: NodeOptionPause,
		},
		{
			name: "analyze does not pause without options",
			from: NodeAnalyze,
			st:   state.State{Analysis: &state.Analysis{}, NeedMoreInfo: true},
			want: NodeStructure,
		},
		{
			name: "analyze pauses for pending free text",
			from: NodeAnalyze,
			st:   state.State{Analysis: &state.Analysis{}, PendingFreeText: true},
			want: NodeOptionPause,
		},
		{
			name: "analyze proceeds to structure",
			from: NodeAnalyze,
			st:   state.State{Analysis: &state.Analysis{Topic: "구독 서비스"}},
			want: NodeStructure,
		},
		{
			name: "structure to write",
			from: NodeStructure,
			st:   state.State{},
			want: NodeWrite,
		},
		{
			name: "write to review",
			from: NodeWrite,
			st:   state.State{},
			want: NodeReview,
		},
		{
			name: "pass verdict formats immediately",
			from: NodeReview,
			st:   state.State{Review: &state.Review{Verdict: state.VerdictPass}},
			want: NodeFormat,
		},
		{
			name: "revise with budget left refines",
			from: NodeReview,
			st:   state.State{Review: &state.Review{Verdict: state.VerdictRevise}},
			want: NodeRefine,
		},
		{
			name: "revise with exhausted budget formats",
			from: NodeReview,
			st:   state.State{Review: &state.Review{Verdict: state.VerdictRevise}, RefineCount: 3},
			want: NodeFormat,
		},
		{
			name: "fail verdict with budget left refines",
			from: NodeReview,
			st:   state.State{Review: &state.Review{Verdict: state.VerdictFail}, RefineCount: 1},
			want: NodeRefine,
		},
		{
			name: "missing review formats",
			from: NodeReview,
			st:   state.State{},
			want: NodeFormat,
		},
		{
			name: "refine loops back through gathering",
			from: NodeRefine,
			st:   state.State{Guideline: &state.RefinementStrategy{}},
			want: NodeContextGathering,
		},
		{
			name: "format completes",
			from: NodeFormat,
			st:   state.State{},
			want: NodeComplete,
		},
		{
			name: "general response completes",
			from: NodeGeneralResponse,
			st:   state.State{},
			want: NodeComplete,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Route(c.from, c.st, 3); got != c.want {
				t.Errorf("Route(%s) = %s, want %s", c.from, got, c.want)
			}
		})
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	st := state.State{Review: &state.Review{Verdict: state.VerdictRevise}, RefineCount: 2}
	first := Route(NodeReview, st, 3)
	for i := 0; i < 10; i++ {
		if got := Route(NodeReview, st, 3); got != first {
			t.Fatalf("routing varied across identical calls: %s vs %s", got, first)
		}
	}
}
