package graph

import "github.com/plancraft/plancraft/state"

// Route returns the node that follows from at executing against st.
// Routing is a pure function of the state, so replaying a checkpoint
// always takes the same edge. maxRefineLoops bounds the review→refine
// cycle.
func Route(from string, st state.State, maxRefineLoops int) string {
	switch from {
	case NodeContextGathering:
		return AfterGather(st)
	case NodeAnalyze:
		return AfterAnalyze(st)
	case NodeGeneralResponse:
		return NodeComplete
	case NodeStructure:
		return NodeWrite
	case NodeWrite:
		return NodeReview
	case NodeReview:
		return AfterReview(st, maxRefineLoops)
	case NodeRefine:
		return NodeContextGathering
	case NodeFormat:
		return NodeComplete
	default:
		return NodeComplete
	}
}

// AfterGather routes past context gathering. A refinement pass carries a
// guideline and already has its analysis, so it skips straight to
// restructuring; a first pass goes to the analyzer.
func AfterGather(st state.State) string {
	if st.Guideline != nil {
		return NodeStructure
	}
	return NodeAnalyze
}

// AfterAnalyze routes on the analyzer's verdict: general queries answer
// directly, ambiguous requests pause for the user, everything else
// proceeds into the pipeline.
func AfterAnalyze(st state.State) string {
	if st.Analysis != nil && st.Analysis.IsGeneralQuery {
		return NodeGeneralResponse
	}
	if ShouldAskUser(st) {
		return NodeOptionPause
	}
	return NodeStructure
}

// ShouldAskUser reports whether the state calls for a human interrupt:
// either the analyzer needs a choice made and produced options for it,
// or a previous answer requested free-text follow-up.
func ShouldAskUser(st state.State) bool {
	if st.PendingFreeText {
		return true
	}
	return st.NeedMoreInfo && len(st.Options) > 0
}

// AfterReview decides between another refinement pass and finalization.
// A PASS verdict or an exhausted loop budget goes to formatting;
// otherwise the draft gets refined.
func AfterReview(st state.State, maxRefineLoops int) string {
	if st.Review == nil {
		return NodeFormat
	}
	if st.Review.Verdict == state.VerdictPass {
		return NodeFormat
	}
	if st.RefineCount >= maxRefineLoops {
		return NodeFormat
	}
	return NodeRefine
}
