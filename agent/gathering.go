package agent

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/plancraft/plancraft/search"
	"github.com/plancraft/plancraft/state"
)

// StepContextGathering is the reference-gathering step name.
const StepContextGathering = "context_gathering"

// ContextGathering queries the internal document index and the web in
// parallel before analysis. Gathering is strictly best-effort: backend
// failures are logged and degrade to empty context, so this step never
// fails the run.
type ContextGathering struct {
	RAG    search.Client
	Web    search.Client
	Logger *slog.Logger
}

func (g *ContextGathering) Name() string       { return StepContextGathering }
func (g *ContextGathering) Requires() []string { return []string{"user_input"} }

func (g *ContextGathering) Run(ctx context.Context, st state.State) (state.State, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}

	query := buildQuery(st)

	var ragRes, webRes search.Result
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if g.RAG == nil {
			return nil
		}
		res, err := g.RAG.Search(egCtx, query)
		if err != nil {
			logger.Warn("rag search failed", slog.String("error", err.Error()))
			return nil
		}
		ragRes = res
		return nil
	})
	eg.Go(func() error {
		if g.Web == nil {
			return nil
		}
		res, err := g.Web.Search(egCtx, query)
		if err != nil {
			logger.Warn("web search failed", slog.String("error", err.Error()))
			return nil
		}
		webRes = res
		return nil
	})
	// Workers never return errors, but Wait also surfaces context
	// cancellation.
	if err := eg.Wait(); err != nil {
		return state.State{}, err
	}

	// URLs pasted into the request are references too, ahead of whatever
	// the backends found.
	urls := extractURLs(st.UserInput)
	urls = append(urls, ragRes.URLs...)
	urls = append(urls, webRes.URLs...)

	return st.Apply(func(s *state.State) {
		s.RAGContext = ragRes.Context
		s.WebContext = webRes.Context
		s.WebURLs = dedupeURLs(urls)
	}), nil
}

func (g *ContextGathering) Summary(next state.State) string {
	var parts []string
	if next.RAGContext != "" {
		parts = append(parts, "내부 자료 확보")
	}
	if next.WebContext != "" {
		parts = append(parts, "웹 자료 확보")
	}
	if len(parts) == 0 {
		return "참고 자료 없음"
	}
	return strings.Join(parts, ", ")
}

// buildQuery prefers refinement search keywords over the raw input so a
// second gathering pass targets the reviewer's gaps.
func buildQuery(st state.State) string {
	if st.Guideline != nil && len(st.Guideline.SearchKeywords) > 0 {
		return strings.Join(st.Guideline.SearchKeywords, " ")
	}
	return st.UserInput
}

// extractURLs pulls http(s) links out of free text. Trailing punctuation
// from surrounding prose is trimmed.
func extractURLs(text string) []string {
	var urls []string
	for _, f := range strings.Fields(text) {
		if !strings.HasPrefix(f, "http://") && !strings.HasPrefix(f, "https://") {
			continue
		}
		urls = append(urls, strings.TrimRight(f, ".,;:)]\""))
	}
	return urls
}

func dedupeURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
