package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/plancraft/plancraft"
)

type staticClient struct {
	resp string
	err  error
}

func (c staticClient) Complete(_ context.Context, _ Request) (string, error) {
	return c.resp, c.err
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"  Here is the plan: {\"a\":1}", `{"a":1}`},
		{"```json\n{\"a\":1}\n```\n", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStructured(t *testing.T) {
	type payload struct {
		Topic string `json:"topic"`
		Score int    `json:"score"`
	}

	got, err := Structured[payload](context.Background(), staticClient{resp: "```json\n{\"topic\":\"기획\",\"score\":8}\n```"}, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Topic != "기획" || got.Score != 8 {
		t.Errorf("decoded = %+v", got)
	}

	if _, err := Structured[payload](context.Background(), staticClient{resp: "not json at all"}, Request{}); err == nil {
		t.Error("expected decode error")
	}

	wantErr := errors.New("boom")
	if _, err := Structured[payload](context.Background(), staticClient{err: wantErr}, Request{}); !errors.Is(err, wantErr) {
		t.Errorf("transport error not propagated: %v", err)
	}
}

func TestResolvePreset(t *testing.T) {
	if p := ResolvePreset(PresetFast); p.Model == "" || p.MaxTokens == 0 {
		t.Errorf("fast preset incomplete: %+v", p)
	}
	if ResolvePreset("") != ResolvePreset(PresetBalanced) {
		t.Error("empty preset should resolve to balanced")
	}
	if ResolvePreset("nonsense") != ResolvePreset(PresetBalanced) {
		t.Error("unknown preset should resolve to balanced")
	}
}

func TestWrapErrorCarriesCategory(t *testing.T) {
	err := WrapError("openai", "complete", errors.New("429 rate limit exceeded"))
	if err == nil {
		t.Fatal("nil wrapped error")
	}
	if got := plancraft.Classify(err); got != plancraft.CategoryRateLimit {
		t.Errorf("category = %s, want RATE_LIMIT_ERROR", got)
	}
	if WrapError("openai", "complete", nil) != nil {
		t.Error("wrapping nil should return nil")
	}
}
