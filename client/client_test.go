package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plancraft/plancraft/api"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/id"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestStartSuspended(t *testing.T) {
	tid := id.NewThreadID()
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/threads" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.UserInput != "앱 만들어줘" {
			t.Errorf("user_input = %q", req.UserInput)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.ThreadResponse{
			Thread: &checkpoint.Thread{ID: tid, Status: checkpoint.StatusInterrupted},
			Interrupt: &hitl.Envelope{
				Type:        hitl.TypeOptionSelection,
				Question:    "어떤 플랫폼으로 만들까요?",
				InterruptID: "clarify",
			},
		})
	})

	res, err := c.Start(context.Background(), StartRequest{UserInput: "앱 만들어줘"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Thread.Status != checkpoint.StatusInterrupted {
		t.Errorf("status = %s, want INTERRUPTED", res.Thread.Status)
	}
	if res.Interrupt == nil || res.Interrupt.Question != "어떤 플랫폼으로 만들까요?" {
		t.Errorf("interrupt not surfaced: %+v", res.Interrupt)
	}
}

func TestResumePath(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/v1/threads/thr_abc/resume"
		if r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		var ans Answer
		_ = json.NewDecoder(r.Body).Decode(&ans)
		if ans.SelectedOption != "웹" {
			t.Errorf("selected_option = %q", ans.SelectedOption)
		}
		_ = json.NewEncoder(w).Encode(api.ThreadResponse{
			Thread:      &checkpoint.Thread{Status: checkpoint.StatusCompleted},
			FinalOutput: "# 기획서",
		})
	})

	res, err := c.Resume(context.Background(), "thr_abc", Answer{SelectedOption: "웹"})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if res.FinalOutput != "# 기획서" {
		t.Errorf("final output = %q", res.FinalOutput)
	}
}

func TestListQueryEncoding(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "COMPLETED" {
			t.Errorf("status = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]*checkpoint.Thread{{Status: checkpoint.StatusCompleted}})
	})

	threads, err := c.Threads(context.Background(), "COMPLETED", 10)
	if err != nil {
		t.Fatalf("Threads: %v", err)
	}
	if len(threads) != 1 {
		t.Errorf("got %d threads, want 1", len(threads))
	}
}

func TestAPIError(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plancraft: thread not found", http.StatusNotFound)
	})

	_, err := c.Status(context.Background(), "thr_missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "plancraft: thread not found" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestHealth(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/healthz" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
