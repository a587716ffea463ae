package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"novacall/internal/gateway"
	"novacall/internal/store"
	"novacall/internal/task"
	"novacall/internal/transcript"
)

type nopScheduler struct{}

func (nopScheduler) Enqueue(callID string) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *transcript.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	tasks := task.NewRepository(mem)
	transcripts := transcript.NewRepository(mem)
	gw := gateway.New(tasks, nopScheduler{}, slog.Default())

	h := Handlers{Gateway: gw, Transcripts: transcripts}

	r := gin.New()
	r.GET("/schema", h.Schema)
	r.POST("/api/call-tasks", h.CreateCallTask)
	r.POST("/api/transcripts", h.AppendTranscript)
	r.GET("/api/transcripts/:call_id", h.ListTranscripts)
	return r, transcripts
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCallTask(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/call-tasks",
		`{"target_phone":"+15551234567","intent":"confirm appointment","voice_model_id":"v1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected non-empty id")
	}
	if resp.Status != "queued" {
		t.Fatalf("expected queued, got %q", resp.Status)
	}
}

func TestCreateCallTaskRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/call-tasks", `{"intent":"confirm appointment"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateCallTaskRejectsMalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/call-tasks", `{"target_phone":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAppendTranscript(t *testing.T) {
	r, transcripts := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/transcripts",
		`{"call_id":"c1","role":"system","text":"manual note","outcome":"completed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected ok response, got %s", w.Body.String())
	}

	entries, err := transcripts.ListByCall(context.Background(), "c1", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "manual note" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestAppendTranscriptRejectsBadRole(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/transcripts",
		`{"call_id":"c1","role":"narrator","text":"note"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListTranscripts(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, text := range []string{"one", "two", "three"} {
		w := doJSON(t, r, http.MethodPost, "/api/transcripts",
			`{"call_id":"c1","role":"assistant","text":"`+text+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("append failed: %d", w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/transcripts/c1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Items []struct {
			ID        string `json:"id"`
			CallID    string `json:"call_id"`
			Text      string `json:"text"`
			Timestamp string `json:"timestamp"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(resp.Items))
	}
	for i, want := range []string{"one", "two", "three"} {
		if resp.Items[i].Text != want {
			t.Fatalf("item %d: expected %q, got %q", i, want, resp.Items[i].Text)
		}
		if resp.Items[i].ID == "" {
			t.Fatalf("item %d: expected plain string id", i)
		}
		if resp.Items[i].Timestamp == "" || !strings.Contains(resp.Items[i].Timestamp, "T") {
			t.Fatalf("item %d: expected ISO-8601 timestamp, got %q", i, resp.Items[i].Timestamp)
		}
	}
}

func TestListTranscriptsLimit(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		doJSON(t, r, http.MethodPost, "/api/transcripts",
			`{"call_id":"c1","role":"assistant","text":"`+text+`"}`)
	}

	w := doJSON(t, r, http.MethodGet, "/api/transcripts/c1?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Items []struct {
			Text string `json:"text"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Text != "one" || resp.Items[1].Text != "two" {
		t.Fatalf("expected earliest two, got %+v", resp.Items)
	}
}

func TestListTranscriptsUnknownCallIsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/transcripts/unknown", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items, got %s", w.Body.String())
	}
}

func TestSchema(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/schema", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Schemas []string `json:"schemas"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	want := []string{"user", "product", "calltask", "transcriptlog"}
	if len(resp.Schemas) != len(want) {
		t.Fatalf("expected %v, got %v", want, resp.Schemas)
	}
	for i := range want {
		if resp.Schemas[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, resp.Schemas)
		}
	}
}
