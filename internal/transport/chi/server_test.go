package chi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/repository/propstore"
	"github.com/kailas-cloud/boardex/internal/repository/vault"
	transport "github.com/kailas-cloud/boardex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/boardex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/boardex/internal/usecase/query"
	resolveuc "github.com/kailas-cloud/boardex/internal/usecase/resolve"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiDocument struct {
	Path       string         `json:"path"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

type apiAxis struct {
	Property  string           `json:"property"`
	Buckets   []string         `json:"buckets"`
	RawValues []any            `json:"raw_values"`
	Reverse   map[string][]any `json:"reverse"`
}

type apiQueryResult struct {
	Documents []apiDocument `json:"documents"`
	X         *apiAxis      `json:"x"`
	Y         *apiAxis      `json:"y"`
	Errors    []string      `json:"errors"`
}

type apiPrompt struct {
	Axis       string `json:"axis"`
	Name       string `json:"name"`
	Target     string `json:"target"`
	Candidates []any  `json:"candidates"`
	Numeric    bool   `json:"numeric"`
}

type apiOutcome struct {
	Status       string         `json:"status"`
	Written      map[string]any `json:"written"`
	Acknowledged bool           `json:"acknowledged"`
}

type apiBeginResult struct {
	Token   string      `json:"token"`
	Prompts []apiPrompt `json:"prompts"`
	Outcome *apiOutcome `json:"outcome"`
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func newTestVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeDoc(t, root, "tasks/alpha.md", "---\nstatus: todo\npoints: 3\n---\nAlpha body.\n")
	writeDoc(t, root, "tasks/beta.md", "---\nstatus: done\npoints: 13\n---\nBeta body.\n")
	return root
}

func newTestAPI(t *testing.T, root string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	repo := vault.New(root)
	query := queryuc.New(repo, repo, logger)
	resolutions := resolveuc.NewRegistry(
		resolveuc.New(query, propstore.New(root), nil, 0, logger),
		time.Minute,
	)
	health := healthuc.New(repo, nil, nil)

	server := transport.NewServer(query, resolutions, health, logger)
	r := chi.NewRouter()
	server.Register(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

const statusBoard = "source: tasks\nx-axis: status"

// pointsBoard buckets the numeric points property by decade.
const pointsBoard = "source: tasks\nx-axis: points\nx-transform: floor(value / 10) * 10"

func TestQuery_GroupsByStatus(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "POST", "/api/v1/query", map[string]string{"config": statusBoard})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	res := decodeBody[apiQueryResult](t, rr)
	if len(res.Documents) != 2 {
		t.Fatalf("documents: got %d, want 2", len(res.Documents))
	}
	if res.X == nil {
		t.Fatal("x axis missing")
	}
	if res.X.Property != "status" {
		t.Errorf("x property: got %q, want %q", res.X.Property, "status")
	}
	if len(res.X.Buckets) != 2 {
		t.Errorf("x buckets: got %v, want 2 entries", res.X.Buckets)
	}
	if len(res.X.RawValues) != 2 {
		t.Errorf("x raw values: got %v, want 2 entries", res.X.RawValues)
	}
	if res.Y != nil {
		t.Errorf("y axis: got %+v, want absent", res.Y)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors: got %v, want none", res.Errors)
	}
}

func TestQuery_ReverseMapsBucketsToRawValues(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "POST", "/api/v1/query", map[string]string{"config": pointsBoard})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	res := decodeBody[apiQueryResult](t, rr)
	if got := res.X.Reverse["10"]; len(got) != 1 || got[0] != float64(13) {
		t.Errorf("reverse[10]: got %v, want [13]", got)
	}
	if got := res.X.Reverse["0"]; len(got) != 1 || got[0] != float64(3) {
		t.Errorf("reverse[0]: got %v, want [3]", got)
	}
}

func TestQuery_EmptyConfig_400(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "POST", "/api/v1/query", map[string]string{"config": ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeBody[apiError](t, rr); e.Code != "invalid_config" {
		t.Errorf("error code: got %q, want %q", e.Code, "invalid_config")
	}
}

func TestQuery_MissingSource_400(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "POST", "/api/v1/query", map[string]string{"config": "x-axis: status"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	e := decodeBody[apiError](t, rr)
	if e.Code != "invalid_config" {
		t.Errorf("error code: got %q, want %q", e.Code, "invalid_config")
	}
}

func TestQuery_MalformedBody_400(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	req := httptest.NewRequest("POST", "/api/v1/query", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeBody[apiError](t, rr); e.Code != "bad_request" {
		t.Errorf("error code: got %q, want %q", e.Code, "bad_request")
	}
}

func TestBeginResolution_ImmediateOutcomeWritesProperty(t *testing.T) {
	root := newTestVault(t)
	h := newTestAPI(t, root)

	rr := doJSON(t, h, "POST", "/api/v1/resolutions", map[string]any{
		"config":   statusBoard,
		"document": "tasks/alpha.md",
		"x_target": "done",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	begin := decodeBody[apiBeginResult](t, rr)
	if begin.Token != "" {
		t.Errorf("token: got %q, want empty for immediate outcome", begin.Token)
	}
	if begin.Outcome == nil {
		t.Fatal("outcome missing")
	}
	if begin.Outcome.Status != "committed" {
		t.Fatalf("outcome status: got %q, want committed", begin.Outcome.Status)
	}
	if got := begin.Outcome.Written["status"]; got != "done" {
		t.Errorf("written status: got %v, want done", got)
	}

	// The vault file is the source of truth: the next query must see the move.
	qr := doJSON(t, h, "POST", "/api/v1/query", map[string]string{"config": statusBoard})
	res := decodeBody[apiQueryResult](t, qr)
	for _, d := range res.Documents {
		if d.Path == "tasks/alpha.md" && d.Properties["status"] != "done" {
			t.Errorf("persisted status: got %v, want done", d.Properties["status"])
		}
	}
}

func TestBeginResolution_TransformedAxisPrompts(t *testing.T) {
	root := newTestVault(t)
	h := newTestAPI(t, root)

	rr := doJSON(t, h, "POST", "/api/v1/resolutions", map[string]any{
		"config":   pointsBoard,
		"document": "tasks/alpha.md",
		"x_target": "10",
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusAccepted, rr.Body.String())
	}

	begin := decodeBody[apiBeginResult](t, rr)
	if begin.Token == "" {
		t.Fatal("token missing for pending resolution")
	}
	if len(begin.Prompts) != 1 {
		t.Fatalf("prompts: got %d, want 1", len(begin.Prompts))
	}
	p := begin.Prompts[0]
	if p.Axis != "x" || p.Target != "10" {
		t.Errorf("prompt: got axis=%q target=%q, want x/10", p.Axis, p.Target)
	}
	if len(p.Candidates) != 1 || p.Candidates[0] != float64(13) {
		t.Errorf("candidates: got %v, want [13]", p.Candidates)
	}

	cr := doJSON(t, h, "POST", "/api/v1/resolutions/"+begin.Token, map[string]any{
		"choices": map[string]any{"x": 13},
	})
	if cr.Code != http.StatusOK {
		t.Fatalf("commit status: got %d, want %d (%s)", cr.Code, http.StatusOK, cr.Body.String())
	}

	outcome := decodeBody[apiOutcome](t, cr)
	if outcome.Status != "committed" {
		t.Fatalf("outcome status: got %q, want committed", outcome.Status)
	}
	if got := outcome.Written["points"]; got != float64(13) {
		t.Errorf("written points: got %v, want 13", got)
	}
}

func TestBeginResolution_SecondDropConflicts(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	body := map[string]any{
		"config":   pointsBoard,
		"document": "tasks/alpha.md",
		"x_target": "10",
	}
	if rr := doJSON(t, h, "POST", "/api/v1/resolutions", body); rr.Code != http.StatusAccepted {
		t.Fatalf("first drop: got %d, want %d", rr.Code, http.StatusAccepted)
	}

	rr := doJSON(t, h, "POST", "/api/v1/resolutions", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("second drop: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if e := decodeBody[apiError](t, rr); e.Code != "resolution_conflict" {
		t.Errorf("error code: got %q, want %q", e.Code, "resolution_conflict")
	}
}

func TestBeginResolution_MissingDocument_400(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "POST", "/api/v1/resolutions", map[string]any{
		"config":   statusBoard,
		"x_target": "done",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeBody[apiError](t, rr); e.Code != "invalid_config" {
		t.Errorf("error code: got %q, want %q", e.Code, "invalid_config")
	}
}

func TestCommitResolution_UnknownToken_404(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "POST", "/api/v1/resolutions/no-such-token", map[string]any{
		"choices": map[string]any{"x": 1},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if e := decodeBody[apiError](t, rr); e.Code != "resolution_not_found" {
		t.Errorf("error code: got %q, want %q", e.Code, "resolution_not_found")
	}
}

func TestCancelResolution_FreesDocument(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	body := map[string]any{
		"config":   pointsBoard,
		"document": "tasks/alpha.md",
		"x_target": "10",
	}
	begin := decodeBody[apiBeginResult](t, doJSON(t, h, "POST", "/api/v1/resolutions", body))

	rr := doJSON(t, h, "DELETE", "/api/v1/resolutions/"+begin.Token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("cancel: got %d, want %d", rr.Code, http.StatusNoContent)
	}

	// Cancelled sessions are gone and the document is droppable again.
	if rr := doJSON(t, h, "DELETE", "/api/v1/resolutions/"+begin.Token, nil); rr.Code != http.StatusNotFound {
		t.Errorf("second cancel: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if rr := doJSON(t, h, "POST", "/api/v1/resolutions", body); rr.Code != http.StatusAccepted {
		t.Errorf("re-drop after cancel: got %d, want %d", rr.Code, http.StatusAccepted)
	}
}

func TestHealthCheck_OK(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var report struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if report.Status != "ok" {
		t.Errorf("health status: got %q, want ok", report.Status)
	}
	if report.Checks["vault"] != "ok" {
		t.Errorf("vault check: got %q, want ok", report.Checks["vault"])
	}
}

func TestHealthCheck_VaultGone_503(t *testing.T) {
	root := t.TempDir()
	gone := filepath.Join(root, "missing")
	h := newTestAPI(t, gone)

	rr := doJSON(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestMetrics_Exposed(t *testing.T) {
	h := newTestAPI(t, newTestVault(t))

	rr := doJSON(t, h, "GET", "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}
