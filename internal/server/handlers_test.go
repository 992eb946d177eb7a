package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/shinsa/internal/config"
	"github.com/hyperjump/shinsa/internal/embedding"
	"github.com/hyperjump/shinsa/internal/extract"
	"github.com/hyperjump/shinsa/internal/ingest"
	"github.com/hyperjump/shinsa/internal/judge"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"github.com/hyperjump/shinsa/internal/service"
	"github.com/hyperjump/shinsa/internal/storage"
	"go.uber.org/zap"
)

const (
	testExpenses = "Record ID,Amount,Date,Category,Description,Receipt ID,Receipt Attached\n" +
		"E1,10.00,2024-01-01,Meals,Team lunch,R1,yes\n" +
		"E2,20.00,2024-01-02,Travel,Taxi to airport,,no\n"
	testPolicy  = "Meals are reimbursable up to 50 dollars per person.\n\nTaxi fares to the airport are reimbursable."
	testReceipt = "Receipt ID: R1\nAmount: $12.00\n"
)

type testEnv struct {
	srv   *Server
	store storage.Storage
}

func newTestEnv(t *testing.T, standingPolicy bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "reports.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zap.NewNop()
	cfg := &config.Config{}
	cfg.Embedding.Provider = "mock"
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "reports.db")

	in := ingest.NewIngestor(embedding.NewMockEmbedder(16), extract.NewExtractor(), ingest.WithChunking(200, 20))
	opts := []service.Option{service.WithStorage(store), service.WithLogger(logger)}
	if standingPolicy {
		path := filepath.Join(dir, "policy.txt")
		if err := os.WriteFile(path, []byte(testPolicy), 0o644); err != nil {
			t.Fatal(err)
		}
		st := policy.NewStanding(path, in.LoadPolicyFile, logger)
		if err := st.Reload(context.Background()); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		opts = append(opts, service.WithStanding(st))
	}
	judges := map[string]judge.Judge{judge.ModeSimilarity: judge.NewSimilarityJudge(0.5)}
	svc, err := service.New(in, judges, judge.ModeSimilarity, opts...)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	return &testEnv{srv: NewServer(svc, cfg, logger), store: store}
}

func multipartBody(t *testing.T, files map[string][]string, contents map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := fw.Write([]byte(contents[name])); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleCompliance(t *testing.T) {
	env := newTestEnv(t, false)
	body, ct := multipartBody(t,
		map[string][]string{
			"expense_file":  {"expenses.csv"},
			"policy_file":   {"policy.txt"},
			"receipt_files": {"R1.txt"},
		},
		map[string]string{"expenses.csv": testExpenses, "policy.txt": testPolicy, "R1.txt": testReceipt})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compliance", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var out complianceResponse
	decode(t, w, &out)
	if out.Status != "success" || out.ReportID == "" {
		t.Errorf("unexpected envelope: %+v", out)
	}
	if out.Warnings == nil {
		t.Error("warnings should be an empty list, not null")
	}
	if len(out.Report) != 2 {
		t.Fatalf("verdicts: got %d, want 2", len(out.Report))
	}
	if out.Report[0].RecordID != "E1" || out.Report[1].RecordID != "E2" {
		t.Errorf("verdict order: %s, %s", out.Report[0].RecordID, out.Report[1].RecordID)
	}
	if out.Report[0].Compliance != models.NonCompliant {
		t.Errorf("E1: got %s, want NonCompliant (amount mismatch)", out.Report[0].Compliance)
	}
	if out.Report[1].Compliance == models.Error {
		t.Errorf("E2: unexpected Error verdict: %s", out.Report[1].Explanation)
	}
	if out.Summary.Total != 2 {
		t.Errorf("summary total: got %d", out.Summary.Total)
	}

	stored, err := env.store.GetReport(context.Background(), out.ReportID)
	if err != nil {
		t.Fatalf("report not persisted: %v", err)
	}
	if len(stored.Verdicts) != 2 {
		t.Errorf("stored verdicts: got %d", len(stored.Verdicts))
	}
}

func TestHandleCompliance_StandingPolicy(t *testing.T) {
	env := newTestEnv(t, true)
	body, ct := multipartBody(t,
		map[string][]string{"expense_file": {"expenses.csv"}},
		map[string]string{"expenses.csv": testExpenses})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compliance", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
}

func TestHandleCompliance_BadRequests(t *testing.T) {
	env := newTestEnv(t, false)
	tests := []struct {
		name     string
		files    map[string][]string
		contents map[string]string
		query    string
	}{
		{
			name:     "missing expense file",
			files:    map[string][]string{"policy_file": {"policy.txt"}},
			contents: map[string]string{"policy.txt": testPolicy},
		},
		{
			name:     "missing policy without standing policy",
			files:    map[string][]string{"expense_file": {"expenses.csv"}},
			contents: map[string]string{"expenses.csv": testExpenses},
		},
		{
			name:     "missing required columns",
			files:    map[string][]string{"expense_file": {"expenses.csv"}, "policy_file": {"policy.txt"}},
			contents: map[string]string{"expenses.csv": "Amount,Date\n1.00,2024-01-01\n", "policy.txt": testPolicy},
		},
		{
			name:     "unknown mode",
			files:    map[string][]string{"expense_file": {"expenses.csv"}, "policy_file": {"policy.txt"}},
			contents: map[string]string{"expenses.csv": testExpenses, "policy.txt": testPolicy},
			query:    "?mode=oracle",
		},
		{
			name:     "generative mode not configured",
			files:    map[string][]string{"expense_file": {"expenses.csv"}, "policy_file": {"policy.txt"}},
			contents: map[string]string{"expenses.csv": testExpenses, "policy.txt": testPolicy},
			query:    "?mode=generative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.files, tt.contents)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/compliance"+tt.query, body)
			req.Header.Set("Content-Type", ct)
			w := env.do(t, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			var out map[string]string
			decode(t, w, &out)
			if out["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestHandleCompliance_NotMultipart(t *testing.T) {
	env := newTestEnv(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compliance", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleReports(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	rep := &models.Report{
		ID:       "rep-1",
		Mode:     judge.ModeSimilarity,
		Verdicts: []models.Verdict{{RecordID: "E1", Compliance: models.Compliant, Explanation: "ok"}},
		Summary:  models.Summary{Total: 1, Compliant: 1},
	}
	if err := env.store.SaveReport(ctx, rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=500", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}
	var list struct {
		Reports []models.ReportInfo `json:"reports"`
		Total   int64               `json:"total"`
		Limit   int                 `json:"limit"`
	}
	decode(t, w, &list)
	if list.Total != 1 || len(list.Reports) != 1 || list.Reports[0].ID != "rep-1" {
		t.Errorf("unexpected listing: %+v", list)
	}
	if list.Limit != maxListLimit {
		t.Errorf("limit: got %d, want clamp to %d", list.Limit, maxListLimit)
	}

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports?offset=-1", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative offset: got %d", w.Code)
	}

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/rep-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var got models.Report
	decode(t, w, &got)
	if got.ID != "rep-1" || len(got.Verdicts) != 1 {
		t.Errorf("unexpected report: %+v", got)
	}

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/reports/rep-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d", w.Code)
	}
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/rep-1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", w.Code)
	}
	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/reports/rep-1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing: got %d, want 404", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		JudgeMode      string                 `json:"judge_mode"`
		Reports        int64                  `json:"reports"`
		StandingPolicy map[string]interface{} `json:"standing_policy"`
		Config         map[string]interface{} `json:"config"`
	}
	decode(t, w, &out)
	if out.JudgeMode != judge.ModeSimilarity {
		t.Errorf("judge_mode: got %q", out.JudgeMode)
	}
	if loaded, _ := out.StandingPolicy["loaded"].(bool); !loaded {
		t.Errorf("standing policy should be loaded: %+v", out.StandingPolicy)
	}
	if out.Config["embedding_provider"] != "mock" {
		t.Errorf("embedding_provider: got %v", out.Config["embedding_provider"])
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out map[string]string
	decode(t, w, &out)
	if out["status"] != "ok" {
		t.Errorf("body: %+v", out)
	}
}
