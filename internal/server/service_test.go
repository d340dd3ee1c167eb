package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/theirongolddev/budgetlens/internal/pipeline"
)

const sampleCSV = `Version,Scenario,Cost Center,Planned,Actual,FX Rate,Month
V1,Base,IT,10000,11000,1.0,2024-01
V2,What-if,HR,12000,11500,1.0,2024-02
V1,Base,IT,9000,9900,1.0,2024-03
`

func newTestService(t *testing.T, tier string, maxBytes int64) *Service {
	t.Helper()
	opts := pipeline.DefaultOptions()
	f, err := pipeline.FeaturesFor(tier)
	if err != nil {
		t.Fatal(err)
	}
	opts.Tier = tier
	opts.Features = f
	return New(Config{
		MaxUploadBytes: maxBytes,
		EventsBuffer:   10,
		Options:        opts,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func post(t *testing.T, h http.Handler, path, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, body); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestAnalyze_FormattedSummary(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/analyze", "input.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var rows []map[string]any
	decode(t, rec, &rows)
	if len(rows) != 2 {
		t.Fatalf("groups = %d, want 2", len(rows))
	}
	if rows[0]["Planned"] != "19,000.00" || rows[0]["Variance"] != "1,900.00" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["Actual"] != "11,500.00" || rows[1]["Variance"] != "-500.00" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestAnalyze_Scale(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/analyze?scale=k", "input.csv", sampleCSV)
	var rows []map[string]any
	decode(t, rec, &rows)
	if rows[0]["Planned"] != "19.00" {
		t.Errorf("scaled Planned = %v, want 19.00", rows[0]["Planned"])
	}

	rec = post(t, h, "/v1/analyze?scale=b", "input.csv", sampleCSV)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad scale status = %d, want 400", rec.Code)
	}
}

func TestCalculate(t *testing.T) {
	h := newTestService(t, pipeline.TierStandard, 0).Handler()
	rec := post(t, h, "/v1/calculate", "input.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var rows []map[string]any
	decode(t, rec, &rows)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if v, _ := rows[0]["Variance"].(float64); v != 1000 {
		t.Errorf("Variance = %v, want 1000", rows[0]["Variance"])
	}
}

func TestAlerts_ThresholdQuery(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/alerts?threshold=0.05", "input.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Threshold float64 `json:"threshold"`
		Series    []any   `json:"series"`
	}
	decode(t, rec, &body)
	if body.Threshold != 0.05 || len(body.Series) != 3 {
		t.Errorf("alerts = %+v", body)
	}

	rec = post(t, h, "/v1/alerts?threshold=-1", "input.csv", sampleCSV)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative threshold status = %d, want 400", rec.Code)
	}
}

func TestTierGating(t *testing.T) {
	h := newTestService(t, pipeline.TierStandard, 0).Handler()
	for _, path := range []string{"/v1/scenarios", "/v1/alerts", "/v1/suggest", "/v1/process", "/v1/report-exec"} {
		rec := post(t, h, path, "input.csv", sampleCSV)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s status = %d, want 403", path, rec.Code)
		}
	}

	h = newTestService(t, pipeline.TierPlus, 0).Handler()
	if rec := post(t, h, "/v1/suggest", "input.csv", sampleCSV); rec.Code != http.StatusOK {
		t.Errorf("plus /v1/suggest status = %d, want 200", rec.Code)
	}
	if rec := post(t, h, "/v1/report-exec", "input.csv", sampleCSV); rec.Code != http.StatusForbidden {
		t.Errorf("plus /v1/report-exec status = %d, want 403", rec.Code)
	}
}

func TestUploadErrors(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()

	tests := []struct {
		name     string
		filename string
		body     string
		want     int
	}{
		{"unsupported extension", "input.txt", sampleCSV, http.StatusBadRequest},
		{"empty file", "input.csv", "", http.StatusBadRequest},
		{"header only", "input.csv", "Cost Center,Planned\n", http.StatusBadRequest},
		{"corrupt workbook", "input.xlsx", "not a zip", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/v1/calculate", tt.filename, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			var body errorBody
			decode(t, rec, &body)
			if body.Error == "" || body.RequestID == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestMissingColumns(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/calculate", "input.csv", "Actual,Month\n1,2024-01\n")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if strings.Join(body.Missing, ",") != "Cost Center,Planned" {
		t.Errorf("missing = %v", body.Missing)
	}
	if strings.Join(body.Found, ",") != "Actual,Month" {
		t.Errorf("found = %v", body.Found)
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 512).Handler()
	big := sampleCSV + strings.Repeat("V1,Base,IT,1,1,1.0,2024-01\n", 100)
	rec := post(t, h, "/v1/calculate", "input.csv", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestReport(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/report", "input.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("report body is not an xlsx archive")
	}
}

func TestReportExec(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/report-exec", "input.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Bundle-ID") == "" {
		t.Error("missing X-Bundle-ID")
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 3 {
		t.Errorf("bundle files = %d, want 3", len(zr.File))
	}
}

func TestProcess_Preview(t *testing.T) {
	h := newTestService(t, pipeline.TierPremium, 0).Handler()
	rec := post(t, h, "/v1/process?scale=k", "input.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Scale    string           `json:"scale"`
		Preview  []map[string]any `json:"preview"`
		Accuracy *float64         `json:"accuracy_score"`
	}
	decode(t, rec, &body)
	if body.Scale != "k" || len(body.Preview) != 3 || body.Accuracy == nil {
		t.Fatalf("process = %+v", body)
	}
	if got := body.Preview[0]["Planned (disp)"]; got != "10.00" {
		t.Errorf("Planned (disp) = %v, want 10.00", got)
	}
	if got, _ := body.Preview[0]["Planned"].(float64); got != 10000 {
		t.Errorf("numeric Planned = %v, want 10000", body.Preview[0]["Planned"])
	}
}

func TestRunsAndStatus(t *testing.T) {
	svc := newTestService(t, pipeline.TierPremium, 0)
	h := svc.Handler()
	post(t, h, "/v1/calculate", "input.csv", sampleCSV)
	post(t, h, "/v1/calculate", "input.txt", "x")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	var events []Event
	decode(t, rec, &events)
	if len(events) != 2 {
		t.Fatalf("runs = %d, want 2", len(events))
	}
	if events[0].Type != "run" || events[0].Run.Rows != 3 {
		t.Errorf("first run = %+v", events[0])
	}
	if events[1].Type != "run_error" || events[1].Run.Status != http.StatusBadRequest {
		t.Errorf("second run = %+v", events[1])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	var st Status
	decode(t, rec, &st)
	if st.RunCount != 2 || st.ErrorCount != 1 || st.Tier != pipeline.TierPremium {
		t.Errorf("status = %+v", st)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestHealth(t *testing.T) {
	h := newTestService(t, pipeline.TierStandard, 0).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}
}
