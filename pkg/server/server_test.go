package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/yurifrl/chatledger/pkg/config"
	"github.com/yurifrl/chatledger/pkg/extract"
	"github.com/yurifrl/chatledger/pkg/models"
	"github.com/yurifrl/chatledger/pkg/report"
	"github.com/yurifrl/chatledger/pkg/service"
)

const transcript = "1/15/2025, 10:30 AM - Ana: 150,00 for groceries\n" +
	"1/16/2025, 11:00 AM - Bea: IMG-20250116-WA0001.jpg (file attached)\n" +
	"not a message line\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		DataDir: "expenses/data",
		Format:  "xlsx",
		Dates:   config.DatesConfig{RangeLayout: "02/01/2006", TranscriptOrder: "mdy"},
	}
	fs := afero.NewMemMapFs()
	ex, err := extract.New(cfg.ExtractOptions(), fs, nil, nil, log.Default())
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	return New(cfg, service.NewProcessor(cfg, fs, ex, log.Default()), log.Default())
}

func uploadRequest(t *testing.T, fields map[string]string, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if content != "" {
		fw, err := mw.CreateFormFile("transcript", "WhatsApp Chat with Family.txt")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type processResponse struct {
	Status string `json:"status"`
	File   string `json:"file"`
	CSV    string `json:"csv"`
	Error  string `json:"error"`
	Ledger struct {
		Entries []struct {
			Sender string          `json:"sender"`
			Amount json.RawMessage `json:"amount"`
			Kind   string          `json:"kind"`
		} `json:"entries"`
		Summary []struct {
			Sender            string  `json:"sender"`
			Total             float64 `json:"total"`
			NeedsVerification int     `json:"needs_verification"`
		} `json:"summary"`
		Stats struct {
			Dropped int `json:"dropped"`
		} `json:"stats"`
	} `json:"ledger"`
}

func TestHandleProcess(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, map[string]string{"start": "01/01/2025", "end": "31/01/2025"}, transcript))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp processResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Ledger.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(resp.Ledger.Entries))
	}
	if string(resp.Ledger.Entries[0].Amount) != "150" {
		t.Errorf("amount = %s, want 150", resp.Ledger.Entries[0].Amount)
	}
	if string(resp.Ledger.Entries[1].Amount) != `"Verify"` || resp.Ledger.Entries[1].Kind != "Image" {
		t.Errorf("image entry = %+v", resp.Ledger.Entries[1])
	}
	if resp.Ledger.Stats.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", resp.Ledger.Stats.Dropped)
	}
	if !strings.HasPrefix(resp.File, "WhatsApp Chat with Family-") || !strings.HasSuffix(resp.File, ".xlsx") {
		t.Errorf("file = %q", resp.File)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/"+resp.File, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.DetailsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want 3", len(rows))
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/"+resp.CSV, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ana") {
		t.Errorf("csv download = %d %s", rec.Code, rec.Body.String())
	}
}

func processUpload(t *testing.T, s *Server) processResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, map[string]string{"start": "01/01/2025", "end": "31/01/2025"}, transcript))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp processResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func download(s *Server, name string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/"+name, nil))
	return rec
}

func TestHandleFiles_CSVFilters(t *testing.T) {
	s := newTestServer(t)
	resp := processUpload(t, s)

	tests := []struct {
		name    string
		query   string
		status  int
		want    []string
		notWant []string
	}{
		{name: "all", query: "", status: http.StatusOK, want: []string{"Ana", "Bea"}},
		{name: "verify", query: "?filter=verify", status: http.StatusOK, want: []string{"Bea", "Verify"}, notWant: []string{"Ana"}},
		{name: "sender", query: "?sender=Ana", status: http.StatusOK, want: []string{"Ana"}, notWant: []string{"Bea"}},
		{name: "verify and sender", query: "?filter=verify&sender=Ana", status: http.StatusOK, notWant: []string{"Ana", "Bea"}},
		{name: "unknown filter", query: "?filter=bogus", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := download(s, resp.CSV+tt.query)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			body := rec.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("csv missing %q:\n%s", w, body)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(body, w) {
					t.Errorf("csv should not contain %q:\n%s", w, body)
				}
			}
		})
	}
}

func TestHandleFiles_CacheIsBounded(t *testing.T) {
	s := newTestServer(t)
	s.ledgers = expirable.NewLRU[string, *models.Ledger](2, nil, time.Hour)

	first := processUpload(t, s)
	processUpload(t, s)
	last := processUpload(t, s)

	if s.ledgers.Len() != 2 {
		t.Errorf("cached ledgers = %d, want 2", s.ledgers.Len())
	}
	if rec := download(s, first.CSV); rec.Code != http.StatusNotFound {
		t.Errorf("oldest ledger status = %d, want 404", rec.Code)
	}
	if rec := download(s, last.CSV); rec.Code != http.StatusOK {
		t.Errorf("newest ledger status = %d, want 200", rec.Code)
	}
}

func TestHandleFiles_CacheExpires(t *testing.T) {
	s := newTestServer(t)
	s.ledgers = expirable.NewLRU[string, *models.Ledger](4, nil, 20*time.Millisecond)

	resp := processUpload(t, s)
	time.Sleep(100 * time.Millisecond)

	if rec := download(s, resp.File); rec.Code != http.StatusNotFound {
		t.Errorf("expired ledger status = %d, want 404", rec.Code)
	}
}

func TestHandleProcess_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		content string
	}{
		{"malformed start", map[string]string{"start": "2025-01-01", "end": "31/01/2025"}, transcript},
		{"missing end", map[string]string{"start": "01/01/2025"}, transcript},
		{"inverted range", map[string]string{"start": "31/01/2025", "end": "01/01/2025"}, transcript},
		{"missing file", map[string]string{"start": "01/01/2025", "end": "31/01/2025"}, ""},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, tt.fields, tt.content))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleProcess_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleFiles_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/unknown.xlsx", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthAndHome(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "02/01/2006") {
		t.Errorf("home = %d", rec.Code)
	}
}
