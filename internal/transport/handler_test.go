package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-card-extractor/internal/config"
	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/preprocess"
	"go-card-extractor/internal/service"
	"go-card-extractor/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// StubExtractionService records calls and returns canned results
type StubExtractionService struct {
	session      *models.Session
	err          error
	files        []preprocess.CardFile
	urls         []string
	lastOpts     service.ExtractOptions
	lastDeadline time.Time
}

func (s *StubExtractionService) ExtractFromFiles(ctx context.Context, files []preprocess.CardFile, opts service.ExtractOptions) (*models.Session, error) {
	s.files = files
	s.lastOpts = opts
	s.lastDeadline, _ = ctx.Deadline()
	return s.session, s.err
}

func (s *StubExtractionService) ExtractFromURLs(ctx context.Context, urls []string, opts service.ExtractOptions) (*models.Session, error) {
	s.urls = urls
	s.lastOpts = opts
	s.lastDeadline, _ = ctx.Deadline()
	return s.session, s.err
}

func (s *StubExtractionService) Session(id string) (*models.Session, error) {
	if s.session != nil && s.session.ID == id {
		return s.session, nil
	}
	return nil, apperrors.NewNotFoundError("extraction session not found", nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  2 * time.Second,
		ExtractionTimeout:  5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		MaxBatchSize:       3,
	}
}

func sampleSession() *models.Session {
	website := "https://acme.example"
	return &models.Session{
		ID:         "sess-1",
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ImageCount: 1,
		Contacts: []models.ContactInfo{
			{
				Name:    "Jane Doe",
				Email:   []string{"jane@acme.example"},
				Website: &website,
			},
		},
	}
}

func multipartBody(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range names {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write([]byte("fake image bytes"))
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	handler := NewHandler(&StubExtractionService{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload["status"] != "available" {
		t.Errorf("expected status 'available', got %q", payload["status"])
	}
}

func TestExtract_Upload(t *testing.T) {
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, testConfig())

	body, contentType := multipartBody(t, "images", "front.jpg", "back.jpg")
	req := httptest.NewRequest(http.MethodPost, "/extract?dedupe=true", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if len(stub.files) != 2 {
		t.Fatalf("expected 2 files passed to service, got %d", len(stub.files))
	}
	if stub.files[0].Name != "front.jpg" || stub.files[1].Name != "back.jpg" {
		t.Errorf("file order not preserved: %q, %q", stub.files[0].Name, stub.files[1].Name)
	}
	if !stub.lastOpts.Dedupe {
		t.Error("expected dedupe option to be enabled via query parameter")
	}

	var session models.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if session.ID != "sess-1" || len(session.Contacts) != 1 {
		t.Errorf("unexpected session payload: %+v", session)
	}
}

func TestExtract_UsesExtractionDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = time.Hour
	cfg.ExtractionTimeout = 2 * time.Second
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, cfg)

	body, contentType := multipartBody(t, "images", "card.jpg")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)
	before := time.Now()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if stub.lastDeadline.IsZero() {
		t.Fatal("expected the service context to carry a deadline")
	}
	if remaining := stub.lastDeadline.Sub(before); remaining > cfg.ExtractionTimeout {
		t.Errorf("expected deadline within the extraction timeout, got %s", remaining)
	}
}

func TestExtract_BatchLimit(t *testing.T) {
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, testConfig())

	body, contentType := multipartBody(t, "images", "1.jpg", "2.jpg", "3.jpg", "4.jpg")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for oversized batch, got %d", rec.Code)
	}
	if stub.files != nil {
		t.Error("service should not be called when the batch limit is exceeded")
	}
}

func TestExtract_WrongField(t *testing.T) {
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, testConfig())

	body, contentType := multipartBody(t, "pictures", "card.jpg")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// No files under the expected field is an empty batch, not an error
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(stub.files) != 0 {
		t.Errorf("expected no files passed to service, got %d", len(stub.files))
	}
}

func TestExtract_ServiceError(t *testing.T) {
	stub := &StubExtractionService{
		err: apperrors.NewConfigurationError("vision API credential is not configured", nil),
	}
	handler := NewHandler(stub, testConfig())

	body, contentType := multipartBody(t, "images", "card.jpg")
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 for configuration error, got %d", rec.Code)
	}
	var errResp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("invalid JSON error body: %v", err)
	}
	if !strings.Contains(errResp.Message, "credential") {
		t.Errorf("expected credential message, got %q", errResp.Message)
	}
}

func TestExtractURLs(t *testing.T) {
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, testConfig())

	payload := `{"urls": ["https://cards.example/a.jpg", "https://cards.example/b.jpg"]}`
	req := httptest.NewRequest(http.MethodPost, "/extract/urls", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if len(stub.urls) != 2 {
		t.Fatalf("expected 2 URLs passed to service, got %d", len(stub.urls))
	}
	if stub.lastDeadline.IsZero() {
		t.Error("expected the service context to carry a deadline")
	}
}

func TestExtractURLs_InvalidJSON(t *testing.T) {
	handler := NewHandler(&StubExtractionService{}, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/extract/urls", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1/export/csv", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv content type, got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 record, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "Jane Doe") {
		t.Errorf("expected contact row, got %q", lines[1])
	}
}

func TestExportCSV_UnknownSession(t *testing.T) {
	handler := NewHandler(&StubExtractionService{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing/export/csv", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestExportClipboard(t *testing.T) {
	stub := &StubExtractionService{session: sampleSession()}
	handler := NewHandler(stub, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1/export/clipboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Name: Jane Doe") {
		t.Errorf("expected clipboard text with name line, got %q", body)
	}
	if strings.Contains(body, "Job Title:") {
		t.Errorf("absent fields must be skipped, got %q", body)
	}
}
