package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

type stubIngestor struct {
	doc *domain.Document
	err error

	gotOrg      string
	gotFilename string
	gotType     domain.DocumentType
}

func (s *stubIngestor) Upload(_ context.Context, orgID, filename string, docType domain.DocumentType, body io.Reader) (*domain.Document, error) {
	s.gotOrg = orgID
	s.gotFilename = filename
	s.gotType = docType
	_, _ = io.Copy(io.Discard, body)
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

type stubCoordinator struct {
	jobID     string
	submitErr error
	job       *domain.BatchJob
	statusErr error
}

func (s *stubCoordinator) Submit(_ context.Context, _ string, _ []string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return s.jobID, nil
}

func (s *stubCoordinator) Status(_ string) (*domain.BatchJob, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.job, nil
}

type stubReader struct {
	doc *domain.Document
	err error
}

func (s *stubReader) GetByID(_ context.Context, _ string) (*domain.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func multipartUpload(t *testing.T, orgID, filename, docType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("scanned bytes")); err != nil {
		t.Fatal(err)
	}
	_ = writer.WriteField("organization_id", orgID)
	_ = writer.WriteField("type", docType)
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, writer.FormDataContentType()
}

func TestUploadDocumentRoute(t *testing.T) {
	ingestor := &stubIngestor{doc: &domain.Document{ID: "doc-1", Status: domain.StatusPending}}
	router := NewRouter(ingestor, &stubCoordinator{}, &stubReader{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	body, contentType := multipartUpload(t, "org-1", "invoice.pdf", "invoice")
	resp, err := http.Post(server.URL+"/v1/documents", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if ingestor.gotOrg != "org-1" || ingestor.gotFilename != "invoice.pdf" || ingestor.gotType != domain.TypeInvoice {
		t.Errorf("ingestor got (%q, %q, %q)", ingestor.gotOrg, ingestor.gotFilename, ingestor.gotType)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing request id header")
	}

	var doc domain.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != "doc-1" {
		t.Errorf("document id = %q, want doc-1", doc.ID)
	}
}

func TestUploadDocumentRouteValidationError(t *testing.T) {
	ingestor := &stubIngestor{err: domain.WrapError(domain.ErrInvalidInput, "upload document", io.ErrUnexpectedEOF)}
	router := NewRouter(ingestor, &stubCoordinator{}, &stubReader{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	body, contentType := multipartUpload(t, "", "invoice.pdf", "")
	resp, err := http.Post(server.URL+"/v1/documents", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetDocumentRouteNotFound(t *testing.T) {
	reader := &stubReader{err: domain.WrapError(domain.ErrDocumentNotFound, "fetch document", io.EOF)}
	router := NewRouter(&stubIngestor{}, &stubCoordinator{}, reader)
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/documents/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitBatchRoute(t *testing.T) {
	coordinator := &stubCoordinator{jobID: "job-1"}
	router := NewRouter(&stubIngestor{}, coordinator, &stubReader{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	payload := `{"organization_id":"org-1","document_ids":["d1","d2"]}`
	resp, err := http.Post(server.URL+"/v1/batches", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["job_id"] != "job-1" {
		t.Errorf("job_id = %q, want job-1", out["job_id"])
	}
}

func TestBatchStatusRoute(t *testing.T) {
	coordinator := &stubCoordinator{job: &domain.BatchJob{ID: "job-1", Status: domain.BatchCompleted, Progress: 100}}
	router := NewRouter(&stubIngestor{}, coordinator, &stubReader{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/batches/job-1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var job domain.BatchJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	if job.Status != domain.BatchCompleted || job.Progress != 100 {
		t.Errorf("job = %+v", job)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := NewRouter(&stubIngestor{}, &stubCoordinator{}, &stubReader{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/batches")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
