package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
)

type fakeVendorRepo struct {
	mu        sync.Mutex
	vendors   []domain.Vendor
	listErr   error
	createErr error
	listCalls int
	created   []*domain.Vendor
}

func (f *fakeVendorRepo) ListByOrganization(_ context.Context, _ string) ([]domain.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.vendors, nil
}

func (f *fakeVendorRepo) Create(_ context.Context, vendor *domain.Vendor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, vendor)
	return nil
}

type fakeCategoryRepo struct {
	categories []domain.Category
	listErr    error
}

func (f *fakeCategoryRepo) ListByOrganization(_ context.Context, _ string) ([]domain.Category, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.categories, nil
}

type fakeReasoner struct {
	mu     sync.Mutex
	result domain.Classification
	err    error
	calls  int
}

func (f *fakeReasoner) Classify(_ context.Context, _ ports.ClassificationRequest) (domain.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Classification{}, f.err
	}
	return f.result, nil
}

type fakeDocumentRepo struct {
	mu sync.Mutex

	doc    *domain.Document
	getErr error

	statusErr   error
	statuses    []domain.DocumentStatus
	lastMessage string

	saveErr     error
	savedFields *domain.ExtractedFields
	savedVendor *string

	replaceErr error
	replaced   []domain.CategoryAssignment
}

func (f *fakeDocumentRepo) Create(_ context.Context, _ *domain.Document) error { return nil }

func (f *fakeDocumentRepo) GetByID(_ context.Context, _ string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc := *f.doc
	return &doc, nil
}

func (f *fakeDocumentRepo) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statuses = append(f.statuses, status)
	f.lastMessage = errMessage
	return nil
}

func (f *fakeDocumentRepo) SaveExtraction(_ context.Context, _ string, fields domain.ExtractedFields, vendorID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedFields = &fields
	f.savedVendor = vendorID
	return nil
}

func (f *fakeDocumentRepo) ReplaceLineItems(_ context.Context, _ string, items []domain.CategoryAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = items
	return nil
}

func (f *fakeDocumentRepo) statusTrail() []domain.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DocumentStatus(nil), f.statuses...)
}

type fakeStorage struct {
	blob        []byte
	downloadErr error
}

func (f *fakeStorage) Save(_ context.Context, _ string, _ io.Reader) error { return nil }

func (f *fakeStorage) Download(_ context.Context, _ string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.blob, nil
}

type fakeRecognizer struct {
	mu      sync.Mutex
	fields  domain.ExtractedFields
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeRecognizer) Analyze(_ context.Context, _ []byte, _ domain.DocumentType) (domain.ExtractedFields, error) {
	f.mu.Lock()
	f.calls++
	started := f.started
	release := f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		f.mu.Lock()
		f.started = nil
		f.mu.Unlock()
	}
	if release != nil {
		<-release
	}
	if f.err != nil {
		return domain.ExtractedFields{}, f.err
	}
	return f.fields, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	err     error
	records []*domain.ProcessingRecord
}

func (f *fakeHistory) Append(_ context.Context, record *domain.ProcessingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) all() []*domain.ProcessingRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.ProcessingRecord(nil), f.records...)
}

type fakeWebhook struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeWebhook) Notify(_ context.Context, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]any
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]any)}
}

func (f *fakeCache) Set(key string, value any, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
}

func (f *fakeCache) Get(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	return value, ok
}

func (f *fakeCache) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	f.deleted = append(f.deleted, key)
}

func (f *fakeCache) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]any)
}

type fakeProcessor struct {
	mu      sync.Mutex
	failIDs map[string]bool
	calls   []string
}

func (f *fakeProcessor) Process(_ context.Context, documentID string) (*domain.PipelineResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, documentID)
	if f.failIDs[documentID] {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "analyze document", domain.ErrTemporary)
	}
	return &domain.PipelineResult{DocumentID: documentID}, nil
}
