package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
)

const (
	resultCacheTTL = 30 * time.Minute

	pipelineActor = "pipeline"

	// New-vendor creation requires more certainty than a fuzzy match.
	vendorCreateThreshold = 0.8
)

func resultCacheKey(orgID, filename string) string {
	return "pipeline:result:" + orgID + ":" + filename
}

func metricsCacheKey(orgID string) string {
	return "org:metrics:" + orgID
}

func vendorListCacheKey(orgID string) string {
	return "org:vendors:" + orgID
}

// cachedOutcome is the (vendor match, classification) pair reused when the
// same organization reprocesses a file within the result TTL.
type cachedOutcome struct {
	Match          domain.VendorMatch    `json:"vendor_match"`
	Classification domain.Classification `json:"classification"`
}

// documentLocks is an in-process try-lock keyed by document id. It closes
// the race between two orchestrator runs for the same document: the second
// run fails fast instead of interleaving writes.
type documentLocks struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{active: make(map[string]struct{})}
}

func (l *documentLocks) tryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[id]; busy {
		return false
	}
	l.active[id] = struct{}{}
	return true
}

func (l *documentLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, id)
}

// ProcessDocumentUseCase drives one document through download, recognition,
// vendor resolution, classification, category mapping, and persistence as a
// sequential state machine. Retry policy is owned by the collaborators:
// recognition is wrapped in a retrying client, every other step fails fast.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	recognizer ports.RecognitionService
	resolver   *VendorResolver
	classifier *Classifier
	mapper     *CategoryMapper
	history    ports.HistoryRepository
	webhook    ports.WebhookNotifier
	cache      ports.ResultCache

	locks *documentLocks
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	recognizer ports.RecognitionService,
	resolver *VendorResolver,
	classifier *Classifier,
	mapper *CategoryMapper,
	history ports.HistoryRepository,
	webhook ports.WebhookNotifier,
	cache ports.ResultCache,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		storage:    storage,
		recognizer: recognizer,
		resolver:   resolver,
		classifier: classifier,
		mapper:     mapper,
		history:    history,
		webhook:    webhook,
		cache:      cache,
		locks:      newDocumentLocks(),
	}
}

func (uc *ProcessDocumentUseCase) Process(ctx context.Context, documentID string) (*domain.PipelineResult, error) {
	if !uc.locks.tryAcquire(documentID) {
		return nil, domain.WrapError(domain.ErrDocumentBusy, "acquire document lock", fmt.Errorf("document %s", documentID))
	}
	defer uc.locks.release(documentID)

	start := time.Now()

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return nil, uc.fail(ctx, documentID, start, domain.WrapError(domain.ErrPersistenceFailed, "set status=processing", err))
	}

	result, err := uc.run(ctx, documentID, start)
	if err != nil {
		return nil, uc.fail(ctx, documentID, start, err)
	}
	return result, nil
}

func (uc *ProcessDocumentUseCase) run(ctx context.Context, documentID string, start time.Time) (*domain.PipelineResult, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	blob, err := uc.download(ctx, doc)
	if err != nil {
		return nil, err
	}

	fields, err := uc.recognize(ctx, doc, blob)
	if err != nil {
		return nil, err
	}

	match, classification, err := uc.resolveAndClassify(ctx, doc, fields)
	if err != nil {
		return nil, err
	}

	assignments, err := uc.mapper.Assign(ctx, doc.OrganizationID, fields, classification)
	if err != nil {
		return nil, err
	}

	result := &domain.PipelineResult{
		DocumentID:     doc.ID,
		VendorMatch:    match,
		Classification: classification,
		Assignments:    assignments,
		Elapsed:        time.Since(start),
	}

	if err := uc.persist(ctx, doc, fields, result); err != nil {
		return nil, err
	}

	// Downstream notification is best effort; the notifier logs failures.
	uc.webhook.Notify(ctx, doc.ID, doc.OrganizationID)

	uc.cache.Set(resultCacheKey(doc.OrganizationID, doc.Filename), cachedOutcome{
		Match:          match,
		Classification: classification,
	}, resultCacheTTL)
	uc.cache.Delete(metricsCacheKey(doc.OrganizationID))
	uc.cache.Delete(vendorListCacheKey(doc.OrganizationID))

	return result, nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) download(ctx context.Context, doc *domain.Document) ([]byte, error) {
	blob, err := uc.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDownloadFailed, "download source file", err)
	}
	return blob, nil
}

func (uc *ProcessDocumentUseCase) recognize(ctx context.Context, doc *domain.Document, blob []byte) (domain.ExtractedFields, error) {
	fields, err := uc.recognizer.Analyze(ctx, blob, doc.Type)
	if err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrExtractionFailed, "analyze document", err)
	}
	return fields, nil
}

func (uc *ProcessDocumentUseCase) resolveAndClassify(ctx context.Context, doc *domain.Document, fields domain.ExtractedFields) (domain.VendorMatch, domain.Classification, error) {
	if cached, ok := uc.cache.Get(resultCacheKey(doc.OrganizationID, doc.Filename)); ok {
		if outcome, ok := cached.(cachedOutcome); ok {
			slog.Info("pipeline_cache_hit", "document_id", doc.ID, "filename", doc.Filename)
			return outcome.Match, outcome.Classification, nil
		}
	}

	vctx := domain.VendorContext{
		Phone:   fields.VendorPhone,
		Email:   fields.VendorEmail,
		Address: fields.VendorAddress,
	}
	match, err := uc.resolver.Resolve(ctx, doc.OrganizationID, fields.VendorName, vctx)
	if err != nil {
		return domain.VendorMatch{}, domain.Classification{}, err
	}
	if match.Kind == domain.MatchNew && match.Confidence > vendorCreateThreshold {
		if id := uc.resolver.CreateFromExtraction(ctx, doc.OrganizationID, pipelineActor, match, vctx); id != nil {
			match.VendorID = id
		}
	}

	classification := uc.classifier.Classify(ctx, doc.OrganizationID, fields)
	return match, classification, nil
}

func (uc *ProcessDocumentUseCase) persist(ctx context.Context, doc *domain.Document, fields domain.ExtractedFields, result *domain.PipelineResult) error {
	if err := uc.repo.SaveExtraction(ctx, doc.ID, fields, result.VendorMatch.VendorID); err != nil {
		return domain.WrapError(domain.ErrPersistenceFailed, "save extracted fields", err)
	}
	if err := uc.repo.ReplaceLineItems(ctx, doc.ID, result.Assignments); err != nil {
		return domain.WrapError(domain.ErrPersistenceFailed, "replace line items", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusCompleted, ""); err != nil {
		return domain.WrapError(domain.ErrPersistenceFailed, "set status=completed", err)
	}

	audit := struct {
		Fields domain.ExtractedFields `json:"fields"`
		*domain.PipelineResult
	}{fields, result}
	payload, err := json.Marshal(audit)
	if err != nil {
		return domain.WrapError(domain.ErrPersistenceFailed, "marshal audit payload", err)
	}

	record := &domain.ProcessingRecord{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Status:     domain.StatusCompleted,
		ElapsedMS:  result.Elapsed.Milliseconds(),
		Result:     payload,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.history.Append(ctx, record); err != nil {
		return domain.WrapError(domain.ErrPersistenceFailed, "append processing history", err)
	}
	return nil
}

// fail marks the document failed, appends the audit record, and returns the
// original error for the caller to count. Bookkeeping failures are logged,
// not allowed to mask the pipeline error.
func (uc *ProcessDocumentUseCase) fail(ctx context.Context, documentID string, start time.Time, processErr error) error {
	elapsed := time.Since(start)

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, processErr.Error()); err != nil {
		slog.Error("mark_failed_status_error", "document_id", documentID, "error", err)
	}
	record := &domain.ProcessingRecord{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     domain.StatusFailed,
		Error:      processErr.Error(),
		ElapsedMS:  elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.history.Append(ctx, record); err != nil {
		slog.Error("failed_history_append_error", "document_id", documentID, "error", err)
	}
	return processErr
}
