package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
)

// BatchObserver receives batch lifecycle callbacks. Satisfied by
// metrics.PipelineMetrics; may be nil.
type BatchObserver interface {
	BatchStarted()
	BatchFinished()
	BatchDocumentSettled(failed bool)
}

// BatchCoordinatorUseCase fans a document list out to concurrent pipeline
// runs with failure isolation and tracks aggregate progress in an in-memory
// registry. The registry is an explicitly constructed instance with process
// lifetime, injected where needed; job state does not survive a restart.
type BatchCoordinatorUseCase struct {
	processor     ports.DocumentProcessor
	maxConcurrent int64
	observer      BatchObserver

	mu   sync.RWMutex
	jobs map[string]*domain.BatchJob
}

// NewBatchCoordinator bounds concurrency within each batch to maxConcurrent
// pipeline runs. Simultaneously active batches are not bounded.
func NewBatchCoordinator(processor ports.DocumentProcessor, maxConcurrent int, observer BatchObserver) *BatchCoordinatorUseCase {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &BatchCoordinatorUseCase{
		processor:     processor,
		maxConcurrent: int64(maxConcurrent),
		observer:      observer,
		jobs:          make(map[string]*domain.BatchJob),
	}
}

// Submit registers the job and returns its id immediately; the fan-out runs
// asynchronously. A started batch cannot be aborted: the runs continue on a
// context detached from the caller's.
func (uc *BatchCoordinatorUseCase) Submit(ctx context.Context, orgID string, documentIDs []string) (string, error) {
	if orgID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("organization id is required"))
	}
	if len(documentIDs) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("document list is empty"))
	}

	job := &domain.BatchJob{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		DocumentIDs:    append([]string(nil), documentIDs...),
		Status:         domain.BatchPending,
		CreatedAt:      time.Now().UTC(),
	}

	uc.mu.Lock()
	uc.jobs[job.ID] = job
	uc.mu.Unlock()

	go uc.runJob(context.WithoutCancel(ctx), job.ID, orgID, job.DocumentIDs)

	return job.ID, nil
}

// Status returns a snapshot of the job, or ErrJobNotFound.
func (uc *BatchCoordinatorUseCase) Status(jobID string) (*domain.BatchJob, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	job, ok := uc.jobs[jobID]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "batch status", fmt.Errorf("job %s", jobID))
	}

	snapshot := *job
	snapshot.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	if job.CompletedAt != nil {
		completedAt := *job.CompletedAt
		snapshot.CompletedAt = &completedAt
	}
	return &snapshot, nil
}

func (uc *BatchCoordinatorUseCase) runJob(ctx context.Context, jobID, orgID string, documentIDs []string) {
	uc.update(jobID, func(job *domain.BatchJob) {
		job.Status = domain.BatchProcessing
	})
	if uc.observer != nil {
		uc.observer.BatchStarted()
		defer uc.observer.BatchFinished()
	}

	total := len(documentIDs)
	sem := semaphore.NewWeighted(uc.maxConcurrent)
	var wg sync.WaitGroup

	for _, documentID := range documentIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Detached context: only process shutdown gets here.
			uc.settle(jobID, total, err)
			continue
		}

		wg.Add(1)
		go func(documentID string) {
			defer wg.Done()
			defer sem.Release(1)

			_, err := uc.processor.Process(ctx, documentID)
			if err != nil {
				slog.Warn("batch_document_failed",
					"job_id", jobID,
					"document_id", documentID,
					"error", err,
				)
			}
			uc.settle(jobID, total, err)
		}(documentID)
	}

	wg.Wait()

	slog.Info("batch_job_finished", "job_id", jobID, "organization_id", orgID, "total", total)
}

// settle records one finished pipeline run and recomputes progress from the
// settled count, keeping it monotonically non-decreasing. The final settle
// also flips the job terminal in the same critical section, so progress 100
// is never observable on a non-terminal job.
func (uc *BatchCoordinatorUseCase) settle(jobID string, total int, runErr error) {
	if uc.observer != nil {
		uc.observer.BatchDocumentSettled(runErr != nil)
	}
	uc.update(jobID, func(job *domain.BatchJob) {
		if runErr != nil {
			job.Failed++
		} else {
			job.Processed++
		}
		settled := job.Processed + job.Failed
		job.Progress = float64(settled) / float64(total) * 100
		if settled < total {
			return
		}

		now := time.Now().UTC()
		job.CompletedAt = &now
		switch {
		case job.Failed == 0:
			job.Status = domain.BatchCompleted
		case job.Failed == total:
			job.Status = domain.BatchFailed
			job.ErrorSummary = fmt.Sprintf("all %d documents failed", total)
		default:
			// Partial success is not a distinct terminal state.
			job.Status = domain.BatchCompleted
			job.ErrorSummary = fmt.Sprintf("%d of %d documents failed", job.Failed, total)
		}
	})
}

func (uc *BatchCoordinatorUseCase) update(jobID string, fn func(*domain.BatchJob)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if job, ok := uc.jobs[jobID]; ok {
		fn(job)
	}
}
