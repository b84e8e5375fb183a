package extraction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/queue"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/metrics"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

const (
	defaultTimeout       = 300 * time.Second
	defaultMaxConcurrent = 5
	// staleGrace gives a worker time to record its own timeout before a
	// reader or the sweeper does it for it.
	staleGrace = 30 * time.Second
)

var errCancelled = errors.New("extraction cancelled")

// Service runs tender extraction tasks.
type Service struct {
	Repo         Repo
	Documents    *documents.Service
	Projects     *projects.Service
	Requirements *requirements.Service
	Extractor    requirements.Extractor
	// Queue hands tasks to an external worker; nil runs them in-process.
	Queue         queue.Client
	Timeout       time.Duration
	MaxConcurrent int
	Now           func() time.Time

	mu      sync.Mutex
	running map[string]context.CancelFunc
	semOnce sync.Once
	sem     chan struct{}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultTimeout
}

func (s *Service) slots() chan struct{} {
	s.semOnce.Do(func() {
		n := s.MaxConcurrent
		if n <= 0 {
			n = defaultMaxConcurrent
		}
		s.sem = make(chan struct{}, n)
	})
	return s.sem
}

// Submit starts extraction of a tender document, reusing an in-flight task
// for the same document. documentID defaults to the project's tender document.
func (s *Service) Submit(ctx context.Context, companyID, userID, projectID, documentID string) (Task, bool, error) {
	if s.Extractor == nil {
		return Task{}, false, errors.New("extraction: extractor not configured")
	}
	project, err := s.Projects.EnsureEditable(ctx, companyID, projectID)
	if err != nil {
		return Task{}, false, err
	}
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		documentID = project.RFPDocumentID
	}
	if documentID == "" {
		return Task{}, false, ErrNoTenderDocument
	}
	doc, err := s.Documents.Get(ctx, companyID, documentID)
	if err != nil {
		return Task{}, false, err
	}
	if doc.ProjectID != project.ID {
		return Task{}, false, documents.ErrNotFound
	}
	if doc.Kind != documents.KindRFP {
		return Task{}, false, apperr.Validation("NOT_TENDER_DOCUMENT", "only tender documents can be extracted")
	}

	task := Task{
		ID:               uuid.NewString(),
		CompanyID:        companyID,
		ProjectID:        projectID,
		DocumentID:       documentID,
		Status:           StatusPending,
		ExtractorVersion: s.Extractor.Version(),
		CreatedBy:        userID,
		CreatedAt:        s.now(),
	}
	saved, created, err := s.Repo.CreateOrReuse(ctx, task)
	if err != nil {
		return Task{}, false, err
	}
	if !created {
		telemetry.Info("extraction.reused", map[string]any{
			"request_id":  RequestIDFromContext(ctx),
			"company_id":  companyID,
			"project_id":  projectID,
			"document_id": documentID,
			"task_id":     saved.ID,
			"status":      saved.Status,
		})
		return saved, true, nil
	}
	metrics.IncExtraction(StatusPending)
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"company_id":        companyID,
		"project_id":        projectID,
		"document_id":       documentID,
		"task_id":           saved.ID,
		"status":            StatusPending,
		"status_transition": "->pending",
	})
	s.dispatch(ctx, saved)
	return saved, false, nil
}

func (s *Service) dispatch(ctx context.Context, task Task) {
	if s.Queue != nil {
		err := s.Queue.Send(ctx, queue.Message{
			TaskID:     task.ID,
			CompanyID:  task.CompanyID,
			RequestID:  RequestIDFromContext(ctx),
			EnqueuedAt: s.now().Format(time.RFC3339),
		})
		if err == nil {
			return
		}
		telemetry.Warn("extraction.enqueue_failed", map[string]any{
			"request_id": RequestIDFromContext(ctx),
			"task_id":    task.ID,
			"error":      sanitizeError(err),
		})
	}
	bg := backgroundWithRequestID(ctx)
	go func() {
		_ = s.ProcessTask(bg, task.ID)
	}()
}

// ProcessTask runs a pending task to a terminal state. It returns an error
// only when the outcome could not be recorded, so queue consumers can retry.
func (s *Service) ProcessTask(ctx context.Context, id string) (err error) {
	task, err := s.Repo.Load(ctx, id)
	if err != nil {
		return err
	}
	if task.Status != StatusPending {
		telemetry.Info("extraction.skipped", map[string]any{
			"request_id": RequestIDFromContext(ctx),
			"task_id":    id,
			"status":     task.Status,
		})
		return nil
	}

	// queue wait counts against the deadline
	runCtx, cancel := context.WithDeadline(ctx, task.CreatedAt.Add(s.timeout()))
	defer cancel()
	s.track(id, cancel)
	defer s.untrack(id)

	defer func() {
		if r := recover(); r != nil {
			err = s.fail(ctx, task, fmt.Errorf("panic: %v", r), nil)
		}
	}()

	sem := s.slots()
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-runCtx.Done():
		return s.fail(ctx, task, runCtx.Err(), nil)
	}

	startedAt := s.now()
	ok, err := s.Repo.Transition(ctx, id, []string{StatusPending}, StatusUpdate{
		Status:    StatusProcessing,
		Progress:  10,
		StartedAt: &startedAt,
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	metrics.IncExtraction(StatusProcessing)
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"company_id":        task.CompanyID,
		"project_id":        task.ProjectID,
		"document_id":       task.DocumentID,
		"task_id":           id,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})

	count, completedAt, err := s.run(runCtx, task)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded && !errors.Is(err, errCancelled) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return s.fail(ctx, task, err, &startedAt)
	}
	if err := s.Projects.Advance(ctx, task.CompanyID, task.ProjectID, projects.StatusDrafting); err != nil {
		telemetry.Warn("extraction.advance_failed", map[string]any{
			"task_id":    id,
			"project_id": task.ProjectID,
			"error":      sanitizeError(err),
		})
	}
	metrics.IncExtraction(StatusCompleted)
	metrics.ObserveExtractionDuration(completedAt.Sub(startedAt))
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"company_id":        task.CompanyID,
		"project_id":        task.ProjectID,
		"document_id":       task.DocumentID,
		"task_id":           id,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"requirements":      count,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
	return nil
}

// run extracts the task's document and stores the result. The requirement
// write and the move to completed commit together, and only while the task
// is still processing.
func (s *Service) run(ctx context.Context, task Task) (int, time.Time, error) {
	doc, err := s.Documents.Get(ctx, task.CompanyID, task.DocumentID)
	if err != nil {
		return 0, time.Time{}, err
	}
	content, err := s.Documents.LoadContent(ctx, doc)
	if err != nil {
		return 0, time.Time{}, err
	}
	s.progress(ctx, task.ID, 40)

	input := requirements.Input{Text: content.Text}
	if project, err := s.Projects.Get(ctx, task.CompanyID, task.ProjectID); err == nil {
		input.ProjectName = project.Name
	}
	res, err := s.Extractor.Extract(ctx, input)
	if err != nil {
		return 0, time.Time{}, err
	}
	s.progress(ctx, task.ID, 80)
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}

	completedAt := s.now()
	complete := func(ctx context.Context, tx *sql.Tx) error {
		ok, err := s.Repo.TransitionTx(ctx, tx, task.ID, []string{StatusProcessing}, StatusUpdate{
			Status:           StatusCompleted,
			Progress:         100,
			RequirementCount: len(res.Requirements),
			CompletedAt:      &completedAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errCancelled
		}
		return nil
	}
	saved, err := s.Requirements.SaveIf(ctx, task.CompanyID, task.ProjectID, task.DocumentID, task.ExtractorVersion, res, complete)
	if err != nil {
		return 0, time.Time{}, err
	}
	return len(saved.Requirements), completedAt, nil
}

func (s *Service) progress(ctx context.Context, id string, pct int) {
	if err := s.Repo.SetProgress(ctx, id, pct); err != nil {
		telemetry.Warn("extraction.progress_failed", map[string]any{
			"task_id":  id,
			"progress": pct,
			"error":    sanitizeError(err),
		})
	}
}

// fail records a failure unless the task already reached a terminal state.
func (s *Service) fail(ctx context.Context, task Task, cause error, startedAt *time.Time) error {
	if errors.Is(cause, errCancelled) {
		return nil
	}
	code := classifyFailure(cause)
	completedAt := s.now()
	ok, err := s.Repo.Transition(context.Background(), task.ID, []string{StatusPending, StatusProcessing}, StatusUpdate{
		Status:       StatusFailed,
		ErrorCode:    code,
		ErrorMessage: sanitizeError(cause),
		CompletedAt:  &completedAt,
	})
	if err != nil {
		telemetry.Error("extraction.fail_update", map[string]any{
			"task_id": task.ID,
			"error":   sanitizeError(err),
			"cause":   sanitizeError(cause),
		})
		return err
	}
	if !ok {
		return nil
	}
	metrics.IncExtraction(StatusFailed)
	if startedAt != nil {
		metrics.ObserveExtractionDuration(completedAt.Sub(*startedAt))
	}
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"company_id":        task.CompanyID,
		"project_id":        task.ProjectID,
		"document_id":       task.DocumentID,
		"task_id":           task.ID,
		"status":            StatusFailed,
		"status_transition": "->failed",
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
	return nil
}

// Cancel stops a pending or running task. Cancelling a cancelled task is a no-op.
func (s *Service) Cancel(ctx context.Context, companyID, id string) (Task, error) {
	task, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Task{}, err
	}
	if task.Status == StatusCancelled {
		return task, nil
	}
	if !task.Active() {
		return Task{}, ErrNotCancellable
	}
	completedAt := s.now()
	ok, err := s.Repo.Transition(ctx, id, []string{StatusPending, StatusProcessing}, StatusUpdate{
		Status:       StatusCancelled,
		Progress:     task.Progress,
		ErrorCode:    CodeCancelled,
		ErrorMessage: "cancelled by user",
		CompletedAt:  &completedAt,
	})
	if err != nil {
		return Task{}, err
	}
	if !ok {
		// finished while we were looking
		latest, err := s.Repo.GetByID(ctx, companyID, id)
		if err != nil {
			return Task{}, err
		}
		if latest.Status == StatusCancelled {
			return latest, nil
		}
		return Task{}, ErrNotCancellable
	}

	s.mu.Lock()
	stop := s.running[id]
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	metrics.IncExtraction(StatusCancelled)
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"company_id":        companyID,
		"task_id":           id,
		"status":            StatusCancelled,
		"status_transition": task.Status + "->cancelled",
	})
	return s.Repo.GetByID(ctx, companyID, id)
}

// TaskView is a polled task plus its requirements once completed.
type TaskView struct {
	Task
	Requirements []requirements.Requirement `json:"requirements,omitempty"`
}

// Get returns a task for polling. Tasks past their deadline are failed here
// when no worker recorded it.
func (s *Service) Get(ctx context.Context, companyID, id string) (TaskView, error) {
	task, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return TaskView{}, err
	}
	if task.Active() && s.now().After(task.CreatedAt.Add(s.timeout()+staleGrace)) {
		if err := s.fail(ctx, task, context.DeadlineExceeded, task.StartedAt); err != nil {
			return TaskView{}, err
		}
		if task, err = s.Repo.GetByID(ctx, companyID, id); err != nil {
			return TaskView{}, err
		}
	}
	view := TaskView{Task: task}
	if task.Status == StatusCompleted && s.Requirements != nil {
		reqs, err := s.Requirements.ByDocument(ctx, companyID, task.ProjectID, task.DocumentID)
		if err != nil {
			return TaskView{}, err
		}
		view.Requirements = reqs
	}
	return view, nil
}

// ListByProject returns the project's recent tasks.
func (s *Service) ListByProject(ctx context.Context, companyID, projectID string, limit int) ([]Task, error) {
	if _, err := s.Projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.Repo.ListByProject(ctx, companyID, projectID, limit)
}

// CountActive returns the number of pending or processing tasks.
func (s *Service) CountActive(ctx context.Context, companyID string) (int, error) {
	return s.Repo.CountActive(ctx, companyID)
}

// ExpireStale fails every active task whose deadline passed.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	completedAt := s.now()
	n, err := s.Repo.ExpireStale(ctx, completedAt.Add(-(s.timeout() + staleGrace)), StatusUpdate{
		Status:       StatusFailed,
		ErrorCode:    CodeTimeout,
		ErrorMessage: "extraction did not finish in time",
		CompletedAt:  &completedAt,
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		telemetry.Warn("extraction.expired", map[string]any{"count": n})
	}
	return n, nil
}

func (s *Service) track(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		s.running = make(map[string]context.CancelFunc)
	}
	s.running[id] = cancel
}

func (s *Service) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

func classifyFailure(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if _, ok := apperr.As(err); ok {
		return apperr.CodeOf(err)
	}
	return CodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}
