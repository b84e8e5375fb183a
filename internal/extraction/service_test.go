package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/queue"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object/local"
)

type fakeQueue struct {
	mu   sync.Mutex
	sent []queue.Message
}

func (q *fakeQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, msg)
	return nil
}

// blockingExtractor waits for its context to end.
type blockingExtractor struct {
	started chan struct{}
}

func (blockingExtractor) Version() string { return "test:blocking" }

func (e blockingExtractor) Extract(ctx context.Context, in requirements.Input) (requirements.Result, error) {
	close(e.started)
	<-ctx.Done()
	return requirements.Result{}, ctx.Err()
}

type failingExtractor struct{ err error }

func (failingExtractor) Version() string { return "test:failing" }

func (e failingExtractor) Extract(ctx context.Context, in requirements.Input) (requirements.Result, error) {
	return requirements.Result{}, e.err
}

func docxBytes(t *testing.T, lines ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, line := range lines {
		body.WriteString(`<w:p><w:r><w:t>` + line + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	xml := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	svc     *Service
	queue   *fakeQueue
	project projects.Project
	doc     documents.Document
}

func newFixture(t *testing.T, extractor requirements.Extractor) fixture {
	t.Helper()
	ctx := context.Background()
	projSvc := &projects.Service{Repo: projects.NewMemoryRepo()}
	p, err := projSvc.Create(ctx, "c1", "u1", projects.CreateInput{Name: "彩超采购", Purchaser: "市第一人民医院"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	docSvc := &documents.Service{
		Store:           local.New(t.TempDir()),
		Repo:            documents.NewMemoryRepo(),
		Projects:        projSvc,
		StorageProvider: "local",
	}
	doc, err := docSvc.Upload(ctx, "c1", "u1", documents.UploadInput{
		ProjectID: p.ID,
		FileName:  "招标文件.docx",
		Body:      bytes.NewReader(docxBytes(t, "技术参数", "扫描速度：≥120mm/s")),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	q := &fakeQueue{}
	svc := &Service{
		Repo:         NewMemoryRepo(),
		Documents:    docSvc,
		Projects:     projSvc,
		Requirements: &requirements.Service{Repo: requirements.NewMemoryRepo(), Projects: projSvc},
		Extractor:    extractor,
		Queue:        q,
		Timeout:      time.Minute,
	}
	return fixture{svc: svc, queue: q, project: p, doc: doc}
}

func TestSubmitAndProcessCompletes(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()

	task, reused, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if reused || task.Status != StatusPending || task.DocumentID != f.doc.ID {
		t.Fatalf("unexpected task %+v reused=%v", task, reused)
	}
	if len(f.queue.sent) != 1 || f.queue.sent[0].TaskID != task.ID {
		t.Fatalf("expected task enqueued, got %+v", f.queue.sent)
	}

	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	view, err := f.svc.Get(ctx, "c1", task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != StatusCompleted || view.Progress != 100 || view.RequirementCount != 1 {
		t.Fatalf("unexpected task %+v", view.Task)
	}
	if len(view.Requirements) != 1 || view.Requirements[0].ParameterName != "扫描速度" {
		t.Fatalf("unexpected requirements %+v", view.Requirements)
	}
	p, err := f.svc.Projects.Get(ctx, "c1", f.project.ID)
	if err != nil || p.Status != projects.StatusDrafting {
		t.Fatalf("expected project advanced to drafting, got %+v %v", p, err)
	}

	// a second run of the same message is a no-op
	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask replay: %v", err)
	}
}

func TestSubmitReusesInFlightTask(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()

	first, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, f.doc.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, reused, err := f.svc.Submit(ctx, "c1", "u2", f.project.ID, f.doc.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !reused || second.ID != first.ID {
		t.Fatalf("expected reuse of %s, got %s reused=%v", first.ID, second.ID, reused)
	}
	if len(f.queue.sent) != 1 {
		t.Fatalf("expected one enqueue, got %d", len(f.queue.sent))
	}
}

func TestSubmitRejectsSealedProject(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()
	if _, err := f.svc.Projects.Seal(ctx, "c1", f.project.ID); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	_, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if !errors.Is(err, projects.ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
}

func TestSubmitOtherTenantNotFound(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	_, _, err := f.svc.Submit(context.Background(), "c2", "u9", f.project.ID, "")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProcessTaskTimeoutPersistsNothing(t *testing.T) {
	ext := blockingExtractor{started: make(chan struct{})}
	f := newFixture(t, ext)
	f.svc.Timeout = 50 * time.Millisecond
	ctx := context.Background()

	task, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	got, err := f.svc.Repo.GetByID(ctx, "c1", task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusFailed || got.ErrorCode != CodeTimeout {
		t.Fatalf("expected timeout failure, got %+v", got)
	}
	reqs, err := f.svc.Requirements.ByDocument(ctx, "c1", f.project.ID, f.doc.ID)
	if err != nil || len(reqs) != 0 {
		t.Fatalf("expected nothing persisted, got %+v %v", reqs, err)
	}
}

func TestCancelStopsRunningTask(t *testing.T) {
	ext := blockingExtractor{started: make(chan struct{})}
	f := newFixture(t, ext)
	ctx := context.Background()

	task, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- f.svc.ProcessTask(ctx, task.ID) }()

	select {
	case <-ext.started:
	case <-time.After(5 * time.Second):
		t.Fatal("extractor never started")
	}
	cancelled, err := f.svc.Cancel(ctx, "c1", task.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ProcessTask: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("task did not stop after cancel")
	}

	got, err := f.svc.Repo.GetByID(ctx, "c1", task.ID)
	if err != nil || got.Status != StatusCancelled {
		t.Fatalf("expected task to stay cancelled, got %+v %v", got, err)
	}
	if _, err := f.svc.Cancel(ctx, "c1", task.ID); err != nil {
		t.Fatalf("second Cancel should be a no-op: %v", err)
	}
}

func TestCancelFinishedTaskConflicts(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()
	task, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, "c1", task.ID); !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
}

func TestProcessTaskRecordsExtractorCode(t *testing.T) {
	f := newFixture(t, failingExtractor{err: apperr.Extraction(requirements.CodeLLMUnavailable, "model down", nil)})
	ctx := context.Background()
	task, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	got, _ := f.svc.Repo.GetByID(ctx, "c1", task.ID)
	if got.Status != StatusFailed || got.ErrorCode != requirements.CodeLLMUnavailable {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestGetExpiresStaleTask(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()
	task, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.svc.Now = func() time.Time { return task.CreatedAt.Add(time.Hour) }

	view, err := f.svc.Get(ctx, "c1", task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Status != StatusFailed || view.ErrorCode != CodeTimeout {
		t.Fatalf("expected stale task failed, got %+v", view.Task)
	}
	// the worker picking it up afterwards does nothing
	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if n, _ := f.svc.CountActive(ctx, "c1"); n != 0 {
		t.Fatalf("expected no active tasks, got %d", n)
	}
}

func TestExpireStaleSweepsActiveTasks(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()
	if _, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	f.svc.Now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err := f.svc.ExpireStale(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one expired task, got %d %v", n, err)
	}
}

// cancelOnReplace moves the task to cancelled, as another replica would,
// right as the requirement write starts.
type cancelOnReplace struct {
	requirements.Repo
	tasks  Repo
	taskID *string
}

func (r cancelOnReplace) Replace(ctx context.Context, companyID, projectID, documentID string, res requirements.Result, guard requirements.Guard) error {
	if _, err := r.tasks.Transition(ctx, *r.taskID, []string{StatusProcessing}, StatusUpdate{
		Status:    StatusCancelled,
		ErrorCode: CodeCancelled,
	}); err != nil {
		return err
	}
	return r.Repo.Replace(ctx, companyID, projectID, documentID, res, guard)
}

func TestCancelDuringSaveStoresNothing(t *testing.T) {
	f := newFixture(t, requirements.RulesExtractor{})
	ctx := context.Background()
	var taskID string
	reqRepo := requirements.NewMemoryRepo()
	f.svc.Requirements.Repo = cancelOnReplace{Repo: reqRepo, tasks: f.svc.Repo, taskID: &taskID}

	task, _, err := f.svc.Submit(ctx, "c1", "u1", f.project.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	taskID = task.ID
	if err := f.svc.ProcessTask(ctx, task.ID); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	got, err := f.svc.Repo.GetByID(ctx, "c1", task.ID)
	if err != nil || got.Status != StatusCancelled {
		t.Fatalf("expected task to stay cancelled, got %+v %v", got, err)
	}
	stored, err := reqRepo.ListByProject(ctx, "c1", f.project.ID, f.doc.ID)
	if err != nil || len(stored) != 0 {
		t.Fatalf("expected no requirements for a cancelled task, got %+v %v", stored, err)
	}
	p, err := f.svc.Projects.Get(ctx, "c1", f.project.ID)
	if err != nil || p.Status == projects.StatusDrafting {
		t.Fatalf("cancelled task must not advance the project, got %+v %v", p, err)
	}
}
