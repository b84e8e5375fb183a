package checkup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/settings"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object/local"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/specs"
)

var bidLines = []string{
	"投标函",
	"致北京协和医院：",
	"投标总价：人民币壹佰贰拾万元整（¥1,200,000.00）",
	"投标保证金：人民币伍万元整（¥50,000.00）",
	"投标有效期：自投标截止之日起120日历天",
	"扫描速度：120mm/s",
	"空间分辨率：0.25mm",
	"医疗器械注册证：见附件",
}

type fixture struct {
	svc     *Service
	docs    *documents.Service
	project projects.Project
	clock   *time.Time
}

type brokenStore struct{ object.ObjectStore }

func (brokenStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("disk unavailable")
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	clock := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	projSvc := &projects.Service{Repo: projects.NewMemoryRepo()}
	p, err := projSvc.Create(ctx, "c1", "u1", projects.CreateInput{Name: "CT采购", Purchaser: "北京协和医院"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := projSvc.SetRFPDocument(ctx, "c1", p.ID, "doc-rfp"); err != nil {
		t.Fatalf("set rfp: %v", err)
	}
	p, _ = projSvc.Get(ctx, "c1", p.ID)

	reqSvc := &requirements.Service{Repo: requirements.NewMemoryRepo(), Projects: projSvc}
	_, err = reqSvc.Save(ctx, "c1", p.ID, "doc-rfp", requirements.RulesVersion, requirements.Result{Requirements: []requirements.Requirement{
		{Category: requirements.CategoryTechnical, ParameterName: "扫描速度", RequiredValue: "≥100mm/s", ExtractedValue: "100mm/s", Operator: requirements.OpGe},
		{Category: requirements.CategoryTechnical, ParameterName: "空间分辨率", RequiredValue: "≤0.3mm", ExtractedValue: "0.3mm", Operator: requirements.OpLe},
		{Category: requirements.CategoryQualification, ParameterName: "医疗器械注册证", RequiredValue: "具备", Operator: requirements.OpContains},
		{Category: requirements.CategoryDisqualification, ParameterName: "未按要求提交投标保证金的", Operator: requirements.OpNone},
	}})
	if err != nil {
		t.Fatalf("save requirements: %v", err)
	}

	specSvc := &specs.Service{Repo: specs.NewMemoryRepo()}
	for _, in := range []specs.Input{
		{ProductModel: "CT-X1", ParameterName: "扫描速度", ParameterValue: "120mm/s"},
		{ProductModel: "CT-X1", ParameterName: "空间分辨率", ParameterValue: "0.25mm"},
	} {
		if _, err := specSvc.Create(ctx, "c1", in); err != nil {
			t.Fatalf("create spec: %v", err)
		}
	}
	devSvc := &deviation.Service{Repo: deviation.NewMemoryRepo(), Projects: projSvc, Requirements: reqSvc, Specs: specSvc}
	if _, err := devSvc.Evaluate(ctx, "c1", p.ID, "CT-X1"); err != nil {
		t.Fatalf("evaluate deviations: %v", err)
	}

	qualSvc := &qualifications.Service{
		Repo: qualifications.NewMemoryRepo(),
		Now:  func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
	if _, err := qualSvc.Create(ctx, "c1", qualifications.Input{
		Name:       "医疗器械注册证",
		IssueDate:  qualifications.NewDate(2024, 1, 1),
		ExpiryDate: qualifications.NewDate(2029, 1, 1),
	}); err != nil {
		t.Fatalf("create qualification: %v", err)
	}

	docSvc := &documents.Service{
		Store:           local.New(t.TempDir()),
		Repo:            documents.NewMemoryRepo(),
		Projects:        projSvc,
		StorageProvider: "local",
	}
	svc := &Service{
		Repo:           NewMemoryRepo(),
		Projects:       projSvc,
		Documents:      docSvc,
		Requirements:   reqSvc,
		Deviations:     devSvc,
		Qualifications: qualSvc,
		Settings:       settings.NewService(),
		Now:            now,
	}
	return fixture{svc: svc, docs: docSvc, project: p, clock: &clock}
}

func docxBytes(t *testing.T, lines []string) []byte {
	t.Helper()
	var body strings.Builder
	for _, line := range lines {
		body.WriteString(`<w:p><w:r><w:rPr><w:rFonts w:eastAsia="宋体" w:ascii="宋体"/></w:rPr><w:t>`)
		body.WriteString(line)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`<w:p><w:fldSimple w:instr=" PAGE "/></w:p>`)

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

func (f fixture) uploadBid(t *testing.T, lines []string) documents.Document {
	t.Helper()
	doc, err := f.docs.Upload(context.Background(), "c1", "u1", documents.UploadInput{
		ProjectID: f.project.ID,
		Kind:      documents.KindBid,
		FileName:  "投标文件.docx",
		Body:      bytes.NewReader(docxBytes(t, lines)),
	})
	if err != nil {
		t.Fatalf("upload bid: %v", err)
	}
	return doc
}

func resultFor(t *testing.T, rec Record, item string) Result {
	t.Helper()
	for _, r := range rec.Results {
		if r.CheckItem == item {
			return r
		}
	}
	t.Fatalf("no result for %s", item)
	return Result{}
}

func TestRunCompletesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.uploadBid(t, bidLines)

	rec, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID, ProductModel: "CT-X1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.State != StateCompleted || rec.CompletedAt == nil || len(rec.Results) != 15 {
		t.Fatalf("unexpected record %+v", rec)
	}
	totals, status, progress := Aggregate(rec.Results)
	if rec.Totals != totals || rec.Status != status || rec.Progress != progress {
		t.Fatalf("stored aggregate %+v/%s/%d does not match results", rec.Totals, rec.Status, rec.Progress)
	}
	for item, want := range map[string]string{
		"金额大小写一致":  StatusPassed,
		"参数响应完整性":  StatusPassed,
		"偏离表完整性":   StatusPassed,
		"资质文件完整性":  StatusPassed,
		"其他医院名称检查": StatusPassed,
		"废标条款检查":   StatusPassed,
		"字体格式一致性":  StatusPassed,
		"页码连续性":    StatusPassed,
		"目录与内容一致性": StatusWarning,
	} {
		if got := resultFor(t, rec, item); got.Status != want {
			t.Errorf("%s: got %s (%s), want %s", item, got.Status, got.Description, want)
		}
	}

	stored, err := f.svc.Get(ctx, "c1", rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.State != StateCompleted || len(stored.Results) != 15 {
		t.Fatalf("unexpected stored record %+v", stored)
	}
}

func TestRecheckLeavesPreviousRecordUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.uploadBid(t, bidLines)

	first, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID, ProductModel: "CT-X1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := f.svc.Recheck(ctx, "c1", "u2", first.ID)
	if err != nil {
		t.Fatalf("Recheck: %v", err)
	}
	if second.ID == first.ID || second.PreviousID != first.ID || second.ProductModel != "CT-X1" || second.CreatedBy != "u2" {
		t.Fatalf("unexpected recheck record %+v", second)
	}

	stored, err := f.svc.Get(ctx, "c1", first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.CompletedAt.Equal(*first.CompletedAt) || stored.PreviousID != "" || len(stored.Results) != len(first.Results) {
		t.Fatalf("previous record changed: %+v", stored)
	}

	history, total, err := f.svc.ListByProject(ctx, "c1", f.project.ID, ListFilter{})
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if total != 2 || len(history) != 2 || history[0].ID != second.ID {
		t.Fatalf("expected newest first, got total=%d %+v", total, history)
	}
}

func TestCompletedRecordCannotBeUpdated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.uploadBid(t, bidLines)
	rec, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec.Status = OverallSuccess
	if err := f.svc.Repo.Update(ctx, rec); !errors.Is(err, ErrCompleted) {
		t.Fatalf("expected ErrCompleted, got %v", err)
	}
}

func TestRunWithoutModelFailsDeviationCheck(t *testing.T) {
	f := newFixture(t)
	doc := f.uploadBid(t, bidLines)
	rec, err := f.svc.Run(context.Background(), "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := resultFor(t, rec, "偏离表完整性"); got.Status != StatusError {
		t.Fatalf("expected deviation check to fail without a model, got %s", got.Status)
	}
	if rec.Status != OverallError {
		t.Fatalf("expected overall error, got %s", rec.Status)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID}); !errors.Is(err, ErrDocumentRequired) {
		t.Fatalf("expected ErrDocumentRequired, got %v", err)
	}

	rfp, err := f.docs.Upload(ctx, "c1", "u1", documents.UploadInput{
		ProjectID: f.project.ID,
		Kind:      documents.KindRFP,
		FileName:  "招标文件.docx",
		Body:      bytes.NewReader(docxBytes(t, []string{"投标保证金：5万元"})),
	})
	if err != nil {
		t.Fatalf("upload rfp: %v", err)
	}
	if _, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: rfp.ID}); !errors.Is(err, ErrNotBidDocument) {
		t.Fatalf("expected ErrNotBidDocument, got %v", err)
	}

	doc := f.uploadBid(t, bidLines)
	if _, err := f.svc.Run(ctx, "c2", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}

func TestRunUnreadableDocumentCompletesWithErrors(t *testing.T) {
	f := newFixture(t)
	doc := f.uploadBid(t, bidLines)
	f.docs.Store = brokenStore{f.docs.Store}

	rec, err := f.svc.Run(context.Background(), "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID, ProductModel: "CT-X1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.State != StateCompleted || rec.Status != OverallError || rec.Totals.Errors != 15 || rec.Progress != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !strings.HasPrefix(rec.Results[0].Description, "无法完成检查") {
		t.Fatalf("unexpected description %q", rec.Results[0].Description)
	}
}

func TestCountRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.uploadBid(t, bidLines)
	since := *f.clock
	for i := 0; i < 2; i++ {
		if _, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID}); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	counts, err := f.svc.CountRecent(ctx, "c1", since)
	if err != nil {
		t.Fatalf("CountRecent: %v", err)
	}
	if counts[OverallError] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

// cancellingRule cancels the caller's context while the checkup is running.
type cancellingRule struct{ cancel context.CancelFunc }

func (cancellingRule) Name() string     { return "cancels caller" }
func (cancellingRule) Category() string { return CategoryFormat }
func (r cancellingRule) Evaluate(context.Context, *Package) Result {
	r.cancel()
	return Result{CheckItem: r.Name(), Category: r.Category(), Status: StatusPassed}
}

func TestRunSurvivesCallerCancel(t *testing.T) {
	f := newFixture(t)
	doc := f.uploadBid(t, bidLines)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.Rules = []Rule{cancellingRule{cancel}, DefaultRules()[0]}

	rec, err := f.svc.Run(ctx, "c1", "u1", Input{ProjectID: f.project.ID, DocumentID: doc.ID, ProductModel: "CT-X1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("expected the caller context to be cancelled by the rule")
	}
	stored, err := f.svc.Get(context.Background(), "c1", rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.State != StateCompleted || stored.Totals.Total != 2 {
		t.Fatalf("unexpected record %+v", stored)
	}
	for _, r := range stored.Results {
		if strings.HasPrefix(r.Description, "无法完成检查") {
			t.Fatalf("result %s recorded as aborted: %s", r.CheckItem, r.Description)
		}
	}
	if got := resultFor(t, stored, "金额大小写一致"); got.Status != StatusPassed {
		t.Fatalf("amount check after cancel: %+v", got)
	}
}
