package specs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

func newTestService() *Service {
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &Service{Repo: NewMemoryRepo(), Now: func() time.Time { return fixed }}
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestCreateRejectsDuplicateParameter(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	in := Input{ProductModel: "CT-Scan-X1", ParameterName: "扫描速度", ParameterValue: "120mm/s", IsCoreParam: true}
	if _, err := svc.Create(ctx, "c1", in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "c1", in); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// another tenant may declare the same parameter
	if _, err := svc.Create(ctx, "c2", in); err != nil {
		t.Fatalf("Create other tenant: %v", err)
	}
}

func TestCreateRequiresModelAndName(t *testing.T) {
	svc := newTestService()
	_, err := svc.Create(context.Background(), "c1", Input{ParameterName: "扫描速度"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestModelsAndByModel(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for _, in := range []Input{
		{Category: "影像设备", SubCategory: "CT", ProductModel: "CT-Scan-X1", ParameterName: "扫描速度", ParameterValue: "120mm/s"},
		{Category: "影像设备", SubCategory: "CT", ProductModel: "CT-Scan-X1", ParameterName: "空间分辨率", ParameterValue: "0.25mm"},
		{Category: "影像设备", SubCategory: "MRI", ProductModel: "MRI-Scan-Y2", ParameterName: "磁场强度", ParameterValue: "3.0T"},
	} {
		if _, err := svc.Create(ctx, "c1", in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	models, err := svc.Models(ctx, "c1")
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(models) != 2 || models[0].ProductModel != "CT-Scan-X1" || models[0].ParameterCount != 2 {
		t.Fatalf("unexpected models %+v", models)
	}
	entries, err := svc.ByModel(ctx, "c1", "MRI-Scan-Y2")
	if err != nil || len(entries) != 1 || entries[0].ParameterValue != "3.0T" {
		t.Fatalf("unexpected entries %+v %v", entries, err)
	}
}

func TestImportUpsertsAndReportsRowErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "c1", Input{ProductModel: "CT-Scan-X1", ParameterName: "扫描速度", ParameterValue: "100mm/s"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := workbook(t, [][]any{
		{"产品类别", "子类别", "产品型号 *", "参数名称 *", "参数值", "核心参数"},
		{"影像设备", "CT", "CT-Scan-X1", "扫描速度", "120mm/s", "是"},
		{"影像设备", "CT", "CT-Scan-X1", "探测器排数", "128排", "否"},
		{"影像设备", "CT", "", "空间分辨率", "0.25mm", "否"},
		{},
	})
	res, err := svc.Import(ctx, "c1", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Total != 3 || res.Created != 1 || res.Updated != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != 4 || res.Errors[0].Field != "产品型号" {
		t.Fatalf("unexpected row errors %+v", res.Errors)
	}

	entries, _ := svc.ByModel(ctx, "c1", "CT-Scan-X1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	for _, e := range entries {
		if e.ParameterName == "扫描速度" && (e.ParameterValue != "120mm/s" || !e.IsCoreParam) {
			t.Fatalf("expected imported value to win, got %+v", e)
		}
	}
}

func TestImportRejectsMissingColumns(t *testing.T) {
	svc := newTestService()
	data := workbook(t, [][]any{
		{"产品类别", "参数值"},
		{"影像设备", "120mm/s"},
	})
	_, err := svc.Import(context.Background(), "c1", bytes.NewReader(data))
	if !errors.Is(err, apperr.Validation(CodeInvalidWorkbook, "")) {
		t.Fatalf("expected invalid workbook, got %v", err)
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	data, err := Template()
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	rows, rowErrs, err := ParseWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(rowErrs) != 0 || len(rows) != 2 || rows[0].Entry.ParameterName != "扫描速度" || !rows[0].Entry.IsCoreParam {
		t.Fatalf("unexpected template rows %+v %+v", rows, rowErrs)
	}
}
