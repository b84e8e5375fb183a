package deviation

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "技术偏离表"

var exportHeader = []any{"序号", "产品型号", "参数名称", "招标要求", "投标响应", "偏离情况", "备注"}

// fills colour the classification cell.
var fills = map[string]string{
	Positive: "#DCFCE7",
	None:     "#F3F4F6",
	Negative: "#FEE2E2",
}

// WriteXLSX renders records as a deviation table workbook.
func WriteXLSX(records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(exportHeader))
	_ = f.SetCellStyle(exportSheet, "A1", last+"1", headerStyle)
	for i, width := range []float64{8, 18, 22, 28, 28, 12, 36} {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(exportSheet, name, name, width)
	}

	styles := make(map[string]int, len(fills))
	for class, color := range fills {
		styles[class], _ = f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
	}
	for i, rec := range records {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{i + 1, rec.ProductModel, rec.ParameterName, rec.TenderValue, rec.OurValue, Label(rec.Classification), rec.Remark}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
		classCell, _ := excelize.CoordinatesToCellName(6, row)
		_ = f.SetCellStyle(exportSheet, classCell, classCell, styles[rec.Classification])
	}
	_ = f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write deviation table: %w", err)
	}
	return buf.Bytes(), nil
}

// Export renders the stored table of a project as XLSX.
func (s *Service) Export(ctx context.Context, companyID, projectID, productModel string) ([]byte, error) {
	res, err := s.List(ctx, companyID, projectID, productModel)
	if err != nil {
		return nil, err
	}
	return WriteXLSX(res.Records)
}
