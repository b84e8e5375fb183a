package specs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

const sheetName = "产品参数"

// column keys of the import workbook
const (
	colCategory    = "category"
	colSubCategory = "subCategory"
	colModel       = "productModel"
	colName        = "parameterName"
	colValue       = "parameterValue"
	colCore        = "isCoreParam"
)

type column struct {
	Key      string
	Label    string
	Required bool
	Aliases  []string
}

var columns = []column{
	{Key: colCategory, Label: "产品类别", Aliases: []string{"类别", "category"}},
	{Key: colSubCategory, Label: "子类别", Aliases: []string{"subcategory", "sub category"}},
	{Key: colModel, Label: "产品型号", Required: true, Aliases: []string{"型号", "product model", "productmodel"}},
	{Key: colName, Label: "参数名称", Required: true, Aliases: []string{"参数", "parameter", "parameter name"}},
	{Key: colValue, Label: "参数值", Aliases: []string{"parameter value", "value"}},
	{Key: colCore, Label: "核心参数", Aliases: []string{"是否核心参数", "core", "is core"}},
}

// RowError reports one rejected workbook row.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParsedRow is a workbook row mapped onto entry fields.
type ParsedRow struct {
	Row   int
	Entry Entry
}

// ParseWorkbook reads catalog rows from the first sheet of an xlsx file.
// Rows missing a required column are reported and skipped.
func ParseWorkbook(r io.Reader) ([]ParsedRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperr.Validation(CodeInvalidWorkbook, "unable to open workbook: "+err.Error())
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, apperr.Validation(CodeInvalidWorkbook, "unable to read sheet: "+err.Error())
	}
	if len(rows) < 2 {
		return nil, nil, apperr.Validation(CodeInvalidWorkbook, "workbook must contain a header row and at least one data row")
	}

	keys := mapHeaders(rows[0])
	for _, col := range columns {
		if col.Required && !containsKey(keys, col.Key) {
			return nil, nil, apperr.Validation(CodeInvalidWorkbook, "missing column "+col.Label)
		}
	}

	var (
		parsed  []ParsedRow
		rowErrs []RowError
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		values := make(map[string]string, len(keys))
		blank := true
		for colIdx, key := range keys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[colIdx])
			if v != "" {
				blank = false
			}
			values[key] = v
		}
		if blank {
			continue
		}
		missing := false
		for _, col := range columns {
			if col.Required && values[col.Key] == "" {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: col.Label, Message: col.Label + "不能为空"})
				missing = true
			}
		}
		if missing {
			continue
		}
		parsed = append(parsed, ParsedRow{
			Row: rowNum,
			Entry: Entry{
				Category:       values[colCategory],
				SubCategory:    values[colSubCategory],
				ProductModel:   values[colModel],
				ParameterName:  values[colName],
				ParameterValue: values[colValue],
				IsCoreParam:    parseBool(values[colCore]),
			},
		})
	}
	return parsed, rowErrs, nil
}

// mapHeaders maps header cells to column keys; unknown headers map to "".
func mapHeaders(headers []string) []string {
	lookup := make(map[string]string)
	for _, col := range columns {
		lookup[normalizeHeader(col.Label)] = col.Key
		for _, alias := range col.Aliases {
			lookup[normalizeHeader(alias)] = col.Key
		}
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = lookup[normalizeHeader(h)]
	}
	return keys
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, "*")
	return strings.ToLower(strings.TrimSpace(h))
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "是", "y", "yes", "true", "1", "√", "核心":
		return true
	}
	return false
}

// Template renders an empty import workbook with sample rows.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	optionalStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		label := col.Label
		style := optionalStyle
		if col.Required {
			label += " *"
			style = requiredStyle
		}
		_ = f.SetCellValue(sheetName, cell, label)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, name, name, 18)
	}
	samples := [][]any{
		{"影像设备", "CT", "CT-Scan-X1", "扫描速度", "120mm/s", "是"},
		{"影像设备", "CT", "CT-Scan-X1", "空间分辨率", "0.25mm", "否"},
	}
	for r, sample := range samples {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetName, cell, &sample); err != nil {
			return nil, err
		}
	}
	dv := excelize.NewDataValidation(true)
	coreCol, _ := excelize.ColumnNumberToName(len(columns))
	dv.Sqref = fmt.Sprintf("%s2:%s1048576", coreCol, coreCol)
	_ = dv.SetDropList([]string{"是", "否"})
	_ = f.AddDataValidation(sheetName, dv)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write spec template: %w", err)
	}
	return buf.Bytes(), nil
}
