package checkup

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
)

// reportFontFamily names the CJK font registered from ReportOptions.FontPath.
const reportFontFamily = "report-cjk"

// ReportOptions tunes PDF rendering. FontPath should point at a TTF with CJK
// glyphs; without it the built-in fonts are used.
type ReportOptions struct {
	FontPath string
	Location *time.Location
}

var statusLabels = map[string]string{
	StatusPassed:   "通过",
	StatusWarning:  "警告",
	StatusError:    "错误",
	OverallSuccess: "通过",
}

var statusColors = map[string]*props.Color{
	StatusPassed:  {Red: 46, Green: 125, Blue: 50},
	StatusWarning: {Red: 237, Green: 108, Blue: 2},
	StatusError:   {Red: 198, Green: 40, Blue: 40},
}

// Report renders the record of id as a PDF.
func (s *Service) Report(ctx context.Context, companyID, id string, opts ReportOptions) ([]byte, error) {
	rec, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if rec.State != StateCompleted {
		return nil, ErrNotCompleted
	}
	return RenderPDF(rec, opts)
}

// RenderPDF lays out a completed record: header, totals and one row per check.
func RenderPDF(rec Record, opts ReportOptions) ([]byte, error) {
	builder := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "{current} / {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		})
	if opts.FontPath != "" {
		fonts, err := repository.New().
			AddUTF8Font(reportFontFamily, fontstyle.Normal, opts.FontPath).
			AddUTF8Font(reportFontFamily, fontstyle.Bold, opts.FontPath).
			Load()
		if err != nil {
			return nil, fmt.Errorf("load report font: %w", err)
		}
		builder = builder.WithCustomFonts(fonts).WithDefaultFont(&props.Font{Family: reportFontFamily})
	}
	m := maroto.New(builder.Build())

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	addReportHeader(m, rec, loc)
	addResultRows(m, rec.Results)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate checkup report: %w", err)
	}
	return doc.GetBytes(), nil
}

func addReportHeader(m core.Maroto, rec Record, loc *time.Location) {
	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New("投标文件体检报告", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center})),
		),
		row.New(7).Add(
			col.New(8).Add(text.New("文件："+rec.FileName, props.Text{Size: 9, Color: grey})),
			col.New(4).Add(text.New("检查时间："+rec.CreatedAt.In(loc).Format("2006-01-02 15:04"), props.Text{Size: 9, Align: align.Right, Color: grey})),
		),
	)
	if rec.ProductModel != "" {
		m.AddRows(row.New(7).Add(
			col.New(12).Add(text.New("产品型号："+rec.ProductModel, props.Text{Size: 9, Color: grey})),
		))
	}

	summary := fmt.Sprintf("结论：%s    总计 %d 项，通过 %d 项，警告 %d 项，错误 %d 项，通过率 %d%%",
		statusLabels[rec.Status], rec.Totals.Total, rec.Totals.Passed, rec.Totals.Warnings, rec.Totals.Errors, rec.Progress)
	m.AddRows(
		row.New(9).Add(
			col.New(12).Add(text.New(summary, props.Text{Size: 10, Style: fontstyle.Bold, Color: statusColors[resultStatus(rec.Status)]})),
		),
		row.New(4),
	)

	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	header := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}
	m.AddRows(row.New(8).Add(
		col.New(2).Add(text.New("类别", header)).WithStyle(headerCell),
		col.New(2).Add(text.New("检查项", header)).WithStyle(headerCell),
		col.New(1).Add(text.New("结果", header)).WithStyle(headerCell),
		col.New(4).Add(text.New("说明", header)).WithStyle(headerCell),
		col.New(3).Add(text.New("建议", header)).WithStyle(headerCell),
	))
}

func addResultRows(m core.Maroto, results []Result) {
	body := props.Text{Size: 8, Align: align.Left, Top: 1}
	for i, r := range results {
		status := body
		status.Align = align.Center
		status.Style = fontstyle.Bold
		status.Color = statusColors[r.Status]

		cols := []core.Col{
			col.New(2).Add(text.New(r.Category, body)),
			col.New(2).Add(text.New(r.CheckItem, body)),
			col.New(1).Add(text.New(statusLabels[r.Status], status)),
			col.New(4).Add(text.New(r.Description, body)),
			col.New(3).Add(text.New(r.Suggestion, body)),
		}
		if i%2 == 1 {
			stripe := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
			for j := range cols {
				cols[j] = cols[j].WithStyle(stripe)
			}
		}
		m.AddRows(row.New(12).Add(cols...))
	}
}

// resultStatus maps an overall status onto the per-check palette.
func resultStatus(overall string) string {
	if overall == OverallSuccess {
		return StatusPassed
	}
	return overall
}
