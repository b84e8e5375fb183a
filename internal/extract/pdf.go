package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Printed page numbers: "3", "- 3 -", "第3页", "第 3 页 共 20 页", "3/20".
var pageNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[-—\s]*(\d{1,4})[-—\s]*$`),
	regexp.MustCompile(`^第\s*(\d{1,4})\s*页`),
	regexp.MustCompile(`^(\d{1,4})\s*/\s*\d{1,4}$`),
	regexp.MustCompile(`^(?i:page)\s*(\d{1,4})`),
}

func extractPDF(data []byte) (doc Document, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed content streams.
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parse panic: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, err
	}

	layout := Layout{Fonts: map[string]int{}}
	var buf strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		layout.PageCount++

		for _, name := range page.Fonts() {
			base := normalizeFontName(page.Font(name).BaseFont())
			if base != "" {
				layout.Fonts[base]++
			}
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return Document{}, fmt.Errorf("page %d: %w", i, err)
		}
		if n, ok := trailingPageNumber(text); ok {
			layout.PageNumbers = append(layout.PageNumbers, n)
		}
		buf.WriteString(text)
		buf.WriteString("\n\f\n")
	}
	return Document{Text: buf.String(), Layout: layout}, nil
}

// trailingPageNumber looks at the last few non-empty lines of a page for a
// printed page number.
func trailingPageNumber(text string) (int, bool) {
	lines := strings.Split(text, "\n")
	checked := 0
	for i := len(lines) - 1; i >= 0 && checked < 3; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		checked++
		for _, re := range pageNumberPatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				n, err := strconv.Atoi(m[1])
				if err == nil {
					return n, true
				}
			}
		}
	}
	return 0, false
}

// normalizeFontName drops the subset tag ("ABCDEF+SimSun") and style suffixes.
func normalizeFontName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if idx := strings.IndexByte(name, '+'); idx == 6 {
		name = name[idx+1:]
	}
	for _, sep := range []string{",", "-"} {
		if idx := strings.Index(name, sep); idx > 0 {
			name = name[:idx]
		}
	}
	return name
}
