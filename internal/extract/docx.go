package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var appPagesPattern = regexp.MustCompile(`<Pages>(\d+)</Pages>`)

func extractDOCX(data []byte) (Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, err
	}

	parts := map[string]*zip.File{}
	for _, f := range zr.File {
		parts[strings.ReplaceAll(f.Name, "\\", "/")] = f
	}
	main, ok := parts["word/document.xml"]
	if !ok {
		return Document{}, errors.New("word/document.xml not found")
	}

	raw, err := readZipFile(main)
	if err != nil {
		return Document{}, err
	}
	text, scan, err := scanDocumentXML(raw)
	if err != nil {
		return Document{}, err
	}

	layout := Layout{Fonts: scan.fonts, PageFields: scan.pageField}
	for name, f := range parts {
		if !strings.HasPrefix(name, "word/footer") && !strings.HasPrefix(name, "word/header") {
			continue
		}
		part, err := readZipFile(f)
		if err != nil {
			continue
		}
		if _, s, err := scanDocumentXML(part); err == nil && s.pageField {
			layout.PageFields = true
		}
	}
	if len(layout.Fonts) == 0 {
		if styles, ok := parts["word/styles.xml"]; ok {
			if part, err := readZipFile(styles); err == nil {
				if _, s, err := scanDocumentXML(part); err == nil {
					layout.Fonts = s.fonts
				}
			}
		}
	}

	layout.PageCount = scan.pageBreaks + 1
	if app, ok := parts["docProps/app.xml"]; ok {
		if part, err := readZipFile(app); err == nil {
			if m := appPagesPattern.FindSubmatch(part); m != nil {
				if n, err := strconv.Atoi(string(m[1])); err == nil && n > 0 {
					layout.PageCount = n
				}
			}
		}
	}

	return Document{Text: text, Layout: layout}, nil
}

type docxScan struct {
	fonts      map[string]int
	pageField  bool
	pageBreaks int
}

// scanDocumentXML walks a WordprocessingML part collecting run text, run
// fonts, page breaks and PAGE field usage.
func scanDocumentXML(raw []byte) (string, docxScan, error) {
	scan := docxScan{fonts: map[string]int{}}
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var (
		buf       strings.Builder
		inText    bool
		inInstr   bool
		cellDepth int
		instrText strings.Builder
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", scan, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "instrText":
				inInstr = true
				instrText.Reset()
			case "tc":
				cellDepth++
			case "tab":
				buf.WriteString("\t")
			case "br":
				if attr(t, "type") == "page" {
					scan.pageBreaks++
				}
				buf.WriteString("\n")
			case "lastRenderedPageBreak":
				scan.pageBreaks++
			case "rFonts":
				for _, key := range []string{"eastAsia", "ascii"} {
					if name := attr(t, key); name != "" {
						scan.fonts[name]++
					}
				}
			case "fldSimple":
				if isPageField(attr(t, "instr")) {
					scan.pageField = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "instrText":
				inInstr = false
				if isPageField(instrText.String()) {
					scan.pageField = true
				}
			case "p":
				// Paragraphs inside a table cell stay on the row's line.
				if cellDepth > 0 {
					buf.WriteString(" ")
				} else {
					buf.WriteString("\n")
				}
			case "tc":
				cellDepth--
				buf.WriteString("\t")
			case "tr":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			} else if inInstr {
				instrText.Write(t)
			}
		}
	}
	return buf.String(), scan, nil
}

func isPageField(instr string) bool {
	fields := strings.Fields(strings.ToUpper(instr))
	return len(fields) > 0 && (fields[0] == "PAGE" || fields[0] == "NUMPAGES")
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxInputBytes))
}
