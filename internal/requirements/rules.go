package requirements

import (
	"bufio"
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RulesVersion identifies requirements produced by the rules extractor.
const RulesVersion = "rules:v1"

const (
	maxHeadingRunes = 24
	maxNameRunes    = 60
)

type section int

const (
	sectionNone section = iota
	sectionTechnical
	sectionQualification
	sectionDisqualification
	sectionScoring
	sectionOther
)

var sectionKeywords = []struct {
	keywords []string
	section  section
}{
	{[]string{"废标", "无效投标", "投标无效", "否决投标"}, sectionDisqualification},
	{[]string{"评分标准", "评分办法", "评标办法", "评分细则", "评审标准", "评分项"}, sectionScoring},
	{[]string{"资格要求", "资质要求", "资格条件", "投标人资格", "供应商资格", "资格证明"}, sectionQualification},
	{[]string{"技术参数", "技术要求", "技术规格", "技术指标", "配置要求", "性能要求"}, sectionTechnical},
	{[]string{"商务要求", "商务条款", "合同条款", "投标须知", "付款方式", "交货"}, sectionOther},
}

var (
	numberingRe = regexp.MustCompile(`^\s*(?:第[一二三四五六七八九十百0-9]+[章节条部分]|[(（]?[一二三四五六七八九十]+[)）、.．]|[(（]\d+[)）]|\d+(?:\.\d+)*(?:[)）、.．]|\s+))\s*`)
	pointsRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*分`)
	markerChars = "★▲■●◆*#※△☆"
)

// Input is the text handed to an Extractor.
type Input struct {
	Text        string
	ProjectName string
}

// Extractor turns tender text into requirements.
type Extractor interface {
	Version() string
	Extract(ctx context.Context, in Input) (Result, error)
}

// RulesExtractor recognises requirements with the fixed operator vocabulary.
type RulesExtractor struct{}

func (RulesExtractor) Version() string { return RulesVersion }

func (RulesExtractor) Extract(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return ExtractText(in.Text), nil
}

// ExtractText walks the document line by line tracking the current section
// and returns the requirements and scoring items in document order.
func ExtractText(text string) Result {
	res := Result{Requirements: []Requirement{}, ScoringItems: []ScoringItem{}}
	seen := make(map[string]struct{})
	current := sectionNone

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := Normalize(strings.ReplaceAll(scanner.Text(), "\f", ""))
		if raw == "" {
			continue
		}
		body := cleanLine(raw)
		if body == "" {
			continue
		}
		if sec, ok := headingSection(body); ok {
			current = sec
			continue
		}

		var req Requirement
		var ok bool
		switch current {
		case sectionTechnical:
			req, ok = technicalLine(body, false)
		case sectionNone:
			req, ok = technicalLine(body, true)
		case sectionQualification:
			req, ok = clauseLine(body, CategoryQualification)
		case sectionDisqualification:
			req, ok = clauseLine(body, CategoryDisqualification)
		case sectionScoring:
			if item, found := scoringLine(body); found {
				item.Seq = len(res.ScoringItems) + 1
				res.ScoringItems = append(res.ScoringItems, item)
			}
			continue
		default:
			continue
		}
		if !ok {
			continue
		}
		key := req.Category + "\x00" + req.ParameterName + "\x00" + req.RequiredValue
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		req.SourceText = raw
		req.Seq = len(res.Requirements) + 1
		res.Requirements = append(res.Requirements, req)
	}
	return res
}

// cleanLine strips numbering, emphasis markers and empty table cells.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	for {
		stripped := strings.TrimLeft(numberingRe.ReplaceAllString(line, ""), markerChars+" ")
		if stripped == line {
			break
		}
		line = stripped
	}
	return strings.TrimSpace(line)
}

func headingSection(body string) (section, bool) {
	title := strings.TrimRight(body, ":：")
	if utf8.RuneCountInString(title) > maxHeadingRunes {
		return sectionNone, false
	}
	if _, value, split := splitNameValue(body); split && value != "" {
		return sectionNone, false
	}
	if pointsRe.MatchString(title) {
		return sectionNone, false
	}
	if _, _, ok := findOperator(title); ok && strings.ContainsAny(title, "≥≤<>=") {
		return sectionNone, false
	}
	for _, entry := range sectionKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(title, kw) {
				return entry.section, true
			}
		}
	}
	return sectionNone, false
}

// splitNameValue splits "name: value" lines and table rows.
func splitNameValue(body string) (name, value string, ok bool) {
	if strings.Contains(body, "\t") {
		var cells []string
		for _, cell := range strings.Split(body, "\t") {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) >= 3 && isNumber(cells[0]) {
			cells = cells[1:]
		}
		if len(cells) >= 2 {
			return cells[0], cells[1], true
		}
		if len(cells) == 1 {
			body = cells[0]
		}
	}
	if idx := strings.IndexAny(body, ":："); idx > 0 {
		_, size := utf8.DecodeRuneInString(body[idx:])
		return strings.TrimSpace(body[:idx]), strings.TrimSpace(body[idx+size:]), true
	}
	return "", "", false
}

func technicalLine(body string, strict bool) (Requirement, bool) {
	name, value, split := splitNameValue(body)
	if !split {
		idx, m, found := findOperator(body)
		if !found || idx == 0 {
			return Requirement{}, false
		}
		if !m.op.Magnitude() && m.op != OpEq && m.op != OpNe {
			return Requirement{}, false
		}
		name, value = body[:idx], body[idx:]
	}
	name = trimName(name)
	if name == "" || tableHeader(name) {
		return Requirement{}, false
	}

	op, extracted, found := ParseValue(value)
	if strict && (!found || !op.Magnitude()) {
		return Requirement{}, false
	}
	req := Requirement{
		Category:       CategoryTechnical,
		ParameterName:  name,
		RequiredValue:  strings.TrimSpace(value),
		ExtractedValue: extracted,
		Operator:       op,
	}
	classify(&req, found)
	if utf8.RuneCountInString(name) > 40 && req.Status == StatusConfirmed {
		req.Status = StatusUnconfirmed
		req.Confidence = 0.4
	}
	return req, true
}

func clauseLine(body, category string) (Requirement, bool) {
	if utf8.RuneCountInString(body) < 4 {
		return Requirement{}, false
	}
	name, value, split := splitNameValue(body)
	if !split || name == "" || value == "" {
		name, value = body, body
	}
	op, extracted, found := ParseValue(value)
	req := Requirement{
		Category:       category,
		ParameterName:  trimName(name),
		RequiredValue:  strings.TrimSpace(value),
		ExtractedValue: extracted,
		Operator:       op,
	}
	classify(&req, found)
	return req, req.ParameterName != ""
}

// classify sets status and confidence: partial matches are never guessed.
func classify(req *Requirement, operatorFound bool) {
	switch {
	case operatorFound && req.ExtractedValue != "":
		req.Status = StatusConfirmed
		req.Confidence = 0.9
	case operatorFound:
		req.Status = StatusError
		req.Confidence = 0.3
	default:
		req.Operator = OpNone
		req.Status = StatusUnconfirmed
		req.Confidence = 0.5
	}
}

func scoringLine(body string) (ScoringItem, bool) {
	loc := pointsRe.FindStringSubmatchIndex(body)
	if loc == nil {
		return ScoringItem{}, false
	}
	points, err := strconv.ParseFloat(body[loc[2]:loc[3]], 64)
	if err != nil || points <= 0 {
		return ScoringItem{}, false
	}
	name := strings.TrimSpace(body[:loc[0]])
	if name == "" {
		name = strings.TrimSpace(body[loc[1]:])
	}
	if cells := strings.Split(name, "\t"); len(cells) > 1 {
		name = strings.TrimSpace(cells[0])
		if isNumber(name) && len(cells) > 1 {
			name = strings.TrimSpace(cells[1])
		}
	}
	name = trimName(strings.TrimRight(name, "（("))
	if name == "" {
		return ScoringItem{}, false
	}
	return ScoringItem{Name: name, Points: points, SourceText: body}, true
}

func trimName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "：:，,。;；、 \t"+markerChars)
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name
}

func tableHeader(name string) bool {
	switch name {
	case "序号", "名称", "参数", "参数名称", "项目", "指标名称":
		return true
	}
	return false
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimRight(s, ".、"), 64)
	return err == nil
}
