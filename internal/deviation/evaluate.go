package deviation

import (
	"strings"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/specs"
)

// Evaluate produces one record per requirement, in requirement order, by
// joining on the exact parameter name. It reads nothing but its arguments;
// ids and timestamps are left for the caller to assign.
func Evaluate(reqs []requirements.Requirement, entries []specs.Entry) []Record {
	byName := make(map[string]specs.Entry, len(entries))
	for _, e := range entries {
		if _, ok := byName[e.ParameterName]; !ok {
			byName[e.ParameterName] = e
		}
	}

	out := make([]Record, 0, len(reqs))
	for _, req := range reqs {
		rec := Record{
			CompanyID:     req.CompanyID,
			ProjectID:     req.ProjectID,
			RequirementID: req.ID,
			Seq:           req.Seq,
			ParameterName: req.ParameterName,
			TenderValue:   req.RequiredValue,
		}
		entry, ok := byName[req.ParameterName]
		if !ok {
			rec.Classification = Negative
			rec.Remark = RemarkMissingSpec
			out = append(out, rec)
			continue
		}
		rec.ProductModel = entry.ProductModel
		rec.OurValue = entry.ParameterValue

		class, remark, err := classify(req, entry.ParameterValue)
		if err != nil {
			rec.Classification = Negative
			rec.ErrorCode = apperr.CodeOf(err)
			rec.Remark = errorMessage(err)
		} else {
			rec.Classification = class
			rec.Remark = remark
		}
		out = append(out, rec)
	}
	return out
}

func errorMessage(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Message
	}
	return err.Error()
}

// tenderTerm resolves the operator and the bare required value.
func tenderTerm(req requirements.Requirement) (requirements.Operator, string) {
	op := req.Operator
	value := strings.TrimSpace(req.ExtractedValue)
	parsedOp, parsedValue, found := requirements.ParseValue(req.RequiredValue)
	if !op.Valid() {
		op = requirements.OpNone
		if found {
			op = parsedOp
		}
	}
	if value == "" {
		value = parsedValue
	}
	return op, value
}

func classify(req requirements.Requirement, ours string) (string, string, error) {
	ours = requirements.Normalize(ours)
	if ours == "" {
		return Negative, RemarkEmptyValue, nil
	}
	op, tender := tenderTerm(req)
	switch {
	case op == requirements.OpNone:
		return None, RemarkManualConfirm, nil
	case op.Magnitude():
		return compareMagnitude(op, tender, ours)
	case op == requirements.OpEq || op == requirements.OpNe:
		return compareEquality(op, tender, ours)
	case op == requirements.OpContains:
		return compareContains(tender, ours)
	case op == requirements.OpNotContains:
		return compareNotContains(tender, ours)
	}
	return None, RemarkManualConfirm, nil
}

func computationError(msg string) error {
	return apperr.Computation(CodeComputation, msg)
}

func compareMagnitude(op requirements.Operator, tender, ours string) (string, string, error) {
	want, err := ParseQuantity(tender)
	if err != nil {
		return "", "", computationError("无法解析招标要求数值：" + tender)
	}
	have, err := ParseQuantity(ours)
	if err != nil {
		return "", "", computationError("无法解析产品参数数值：" + ours)
	}
	cmp, err := Compare(have, want)
	if err != nil {
		return "", "", computationError(err.Error())
	}
	switch op {
	case requirements.OpGe:
		return byOrder(cmp), "", nil
	case requirements.OpLe:
		return byOrder(-cmp), "", nil
	case requirements.OpGt:
		if cmp > 0 {
			return Positive, "", nil
		}
	case requirements.OpLt:
		if cmp < 0 {
			return Positive, "", nil
		}
	}
	return Negative, "", nil
}

// byOrder maps better/equal/worse onto positive/none/negative.
func byOrder(cmp int) string {
	switch {
	case cmp > 0:
		return Positive
	case cmp == 0:
		return None
	}
	return Negative
}

func compareEquality(op requirements.Operator, tender, ours string) (string, string, error) {
	equal := false
	want, werr := ParseQuantity(tender)
	have, herr := ParseQuantity(ours)
	if werr == nil && herr == nil && numericOnly(tender) && numericOnly(ours) {
		cmp, err := Compare(have, want)
		if err != nil {
			return "", "", computationError(err.Error())
		}
		equal = cmp == 0
	} else {
		equal = strings.EqualFold(fold(tender), fold(ours))
	}
	if equal == (op == requirements.OpEq) {
		return None, "", nil
	}
	return Negative, "", nil
}

// numericOnly reports whether s is a single quantity with nothing after it.
func numericOnly(s string) bool {
	loc := quantityRe.FindStringIndex(requirements.Normalize(s))
	return loc != nil && strings.TrimSpace(requirements.Normalize(s)[loc[1]:]) == ""
}

var tokenSplitter = strings.NewReplacer("、", "|", "，", "|", ",", "|", "/", "|", ";", "|", "；", "|", "及", "|", "和", "|", "与", "|")

func tokens(s string) []string {
	var out []string
	for _, t := range strings.Split(tokenSplitter.Replace(s), "|") {
		if t = fold(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Bare yes/no answers. They only count when they are the whole value.
var (
	affirmatives = []string{"具备", "具有", "有", "是", "支持", "提供", "满足", "符合"}
	negatives    = []string{"无", "否", "没有", "不支持", "不具备", "不提供", "不满足", "不符合"}
)

// negations mark an occurrence of a term as absent, as in 无铅 or 不含汞.
var negations = []string{"不具备", "不支持", "不包含", "不含", "没有", "无", "未", "非"}

func isAnswer(s string, words []string) bool {
	s = strings.TrimRight(s, "。.!！")
	for _, w := range words {
		if s == w {
			return true
		}
	}
	return false
}

// present reports whether term occurs in s at least once without a negation
// right before it.
func present(s, term string) bool {
	from := 0
	for {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		at := from + i
		negated := false
		for _, n := range negations {
			if strings.HasSuffix(s[:at], n) {
				negated = true
				break
			}
		}
		if !negated {
			return true
		}
		from = at + len(term)
	}
}

func compareContains(tender, ours string) (string, string, error) {
	have := fold(ours)
	switch {
	case isAnswer(have, negatives):
		return Negative, "产品不具备：" + tender, nil
	case isAnswer(have, affirmatives):
		return None, "", nil
	}
	var missing []string
	for _, t := range tokens(tender) {
		if !present(have, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return None, "", nil
	}
	return Negative, "未响应：" + strings.Join(missing, "、"), nil
}

func compareNotContains(tender, ours string) (string, string, error) {
	have := fold(ours)
	for _, t := range tokens(tender) {
		if present(have, t) {
			return Negative, "包含禁止项：" + t, nil
		}
	}
	return None, "", nil
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(requirements.Normalize(s)), ""))
}
