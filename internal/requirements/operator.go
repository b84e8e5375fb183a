package requirements

import (
	"strings"

	"golang.org/x/text/width"
)

// Operator is the comparison a requirement asks for.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNe          Operator = "ne"
	OpGt          Operator = "gt"
	OpGe          Operator = "ge"
	OpLt          Operator = "lt"
	OpLe          Operator = "le"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpNone        Operator = "none"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpContains, OpNotContains, OpNone:
		return true
	}
	return false
}

// Magnitude reports whether op compares numeric values.
func (op Operator) Magnitude() bool {
	switch op {
	case OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

type marker struct {
	token string
	op    Operator
}

// prefixMarkers are matched longest first so 不低于 wins over 低于.
var prefixMarkers = []marker{
	{"必须具备", OpContains},
	{"不得低于", OpGe},
	{"不得少于", OpGe},
	{"不得高于", OpLe},
	{"不得超过", OpLe},
	{"必须具有", OpContains},
	{"不低于", OpGe},
	{"不少于", OpGe},
	{"不小于", OpGe},
	{"不高于", OpLe},
	{"不大于", OpLe},
	{"不超过", OpLe},
	{"不多于", OpLe},
	{"不等于", OpNe},
	{"不包含", OpNotContains},
	{"须具备", OpContains},
	{"须具有", OpContains},
	{"应具备", OpContains},
	{"大于等于", OpGe},
	{"小于等于", OpLe},
	{"≥", OpGe},
	{">=", OpGe},
	{"≤", OpLe},
	{"<=", OpLe},
	{"≠", OpNe},
	{"!=", OpNe},
	{"不得", OpNotContains},
	{"禁止", OpNotContains},
	{"大于", OpGt},
	{"高于", OpGt},
	{"超过", OpGt},
	{"小于", OpLt},
	{"低于", OpLt},
	{"等于", OpEq},
	{"具备", OpContains},
	{"具有", OpContains},
	{"提供", OpContains},
	{"包含", OpContains},
	{"支持", OpContains},
	{">", OpGt},
	{"<", OpLt},
	{"=", OpEq},
}

var suffixMarkers = []marker{
	{"及以上", OpGe},
	{"以上", OpGe},
	{"及以下", OpLe},
	{"以下", OpLe},
}

// Normalize folds full-width ASCII and spaces to their narrow forms and trims space.
func Normalize(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// ParseValue finds the operator in a required-value string and returns it
// with the value that follows it. found is false when no vocabulary matched.
func ParseValue(raw string) (op Operator, value string, found bool) {
	text := Normalize(raw)
	if text == "" {
		return OpNone, "", false
	}

	if idx, m, ok := findOperator(text); ok {
		value = cleanValue(text[idx+len(m.token):])
		for _, s := range suffixMarkers {
			value = strings.TrimSpace(strings.TrimSuffix(value, s.token))
		}
		return m.op, value, true
	}

	for _, s := range suffixMarkers {
		if strings.HasSuffix(text, s.token) {
			return s.op, cleanValue(strings.TrimSuffix(text, s.token)), true
		}
	}
	if text == "为" || strings.HasPrefix(text, "为") {
		return OpEq, cleanValue(strings.TrimPrefix(text, "为")), true
	}
	return OpNone, cleanValue(text), false
}

// findOperator returns the byte offset of the earliest vocabulary marker in
// text, preferring the longest marker at that offset.
func findOperator(text string) (int, marker, bool) {
	bestIdx := -1
	var best marker
	for _, m := range prefixMarkers {
		idx := strings.Index(text, m.token)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && len(m.token) > len(best.token)) {
			bestIdx = idx
			best = m
		}
	}
	return bestIdx, best, bestIdx >= 0
}

// ParseOperator maps an operator name or symbol onto an Operator.
func ParseOperator(raw string) (Operator, bool) {
	text := strings.ToLower(Normalize(raw))
	if op := Operator(text); op.Valid() {
		return op, true
	}
	switch text {
	case "":
		return OpNone, false
	case "equals", "==":
		return OpEq, true
	case "not-equals", "not_equals":
		return OpNe, true
	case "greater-than", "greater_than":
		return OpGt, true
	case "greater-or-equal", "greater_or_equal":
		return OpGe, true
	case "less-than", "less_than":
		return OpLt, true
	case "less-or-equal", "less_or_equal":
		return OpLe, true
	case "not-contains":
		return OpNotContains, true
	}
	for _, m := range prefixMarkers {
		if text == m.token {
			return m.op, true
		}
	}
	for _, s := range suffixMarkers {
		if text == s.token {
			return s.op, true
		}
	}
	return OpNone, false
}

func cleanValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), "：:，,。;；、 ")
}
