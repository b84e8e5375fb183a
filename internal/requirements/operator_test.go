package requirements

import "testing"

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw   string
		op    Operator
		value string
		found bool
	}{
		{"≥100mm/s", OpGe, "100mm/s", true},
		{">=0.5mm", OpGe, "0.5mm", true},
		{"＞＝0.5mm", OpGe, "0.5mm", true},
		{"不低于 3 年", OpGe, "3 年", true},
		{"不得低于90%", OpGe, "90%", true},
		{"≤500W", OpLe, "500W", true},
		{"不超过2kg", OpLe, "2kg", true},
		{"100kg以下", OpLe, "100kg", true},
		{"3年及以上", OpGe, "3年", true},
		{"大于20帧/秒", OpGt, "20帧/秒", true},
		{"<1ms", OpLt, "1ms", true},
		{"≠0", OpNe, "0", true},
		{"=220V", OpEq, "220V", true},
		{"为单晶探头", OpEq, "单晶探头", true},
		{"须具备CFDA注册证", OpContains, "CFDA注册证", true},
		{"支持DICOM 3.0", OpContains, "DICOM 3.0", true},
		{"不得含有进口部件", OpNotContains, "含有进口部件", true},
		{"彩色多普勒", OpNone, "彩色多普勒", false},
		{"", OpNone, "", false},
	}
	for _, tc := range cases {
		op, value, found := ParseValue(tc.raw)
		if op != tc.op || value != tc.value || found != tc.found {
			t.Fatalf("ParseValue(%q) = (%s, %q, %v), want (%s, %q, %v)", tc.raw, op, value, found, tc.op, tc.value, tc.found)
		}
	}
}

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		"ge":               OpGe,
		"GE":               OpGe,
		"≥":                OpGe,
		"greater-or-equal": OpGe,
		"not_contains":     OpNotContains,
		"须具备":              OpContains,
		"以下":               OpLe,
		"equals":           OpEq,
	}
	for raw, want := range cases {
		got, ok := ParseOperator(raw)
		if !ok || got != want {
			t.Fatalf("ParseOperator(%q) = %s %v, want %s", raw, got, ok, want)
		}
	}
	if _, ok := ParseOperator("approximately"); ok {
		t.Fatal("expected unknown operator to be rejected")
	}
}
