package deviation

import "testing"

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want Quantity
	}{
		{"120mm/s", Quantity{120, "mm/s"}},
		{"≥ 0.3 mm", Quantity{0.3, "mm"}},
		{"１２０ｍｍ/ｓ", Quantity{120, "mm/s"}},
		{"1,000 Hz以上", Quantity{1000, "Hz"}},
		{"3.0T", Quantity{3, "T"}},
		{"128排", Quantity{128, "排"}},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		if err != nil {
			t.Fatalf("ParseQuantity(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseQuantity(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseQuantity("支持"); err == nil {
		t.Fatalf("expected error for text without a number")
	}
}

func TestCompareConvertsUnits(t *testing.T) {
	cases := []struct {
		a, b Quantity
		want int
	}{
		{Quantity{0.6, "m/s"}, Quantity{500, "mm/s"}, 1},
		{Quantity{1, "kg"}, Quantity{1000, "g"}, 0},
		{Quantity{2, "min"}, Quantity{150, "s"}, -1},
		{Quantity{1500, "mT"}, Quantity{1.5, "T"}, 0},
		{Quantity{120, ""}, Quantity{100, "mm/s"}, 1},
		{Quantity{64, "排"}, Quantity{128, "排"}, -1},
	}
	for _, tc := range cases {
		got, err := Compare(tc.a, tc.b)
		if err != nil {
			t.Fatalf("Compare(%+v, %+v): %v", tc.a, tc.b, err)
		}
		if got != tc.want {
			t.Fatalf("Compare(%+v, %+v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompareRejectsUnitMismatch(t *testing.T) {
	for _, pair := range [][2]Quantity{
		{{120, "mm/s"}, {5, "kg"}},
		{{3, "T"}, {3, "t"}},
		{{64, "排"}, {64, "层"}},
	} {
		if _, err := Compare(pair[0], pair[1]); err == nil {
			t.Fatalf("expected mismatch error for %+v", pair)
		}
	}
}
