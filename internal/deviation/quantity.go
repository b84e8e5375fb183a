package deviation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
)

// Quantity is a number with its unit as written.
type Quantity struct {
	Value float64
	Unit  string
}

var quantityRe = regexp.MustCompile(`([+-]?\d[\d,]*(?:\.\d+)?|[+-]?\.\d+)\s*([^\s\d,，;；、()（）。:：]*)`)

// ParseQuantity reads the first number and the unit written right after it.
// Operator words around the number are ignored.
func ParseQuantity(raw string) (Quantity, error) {
	text := requirements.Normalize(raw)
	if _, value, found := requirements.ParseValue(text); found && value != "" {
		text = value
	}
	m := quantityRe.FindStringSubmatch(text)
	if m == nil {
		return Quantity{}, fmt.Errorf("no numeric value in %q", raw)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("parse %q: %w", m[1], err)
	}
	unit := strings.TrimSpace(m[2])
	for _, suffix := range []string{"及以上", "以上", "及以下", "以下"} {
		unit = strings.TrimSuffix(unit, suffix)
	}
	return Quantity{Value: v, Unit: unit}, nil
}

type unitDef struct {
	family string
	factor float64
}

// units maps a normalised unit to its family and factor to the family base.
var units = map[string]unitDef{
	// length, base metre
	"nm": {"length", 1e-9}, "um": {"length", 1e-6}, "μm": {"length", 1e-6}, "µm": {"length", 1e-6},
	"mm": {"length", 1e-3}, "cm": {"length", 1e-2}, "dm": {"length", 1e-1}, "m": {"length", 1}, "km": {"length", 1e3},
	"纳米": {"length", 1e-9}, "微米": {"length", 1e-6}, "毫米": {"length", 1e-3}, "厘米": {"length", 1e-2}, "米": {"length", 1}, "千米": {"length", 1e3}, "公里": {"length", 1e3},
	// mass, base gram
	"mg": {"mass", 1e-3}, "g": {"mass", 1}, "kg": {"mass", 1e3}, "t": {"mass", 1e6},
	"毫克": {"mass", 1e-3}, "克": {"mass", 1}, "千克": {"mass", 1e3}, "公斤": {"mass", 1e3}, "吨": {"mass", 1e6},
	// time, base second
	"ns": {"time", 1e-9}, "μs": {"time", 1e-6}, "us": {"time", 1e-6}, "ms": {"time", 1e-3}, "s": {"time", 1}, "sec": {"time", 1},
	"min": {"time", 60}, "h": {"time", 3600}, "hr": {"time", 3600},
	"毫秒": {"time", 1e-3}, "秒": {"time", 1}, "分钟": {"time", 60}, "小时": {"time", 3600}, "天": {"time", 86400},
	// speed, base metre per second
	"mm/s": {"speed", 1e-3}, "cm/s": {"speed", 1e-2}, "m/s": {"speed", 1}, "km/h": {"speed", 1000.0 / 3600},
	"毫米/秒": {"speed", 1e-3}, "厘米/秒": {"speed", 1e-2}, "米/秒": {"speed", 1},
	// frequency, base hertz
	"hz": {"frequency", 1}, "khz": {"frequency", 1e3}, "mhz": {"frequency", 1e6}, "ghz": {"frequency", 1e9},
	"赫兹": {"frequency", 1}, "千赫": {"frequency", 1e3}, "兆赫": {"frequency", 1e6},
	// magnetic field strength, base tesla
	"T": {"field", 1}, "mT": {"field", 1e-3}, "gs": {"field", 1e-4}, "gauss": {"field", 1e-4}, "特斯拉": {"field", 1}, "高斯": {"field", 1e-4},
	// volume, base litre
	"ml": {"volume", 1e-3}, "l": {"volume", 1}, "毫升": {"volume", 1e-3}, "升": {"volume", 1},
	// power, base watt
	"w": {"power", 1}, "kw": {"power", 1e3}, "瓦": {"power", 1}, "千瓦": {"power", 1e3},
}

// lookupUnit resolves a unit. Tesla prefixes are case-sensitive so that
// "T" (tesla) and "t" (tonne) stay apart; everything else is case-folded.
func lookupUnit(u string) (unitDef, bool) {
	if def, ok := units[u]; ok {
		return def, true
	}
	def, ok := units[strings.ToLower(u)]
	return def, ok
}

// Compare returns -1, 0 or 1 as a is less than, equal to or greater than b
// after unit conversion. Units that cannot be converted must match exactly;
// a missing unit on one side adopts the other side's unit.
func Compare(a, b Quantity) (int, error) {
	av, bv := a.Value, b.Value
	switch {
	case a.Unit == "" || b.Unit == "" || a.Unit == b.Unit:
	default:
		ad, aok := lookupUnit(a.Unit)
		bd, bok := lookupUnit(b.Unit)
		if !aok || !bok {
			if strings.EqualFold(a.Unit, b.Unit) {
				break
			}
			return 0, fmt.Errorf("单位不一致：%s 与 %s", a.Unit, b.Unit)
		}
		if ad.family != bd.family {
			return 0, fmt.Errorf("单位不一致：%s 与 %s", a.Unit, b.Unit)
		}
		av *= ad.factor
		bv *= bd.factor
	}
	return compareFloat(av, bv), nil
}

func compareFloat(a, b float64) int {
	const eps = 1e-9
	diff := a - b
	scale := 1.0
	if abs(a) > scale {
		scale = abs(a)
	}
	if abs(b) > scale {
		scale = abs(b)
	}
	switch {
	case diff > eps*scale:
		return 1
	case diff < -eps*scale:
		return -1
	}
	return 0
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
