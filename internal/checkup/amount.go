package checkup

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	upperAmountRe = regexp.MustCompile(`[零〇壹贰叁肆伍陆柒捌玖拾佰仟万亿]+[元圆](?:[零〇]?[零〇壹贰叁肆伍陆柒捌玖][角分])*[整正]?`)
	lowerAmountRe = regexp.MustCompile(`[¥￥]\s*(\d[\d,]*(?:\.\d{1,2})?)|(\d[\d,]*(?:\.\d{1,2})?)\s*(万元|元)`)
)

var upperDigits = map[rune]int64{
	'零': 0, '〇': 0, '壹': 1, '贰': 2, '叁': 3, '肆': 4, '伍': 5, '陆': 6, '柒': 7, '捌': 8, '玖': 9,
}

var upperUnits = map[rune]int64{'拾': 10, '佰': 100, '仟': 1000}

// parseUpperAmount converts an upper-case Chinese amount such as
// 壹佰贰拾万元整 to cents.
func parseUpperAmount(s string) (int64, bool) {
	s = strings.TrimRight(s, "整正")
	idx := strings.IndexAny(s, "元圆")
	if idx < 0 {
		return 0, false
	}
	intPart := s[:idx]
	_, size := utf8.DecodeRuneInString(s[idx:])
	fracPart := s[idx+size:]

	var total, section, num int64
	sawDigit := false
	for _, r := range intPart {
		if d, ok := upperDigits[r]; ok {
			num = d
			if d > 0 {
				sawDigit = true
			}
			continue
		}
		if u, ok := upperUnits[r]; ok {
			if num == 0 && u == 10 {
				num = 1
			}
			section += num * u
			num = 0
			continue
		}
		switch r {
		case '万':
			total += (section + num) * 10000
		case '亿':
			total = (total + section + num) * 100000000
		default:
			return 0, false
		}
		section, num = 0, 0
	}
	total += section + num

	cents := total * 100
	var digit int64 = -1
	for _, r := range fracPart {
		if d, ok := upperDigits[r]; ok {
			// 零 before a digit is a placeholder; the digit overwrites it.
			digit = d
			if d > 0 {
				sawDigit = true
			}
			continue
		}
		if digit < 0 {
			return 0, false
		}
		switch r {
		case '角':
			cents += digit * 10
		case '分':
			cents += digit
		default:
			return 0, false
		}
		digit = -1
	}
	return cents, sawDigit
}

// lowerAmounts returns every numeric amount written with a currency sign or
// a 元/万元 unit, in cents.
func lowerAmounts(text string) []int64 {
	out := make([]int64, 0)
	for _, m := range lowerAmountRe.FindAllStringSubmatch(text, -1) {
		raw, scale := m[1], 1.0
		if raw == "" {
			raw = m[2]
			if m[3] == "万元" {
				scale = 10000
			}
		}
		if cents, ok := toCents(raw, scale); ok {
			out = append(out, cents)
		}
	}
	return out
}

func toCents(raw string, scale float64) (int64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(v * scale * 100)), true
}

func formatCents(c int64) string {
	return strconv.FormatFloat(float64(c)/100, 'f', 2, 64)
}
