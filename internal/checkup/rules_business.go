package checkup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	bondRe     = regexp.MustCompile(`投标保证金[^\n。；;]{0,40}?(?:[¥￥]\s*(\d[\d,]*(?:\.\d+)?)|(\d[\d,]*(?:\.\d+)?)\s*(万元|元))`)
	validityRe = regexp.MustCompile(`投标有效期[^\n。；;\d]{0,30}?(\d+)\s*(?:个)?(日历天|工作日|天|日|月)`)
)

func checkAmountCase(pkg *Package) outcome {
	text := pkg.Bid.Text
	all := lowerAmounts(text)
	found := 0
	for _, line := range strings.Split(text, "\n") {
		for _, raw := range upperAmountRe.FindAllString(line, -1) {
			cents, ok := parseUpperAmount(raw)
			if !ok {
				continue
			}
			found++
			candidates := lowerAmounts(line)
			if len(candidates) == 0 {
				candidates = all
			}
			if !containsCents(candidates, cents) {
				return failed(
					fmt.Sprintf("大写金额“%s”（%s 元）与小写金额不一致", raw, formatCents(cents)),
					"请核对大小写金额并保持一致",
				)
			}
		}
	}
	if found == 0 {
		return warning("未检测到大写金额", "请确认报价部分已按要求填写大写金额")
	}
	return passed("所有金额的大小写格式一致，无错误")
}

func containsCents(list []int64, want int64) bool {
	for _, c := range list {
		if c == want {
			return true
		}
	}
	return false
}

// bondAmount returns the first bid-bond amount in text, in cents.
func bondAmount(text string) (int64, bool) {
	m := bondRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if m[1] != "" {
		return toCents(m[1], 1)
	}
	scale := 1.0
	if m[3] == "万元" {
		scale = 10000
	}
	return toCents(m[2], scale)
}

func checkBidBond(pkg *Package) outcome {
	have, ok := bondAmount(pkg.Bid.Text)
	if !ok {
		return failed("投标文件中未找到投标保证金金额", "请在投标文件中注明投标保证金金额并附缴纳凭证")
	}
	want, ok := bondAmount(pkg.TenderText)
	if !ok {
		return warning(
			fmt.Sprintf("投标保证金金额为 %s 元，未能从招标文件识别保证金要求", formatCents(have)),
			"请人工核对保证金金额是否符合招标文件要求",
		)
	}
	if have < want {
		return failed(
			fmt.Sprintf("投标保证金 %s 元低于招标文件要求的 %s 元", formatCents(have), formatCents(want)),
			"请按招标文件要求足额缴纳投标保证金",
		)
	}
	return passed("投标保证金金额符合招标文件要求")
}

// validityDays returns the first bid validity period in text, in days.
func validityDays(text string) (int, bool) {
	m := validityRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if m[2] == "月" {
		n *= 30
	}
	return n, true
}

func checkValidity(pkg *Package) outcome {
	have, ok := validityDays(pkg.Bid.Text)
	if !ok {
		return failed("投标文件中未找到投标有效期", "请在投标函中注明投标有效期")
	}
	want, ok := validityDays(pkg.TenderText)
	if !ok {
		return warning(
			fmt.Sprintf("投标有效期为 %d 天，未能从招标文件识别有效期要求", have),
			"请人工核对投标有效期是否符合招标文件要求",
		)
	}
	if have < want {
		return failed(
			fmt.Sprintf("投标有效期 %d 天短于招标文件要求的 %d 天", have, want),
			"请将投标有效期调整为不少于招标文件要求",
		)
	}
	return passed("投标有效期符合招标文件要求")
}
