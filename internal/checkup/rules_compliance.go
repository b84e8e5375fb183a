package checkup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
)

func checkCompetitors(pkg *Package) outcome {
	var found []string
	for _, name := range pkg.CompetitorNames {
		name = strings.TrimSpace(name)
		if name != "" && pkg.Mentions(name) {
			found = append(found, name)
		}
	}
	if len(found) > 0 {
		return warning(
			fmt.Sprintf("检测到可能的竞品名称：%s", listNames(found, 5)),
			"请确认是否需要修改为符合要求的表述",
		)
	}
	return passed("未检测到竞品名称")
}

var hospitalRe = regexp.MustCompile(`(\p{Han}{2,16}?)(医院|卫生院|保健院)`)

// hospitalBoundary marks where a sentence runs into a hospital name, e.g.
// the 为 in 曾为北京协和医院.
const hospitalBoundary = "的为于在向与及、给对是了由曾"

// genericHospitalWords end phrases such as 满足本医院 that refer to a
// hospital without naming it.
var genericHospitalWords = []string{"本", "贵", "该", "各", "我", "其", "此", "采购", "招标"}

func genericHospital(prefix string) bool {
	for _, w := range genericHospitalWords {
		if strings.HasSuffix(prefix, w) {
			return true
		}
	}
	return false
}

// hospitalNames lists distinct hospital names mentioned in text.
func hospitalNames(text string) []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, m := range hospitalRe.FindAllStringSubmatch(text, -1) {
		prefix := m[1]
		if i := strings.LastIndexAny(prefix, hospitalBoundary); i >= 0 {
			_, size := utf8.DecodeRuneInString(prefix[i:])
			prefix = prefix[i+size:]
		}
		if utf8.RuneCountInString(prefix) < 2 || genericHospital(prefix) {
			continue
		}
		name := prefix + m[2]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func checkOtherHospitals(pkg *Package) outcome {
	purchaser := foldText(pkg.Project.Purchaser)
	var others []string
	for _, name := range hospitalNames(requirements.Normalize(pkg.Bid.Text)) {
		n := foldText(name)
		if purchaser != "" && (strings.Contains(purchaser, n) || strings.Contains(n, purchaser)) {
			continue
		}
		others = append(others, name)
	}
	if len(others) > 0 {
		return warning(
			fmt.Sprintf("检测到其他医院名称：%s", listNames(others, 5)),
			"请确认是否需要删除或修改",
		)
	}
	return passed("未检测到采购人以外的医院名称")
}

var (
	clauseLeadRe  = regexp.MustCompile(`^(?:投标人|供应商)?(?:未|没有|无|不)(?:按照|按|依照|依)?(?:招标文件)?(?:的)?(?:规定|要求)?(?:提交|提供|出具|签署|签字|加盖|缴纳|填写|响应)?`)
	clauseOpWords = []string{"不少于", "不低于", "不超过", "不大于", "不小于", "少于", "低于", "不足", "超过", "大于", "小于", "高于", "≥", "≤", ">", "<", "为"}
)

// clauseSubject strips the negation and verb around a disqualification
// clause, leaving the thing the bid must contain, e.g. 投标保证金 from
// 未按要求提交投标保证金的.
func clauseSubject(clause string) string {
	s := strings.TrimSpace(requirements.Normalize(clause))
	s = strings.TrimRight(s, "。；;，, ")
	s = strings.TrimSuffix(s, "的")
	if i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }); i > 0 {
		s = s[:i]
	}
	for changed := true; changed; {
		changed = false
		for _, w := range clauseOpWords {
			if t := strings.TrimSuffix(s, w); t != s {
				s, changed = t, true
			}
		}
	}
	if trimmed := clauseLeadRe.ReplaceAllString(s, ""); utf8.RuneCountInString(trimmed) >= 2 {
		s = trimmed
	}
	return strings.TrimSpace(s)
}

// describesViolation reports whether a clause names the condition that voids
// a bid (such clauses end in 的) rather than the condition a bid must meet.
func describesViolation(r requirements.Requirement) bool {
	text := r.SourceText
	if text == "" {
		text = r.ParameterName + r.RequiredValue
	}
	return strings.HasSuffix(strings.TrimRight(strings.TrimSpace(text), "。；;，, "), "的")
}

// clauseSatisfied decides one disqualification clause against the bid.
func clauseSatisfied(pkg *Package, r requirements.Requirement) (bool, string) {
	subject := clauseSubject(r.ParameterName)
	if subject == "" {
		subject = r.ParameterName
	}
	if !r.Operator.Magnitude() || r.ExtractedValue == "" {
		if pkg.Mentions(subject) {
			return true, ""
		}
		return false, "未找到“" + subject + "”的响应"
	}

	body := pkg.body()
	idx := strings.Index(body, foldText(subject))
	if idx < 0 {
		return false, "未找到“" + subject + "”的响应"
	}
	window := body[idx+len(foldText(subject)):]
	if len(window) > 120 {
		window = window[:120]
	}
	have, err := deviation.ParseQuantity(window)
	if err != nil {
		return false, "“" + subject + "”未给出数值"
	}
	want, err := deviation.ParseQuantity(foldText(r.ExtractedValue))
	if err != nil {
		return false, "条款数值无法识别"
	}
	cmp, err := deviation.Compare(have, want)
	if err != nil {
		return false, err.Error()
	}
	var meets bool
	switch r.Operator {
	case requirements.OpGe:
		meets = cmp >= 0
	case requirements.OpGt:
		meets = cmp > 0
	case requirements.OpLe:
		meets = cmp <= 0
	case requirements.OpLt:
		meets = cmp < 0
	}
	if meets == describesViolation(r) {
		return false, fmt.Sprintf("“%s”为 %g%s，触发废标条款", subject, have.Value, have.Unit)
	}
	return true, ""
}

func checkDisqualificationClauses(pkg *Package) outcome {
	reqs := pkg.requirementsOf(requirements.CategoryDisqualification)
	if len(reqs) == 0 {
		return warning("未提取到废标条款", "请确认招标文件的废标条款已解析")
	}
	var problems []string
	for _, r := range reqs {
		if ok, why := clauseSatisfied(pkg, r); !ok {
			problems = append(problems, why)
		}
	}
	if len(problems) > 0 {
		return failed(
			fmt.Sprintf("%d 项废标条款未满足：%s", len(problems), strings.Join(problems[:min(len(problems), 3)], "；")),
			"请逐条核对废标条款并补充相应内容",
		)
	}
	return passed("所有废标条款均已满足")
}
