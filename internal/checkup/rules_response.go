package checkup

import (
	"fmt"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
)

// coverageWarnPercent is the lowest coverage that is still only a warning.
const coverageWarnPercent = 90

func responseTerm(r requirements.Requirement) string {
	if r.Category == requirements.CategoryDisqualification {
		if s := clauseSubject(r.ParameterName); s != "" {
			return s
		}
	}
	return r.ParameterName
}

func checkRequirementCoverage(pkg *Package) outcome {
	if len(pkg.Requirements) == 0 {
		return warning("未提取到招标要求", "请先完成招标文件解析")
	}
	var missing []string
	for _, r := range pkg.Requirements {
		if !pkg.Mentions(responseTerm(r)) {
			missing = append(missing, r.ParameterName)
		}
	}
	covered := len(pkg.Requirements) - len(missing)
	pct := covered * 100 / len(pkg.Requirements)
	switch {
	case len(missing) == 0:
		return passed("所有招标要求均已响应")
	case pct >= coverageWarnPercent:
		return warning(
			fmt.Sprintf("招标要求响应率 %d%%，未响应：%s", pct, listNames(missing, 5)),
			"请补充响应遗漏的招标要求",
		)
	default:
		return failed(
			fmt.Sprintf("招标要求响应率仅 %d%%，未响应：%s", pct, listNames(missing, 5)),
			"请逐条响应招标要求",
		)
	}
}

func checkScoringItems(pkg *Package) outcome {
	if len(pkg.ScoringItems) == 0 {
		return passed("招标文件未包含评分项")
	}
	var missing []string
	for _, item := range pkg.ScoringItems {
		if !pkg.Mentions(item.Name) {
			missing = append(missing, item.Name)
		}
	}
	if len(missing) > 0 {
		return warning(
			fmt.Sprintf("以下评分项未在投标文件中响应：%s", listNames(missing, 5)),
			"请针对评分项提供证明材料以免失分",
		)
	}
	return passed("所有评分项均已响应")
}

func checkDisqualificationItems(pkg *Package) outcome {
	reqs := pkg.requirementsOf(requirements.CategoryDisqualification)
	if len(reqs) == 0 {
		return warning("未提取到废标项", "请确认招标文件的废标项已解析")
	}
	var unaddressed, unconfirmed []string
	for _, r := range reqs {
		if !pkg.Mentions(responseTerm(r)) {
			unaddressed = append(unaddressed, r.ParameterName)
			continue
		}
		if r.Status != requirements.StatusConfirmed {
			unconfirmed = append(unconfirmed, r.ParameterName)
		}
	}
	if len(unaddressed) > 0 {
		return failed(
			fmt.Sprintf("以下废标项未在投标文件中响应：%s", listNames(unaddressed, 5)),
			"请逐条响应废标项，避免投标无效",
		)
	}
	if len(unconfirmed) > 0 {
		return warning(
			fmt.Sprintf("%d 项废标项尚未人工确认", len(unconfirmed)),
			"请在招标要求复核中确认废标项",
		)
	}
	return passed("所有废标项均已满足")
}
