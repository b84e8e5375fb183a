package checkup

import (
	"fmt"
	"strings"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
)

func checkParameterResponse(pkg *Package) outcome {
	reqs := pkg.requirementsOf(requirements.CategoryTechnical)
	if len(reqs) == 0 {
		return warning("未提取到技术参数要求", "请先完成招标文件解析并确认技术参数")
	}
	var missing []string
	for _, r := range reqs {
		if !pkg.Mentions(r.ParameterName) {
			missing = append(missing, r.ParameterName)
		}
	}
	if len(missing) > 0 {
		return failed(
			fmt.Sprintf("以下技术参数未在投标文件中响应：%s", listNames(missing, 5)),
			"请在技术响应部分逐条响应上述参数",
		)
	}
	return passed("所有技术参数均已响应")
}

func checkDeviationTable(pkg *Package) outcome {
	if pkg.ProductModel == "" {
		return failed("未指定投标产品型号，无法核对偏离表", "请选择投标产品型号后重新检查")
	}
	reqs := pkg.requirementsOf(requirements.CategoryTechnical)
	if len(reqs) == 0 {
		return warning("未提取到技术参数要求，无法核对偏离表", "请先完成招标文件解析")
	}
	covered := make(map[string]bool, len(pkg.Deviations))
	negatives := 0
	for _, d := range pkg.Deviations {
		if d.ProductModel != pkg.ProductModel {
			continue
		}
		covered[d.RequirementID] = true
		if d.Classification == deviation.Negative {
			negatives++
		}
	}
	var missing []string
	for _, r := range reqs {
		if !covered[r.ID] {
			missing = append(missing, r.ParameterName)
		}
	}
	if len(missing) > 0 {
		return failed(
			fmt.Sprintf("偏离表缺少 %d 项技术参数：%s", len(missing), listNames(missing, 5)),
			"请重新生成产品 "+pkg.ProductModel+" 的技术偏离表",
		)
	}
	if negatives > 0 {
		return warning(
			fmt.Sprintf("偏离表中有 %d 项负偏离", negatives),
			"请确认负偏离项不属于实质性要求，并在备注中说明",
		)
	}
	return passed("技术规格偏离表完整")
}

var qualificationRank = map[string]int{
	qualifications.StatusValid:    3,
	qualifications.StatusExpiring: 2,
	qualifications.StatusExpired:  1,
}

// bestQualification finds the catalog entry that best satisfies a
// qualification requirement: names match when either contains the other.
func bestQualification(pkg *Package, req requirements.Requirement) (qualifications.Evaluated, bool) {
	name := foldText(req.ParameterName)
	var (
		best  qualifications.Evaluated
		found bool
	)
	for _, q := range pkg.Qualifications {
		if q.ProductModel != "" && pkg.ProductModel != "" && q.ProductModel != pkg.ProductModel {
			continue
		}
		qn := foldText(q.Name)
		if qn == "" || name == "" || (!strings.Contains(name, qn) && !strings.Contains(qn, name)) {
			continue
		}
		if !found || qualificationRank[q.Status] > qualificationRank[best.Status] {
			best, found = q, true
		}
	}
	return best, found
}

func checkQualificationFiles(pkg *Package) outcome {
	reqs := pkg.requirementsOf(requirements.CategoryQualification)
	if len(reqs) == 0 {
		return passed("招标文件未提出资质文件要求")
	}
	var missing, expiring []string
	for _, r := range reqs {
		q, ok := bestQualification(pkg, r)
		switch {
		case !ok:
			missing = append(missing, r.ParameterName)
		case q.Status == qualifications.StatusExpired:
			missing = append(missing, r.ParameterName+"（已过期）")
		case q.Status == qualifications.StatusExpiring:
			expiring = append(expiring, fmt.Sprintf("%s（剩余 %d 天）", q.Name, q.DaysToExpiry))
		}
	}
	if len(missing) > 0 {
		return failed(
			fmt.Sprintf("以下资质文件缺失或已过期：%s", listNames(missing, 5)),
			"请补充提供有效的资质文件",
		)
	}
	if len(expiring) > 0 {
		return warning(
			fmt.Sprintf("以下资质文件即将到期：%s", listNames(expiring, 5)),
			"请及时办理资质延续",
		)
	}
	return passed("所有资质文件均已提供")
}
