package checkup

import (
	"context"
	"fmt"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Rule is one check in the battery.
type Rule interface {
	Name() string
	Category() string
	Evaluate(ctx context.Context, pkg *Package) Result
}

// outcome is what a check function reports; the rule fills in its labels.
type outcome struct {
	status      string
	description string
	suggestion  string
}

func passed(desc string) outcome { return outcome{status: StatusPassed, description: desc} }

func warning(desc, suggestion string) outcome {
	return outcome{status: StatusWarning, description: desc, suggestion: suggestion}
}

func failed(desc, suggestion string) outcome {
	return outcome{status: StatusError, description: desc, suggestion: suggestion}
}

type funcRule struct {
	category string
	name     string
	check    func(pkg *Package) outcome
}

func (r funcRule) Name() string     { return r.name }
func (r funcRule) Category() string { return r.category }

func (r funcRule) Evaluate(_ context.Context, pkg *Package) Result {
	o := r.check(pkg)
	return Result{
		Category:    r.category,
		CheckItem:   r.name,
		Status:      o.status,
		Description: o.description,
		Suggestion:  o.suggestion,
	}
}

// DefaultRules returns the fifteen checks in report order.
func DefaultRules() []Rule {
	return []Rule{
		funcRule{CategoryBusiness, "金额大小写一致", checkAmountCase},
		funcRule{CategoryBusiness, "投标保证金金额", checkBidBond},
		funcRule{CategoryBusiness, "投标有效期", checkValidity},
		funcRule{CategoryTechnical, "参数响应完整性", checkParameterResponse},
		funcRule{CategoryTechnical, "偏离表完整性", checkDeviationTable},
		funcRule{CategoryTechnical, "资质文件完整性", checkQualificationFiles},
		funcRule{CategoryCompliance, "竞品名称检查", checkCompetitors},
		funcRule{CategoryCompliance, "其他医院名称检查", checkOtherHospitals},
		funcRule{CategoryCompliance, "废标条款检查", checkDisqualificationClauses},
		funcRule{CategoryFormat, "字体格式一致性", checkFonts},
		funcRule{CategoryFormat, "页码连续性", checkPageNumbers},
		funcRule{CategoryFormat, "目录与内容一致性", checkTableOfContents},
		funcRule{CategoryResponse, "招标要求响应完整性", checkRequirementCoverage},
		funcRule{CategoryResponse, "评分项响应", checkScoringItems},
		funcRule{CategoryResponse, "废标项响应", checkDisqualificationItems},
	}
}

// Run evaluates every rule in order. A rule that panics yields an error
// result for its own check; the remaining rules still run.
func Run(ctx context.Context, rules []Rule, pkg *Package) ([]Result, error) {
	out := make([]Result, 0, len(rules))
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, evaluate(ctx, rule, pkg))
	}
	return out, nil
}

func evaluate(ctx context.Context, rule Rule, pkg *Package) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("checkup.rule_panic", map[string]any{
				"rule":  rule.Name(),
				"panic": fmt.Sprint(rec),
			})
			res = Result{
				Category:    rule.Category(),
				CheckItem:   rule.Name(),
				Status:      StatusError,
				Description: "检查执行失败",
				Suggestion:  "请人工核对该项或重新检查",
			}
		}
	}()
	return rule.Evaluate(ctx, pkg)
}
