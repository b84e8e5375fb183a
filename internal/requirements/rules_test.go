package requirements

import (
	"context"
	"testing"
)

const sampleTender = `某市第一人民医院彩色多普勒超声诊断仪采购项目
预算金额：300万元
一、资格要求
1. 投标人须具备有效的《医疗器械经营许可证》
2、具有良好的商业信誉
二、技术参数
1.1 扫描速度：≥100mm/s
1.2 探头数量：不少于3个
★1.3 显示器尺寸≥21英寸
1.4 工作电压：220V±10%
序号	参数名称	技术要求
2	最大功率	≤500W
三、废标条款
1. 投标报价超过采购预算的
四、评分标准
技术参数响应 30分
售后服务（10分）
`

func TestExtractTextSections(t *testing.T) {
	res := ExtractText(sampleTender)

	want := []struct {
		category string
		name     string
		op       Operator
		value    string
		status   string
	}{
		{CategoryQualification, "投标人须具备有效的《医疗器械经营许可证》", OpContains, "有效的《医疗器械经营许可证》", StatusConfirmed},
		{CategoryQualification, "具有良好的商业信誉", OpContains, "良好的商业信誉", StatusConfirmed},
		{CategoryTechnical, "扫描速度", OpGe, "100mm/s", StatusConfirmed},
		{CategoryTechnical, "探头数量", OpGe, "3个", StatusConfirmed},
		{CategoryTechnical, "显示器尺寸", OpGe, "21英寸", StatusConfirmed},
		{CategoryTechnical, "工作电压", OpNone, "220V±10%", StatusUnconfirmed},
		{CategoryTechnical, "最大功率", OpLe, "500W", StatusConfirmed},
		{CategoryDisqualification, "投标报价超过采购预算的", OpGt, "采购预算的", StatusConfirmed},
	}
	if len(res.Requirements) != len(want) {
		t.Fatalf("expected %d requirements, got %d: %+v", len(want), len(res.Requirements), res.Requirements)
	}
	for i, w := range want {
		got := res.Requirements[i]
		if got.Category != w.category || got.ParameterName != w.name || got.Operator != w.op || got.ExtractedValue != w.value || got.Status != w.status {
			t.Fatalf("requirement %d: got %+v, want %+v", i, got, w)
		}
		if got.Seq != i+1 {
			t.Fatalf("requirement %d: expected seq %d, got %d", i, i+1, got.Seq)
		}
	}

	if len(res.ScoringItems) != 2 {
		t.Fatalf("expected 2 scoring items, got %+v", res.ScoringItems)
	}
	if res.ScoringItems[0].Name != "技术参数响应" || res.ScoringItems[0].Points != 30 {
		t.Fatalf("unexpected first scoring item %+v", res.ScoringItems[0])
	}
	if res.ScoringItems[1].Name != "售后服务" || res.ScoringItems[1].Points != 10 {
		t.Fatalf("unexpected second scoring item %+v", res.ScoringItems[1])
	}
}

func TestExtractTextOperatorWithoutValueIsError(t *testing.T) {
	res := ExtractText("技术要求\n分辨率：≥\n")
	if len(res.Requirements) != 1 {
		t.Fatalf("expected 1 requirement, got %+v", res.Requirements)
	}
	if got := res.Requirements[0]; got.Status != StatusError || got.Operator != OpGe {
		t.Fatalf("expected error status, got %+v", got)
	}
}

func TestExtractTextIgnoresProseOutsideSections(t *testing.T) {
	res := ExtractText("项目概况：本项目为医院设备采购\n联系人：张三\n")
	if len(res.Requirements) != 0 {
		t.Fatalf("expected no requirements, got %+v", res.Requirements)
	}
}

func TestExtractTextDeduplicates(t *testing.T) {
	res := ExtractText("技术参数\n扫描速度：≥100mm/s\n扫描速度：≥100mm/s\n")
	if len(res.Requirements) != 1 {
		t.Fatalf("expected duplicate line dropped, got %+v", res.Requirements)
	}
}

func TestRulesExtractorHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (RulesExtractor{}).Extract(ctx, Input{Text: sampleTender}); err == nil {
		t.Fatal("expected context error")
	}
}
