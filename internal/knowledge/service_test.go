package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

func newTestService() (*Service, *time.Time) {
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &Service{Repo: NewMemoryRepo(), Now: func() time.Time { return clock }}, &clock
}

func TestCreateNormalizesInput(t *testing.T) {
	svc, _ := newTestService()
	c, err := svc.Create(context.Background(), "c1", "u1", Input{
		Content:  "  本公司成立于2008年，专注医学影像设备。\n拥有三类医疗器械经营许可。  ",
		Category: " 公司介绍 ",
		Tags:     []string{"资质", " 资质 ", "", "影像"},
		Metadata: map[string]string{"source": "官网", " ": "dropped"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Title != "本公司成立于2008年，专注医学影像设备。" || c.Category != "公司介绍" {
		t.Fatalf("unexpected chunk %+v", c)
	}
	if len(c.Tags) != 2 || c.Tags[0] != "资质" || c.Tags[1] != "影像" {
		t.Fatalf("unexpected tags %v", c.Tags)
	}
	if len(c.Metadata) != 1 || c.Metadata["source"] != "官网" {
		t.Fatalf("unexpected metadata %v", c.Metadata)
	}
	if c.CreatedBy != "u1" || c.CompanyID != "c1" {
		t.Fatalf("ownership not stamped: %+v", c)
	}
}

func TestCreateRequiresContent(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), "c1", "u1", Input{Title: "售后承诺"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListFiltersAndScopesByCompany(t *testing.T) {
	svc, clock := newTestService()
	ctx := context.Background()
	for _, in := range []Input{
		{Title: "售后服务承诺", Content: "提供7×24小时响应，4小时到场。", Category: "售后", Tags: []string{"服务"}},
		{Title: "培训方案", Content: "安装完成后提供操作培训。", Category: "售后", Tags: []string{"培训"}},
		{Title: "公司简介", Content: "专注医学影像设备。", Category: "公司介绍"},
	} {
		*clock = clock.Add(time.Minute)
		if _, err := svc.Create(ctx, "c1", "u1", in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := svc.Create(ctx, "c2", "u9", Input{Content: "别家的售后"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := svc.List(ctx, "c1", ListFilter{})
	if err != nil || len(all) != 3 || all[0].Title != "公司简介" {
		t.Fatalf("expected newest first within company, got %+v %v", all, err)
	}
	after, _ := svc.List(ctx, "c1", ListFilter{Category: "售后"})
	if len(after) != 2 {
		t.Fatalf("category filter: %+v", after)
	}
	tagged, _ := svc.List(ctx, "c1", ListFilter{Tag: "培训"})
	if len(tagged) != 1 || tagged[0].Title != "培训方案" {
		t.Fatalf("tag filter: %+v", tagged)
	}
	found, _ := svc.List(ctx, "c1", ListFilter{Query: "到场"})
	if len(found) != 1 || found[0].Title != "售后服务承诺" {
		t.Fatalf("query filter: %+v", found)
	}
	page, _ := svc.List(ctx, "c1", ListFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].Title != "培训方案" {
		t.Fatalf("paging: %+v", page)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc, clock := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, "c1", "u1", Input{Title: "质保", Content: "整机质保三年。"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	*clock = clock.Add(time.Hour)

	if _, err := svc.Update(ctx, "c2", c.ID, Input{Content: "x"}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("other tenant should not see the chunk, got %v", err)
	}
	updated, err := svc.Update(ctx, "c1", c.ID, Input{Title: "质保", Content: "整机质保五年。", Tags: []string{"质保"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != "整机质保五年。" || !updated.UpdatedAt.After(c.CreatedAt) || !updated.CreatedAt.Equal(c.CreatedAt) {
		t.Fatalf("unexpected update %+v", updated)
	}

	if err := svc.Delete(ctx, "c1", c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "c1", c.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
