package checkup

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const maxBodyFonts = 3

func checkFonts(pkg *Package) outcome {
	fonts := pkg.Bid.Layout.Fonts
	if len(fonts) == 0 {
		return warning("未能识别文档字体", "请人工检查正文字体是否统一")
	}
	if len(fonts) > maxBodyFonts {
		names := make([]string, 0, len(fonts))
		for name := range fonts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return fonts[names[i]] > fonts[names[j]] })
		return warning(
			fmt.Sprintf("文档使用了 %d 种字体：%s", len(fonts), listNames(names, 5)),
			"建议正文统一使用不超过 3 种字体",
		)
	}
	return passed("字体格式符合要求")
}

func checkPageNumbers(pkg *Package) outcome {
	nums := pkg.Bid.Layout.PageNumbers
	if len(nums) == 0 {
		if pkg.Bid.Layout.PageFields {
			return passed("文档使用自动页码")
		}
		return warning("未检测到页码", "请为投标文件添加连续页码")
	}
	for i := 1; i < len(nums); i++ {
		if nums[i] != nums[i-1]+1 {
			return failed(
				fmt.Sprintf("页码不连续：第 %d 页之后为第 %d 页", nums[i-1], nums[i]),
				"请检查是否缺页或页码设置错误",
			)
		}
	}
	return passed("页码连续，无缺失")
}

var (
	tocHeadingRe = regexp.MustCompile(`^目\s*录$`)
	tocEntryRe   = regexp.MustCompile(`^(.+?)(?:[.．…·\-—_]{2,}|\t+|\s+)\s*(\d{1,4})$`)
)

const maxTOCLines = 300

// tableOfContents returns the TOC titles and the text that follows the TOC.
func tableOfContents(text string) ([]string, string, bool) {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if tocHeadingRe.MatchString(strings.TrimSpace(line)) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, "", false
	}
	var titles []string
	end := start + 1
	for i := start + 1; i < len(lines) && i <= start+maxTOCLines; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			end = i + 1
			continue
		}
		m := tocEntryRe.FindStringSubmatch(line)
		if m == nil {
			break
		}
		title := strings.TrimRight(strings.TrimSpace(m[1]), ".．…·-—_ \t")
		if title != "" {
			titles = append(titles, title)
		}
		end = i + 1
	}
	return titles, strings.Join(lines[end:], "\n"), len(titles) > 0
}

func checkTableOfContents(pkg *Package) outcome {
	titles, body, ok := tableOfContents(pkg.Bid.Text)
	if !ok {
		return warning("未检测到目录", "请为投标文件编制目录")
	}
	folded := foldText(body)
	var missing []string
	for _, t := range titles {
		if !strings.Contains(folded, foldText(t)) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return failed(
			fmt.Sprintf("目录中的以下章节未在正文中找到：%s", listNames(missing, 5)),
			"请更新目录使其与正文一致",
		)
	}
	return passed("目录与内容一致")
}
