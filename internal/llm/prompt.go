package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsaito/scannote/internal/common"
)

// BuildClassificationPrompt composes the prompt for one document: the page
// sampling notice (when pages were left out), the classification rule block,
// then the configured base prompt, in that order.
func BuildClassificationPrompt(basePrompt, samplingNote string, rules []common.ClassificationRule) string {
	return fmt.Sprintf("%s%s\n\n%s", samplingNote, buildRuleBlock(rules), basePrompt)
}

// BuildSamplingNote describes which page numbers were actually sent and the
// document's true page total. Returns "" when no sampling happened.
func BuildSamplingNote(includedPages []int, totalPages int) string {
	if len(includedPages) == 0 {
		return ""
	}
	nums := make([]string, len(includedPages))
	for i, p := range includedPages {
		nums[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf(
		"\n\n(注意: この書類は全%dページありますが、現在はコンテキスト節約のため、%sページ目のみを抜粋して送信しています。)",
		totalPages, strings.Join(nums, ", "))
}

// BuildFulltextPrompt fills the page number into the configured per-page
// recognition prompt template.
func BuildFulltextPrompt(template string, pageNumber int) string {
	return strings.ReplaceAll(template, "{page_number}", strconv.Itoa(pageNumber))
}

func buildRuleBlock(rules []common.ClassificationRule) string {
	if len(rules) == 0 {
		return ""
	}
	lines := make([]string, len(rules))
	for i, r := range rules {
		lines[i] = fmt.Sprintf("- %s: %s", r.Name, r.Description)
	}
	return "\n\n### 分類ルールと判定基準\n" +
		"以下のカテゴリ名から、書類の内容に最も合致するものを1つだけ選択してください。\n" +
		"選択肢:\n" + strings.Join(lines, "\n") + "\n"
}
