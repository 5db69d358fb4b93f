package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaito/scannote/constants"
	"github.com/tsaito/scannote/internal/common"
)

func TestParseResponse_FencedJSONBlock(t *testing.T) {
	reply := "解析しました。\n\n```json\n{\"title\": \"請求書 3月分\", \"category\": \"経理\", \"tags\": [\"invoice\"], \"summary\": \"3月分の請求書。\"}\n```\n\n以上です。"

	fields := ParseResponse(reply, "fallback")
	assert.Equal(t, "請求書 3月分", fields.Title)
	assert.Equal(t, "経理", fields.Category)
	assert.Equal(t, []string{"invoice"}, fields.Tags)
	assert.Equal(t, "3月分の請求書。", fields.Summary)
}

func TestParseResponse_BareJSON(t *testing.T) {
	reply := `{"title": "Invoice A", "category": "Finance", "published": "2024-01-10"}`

	fields := ParseResponse(reply, "fallback")
	assert.Equal(t, "Invoice A", fields.Title)
	assert.Equal(t, "Finance", fields.Category)
	assert.Equal(t, "2024-01-10", fields.Published)
}

func TestParseResponse_GenericFence(t *testing.T) {
	reply := "```\n{\"title\": \"Report\"}\n```"

	fields := ParseResponse(reply, "fallback")
	assert.Equal(t, "Report", fields.Title)
}

func TestParseResponse_MalformedFallsBack(t *testing.T) {
	reply := "```json\n{\"title\": \"broken\",,,}\n```"

	fields := ParseResponse(reply, "my-default")
	assert.Equal(t, "my-default", fields.Title)
	assert.Equal(t, constants.DefaultCategory, fields.Category)
	assert.Equal(t, "Unknown", fields.Author)
	assert.Equal(t, "Unknown", fields.Published)
	assert.Empty(t, fields.Tags)
	// The raw reply is preserved verbatim, never discarded.
	assert.Equal(t, reply, fields.Summary)
}

func TestParseResponse_ProseOnlyFallsBack(t *testing.T) {
	reply := "この書類は請求書のようです。タイトルは不明です。"

	fields := ParseResponse(reply, "scan_0001")
	assert.Equal(t, "scan_0001", fields.Title)
	assert.Equal(t, reply, fields.Summary)
}

func TestParseResponse_SchemaViolationFallsBack(t *testing.T) {
	// Well-formed JSON but tags is not an array of strings.
	reply := `{"title": "x", "tags": "not-a-list"}`

	fields := ParseResponse(reply, "default-title")
	assert.Equal(t, "default-title", fields.Title)
	assert.Equal(t, reply, fields.Summary)
}

func TestParseResponse_UnknownKeysTolerated(t *testing.T) {
	reply := `{"title": "x", "confidence": 0.9}`

	fields := ParseResponse(reply, "default-title")
	require.Equal(t, "x", fields.Title)
}

func TestBuildSamplingNote(t *testing.T) {
	note := BuildSamplingNote([]int{1, 2, 3, 4, 10}, 10)
	assert.Contains(t, note, "全10ページ")
	assert.Contains(t, note, "1, 2, 3, 4, 10ページ目")

	assert.Equal(t, "", BuildSamplingNote(nil, 3))
}

func TestBuildClassificationPrompt_RuleBlock(t *testing.T) {
	rules := []common.ClassificationRule{
		{Name: "01_経理", Description: "請求書・領収書など"},
		{Name: "02_契約", Description: "契約書・同意書"},
	}
	prompt := BuildClassificationPrompt("基本プロンプト", "", rules)
	assert.Contains(t, prompt, "### 分類ルールと判定基準")
	assert.Contains(t, prompt, "- 01_経理: 請求書・領収書など")
	assert.True(t, strings.HasSuffix(prompt, "基本プロンプト"))

	// No rules, no block.
	bare := BuildClassificationPrompt("基本プロンプト", "", nil)
	assert.NotContains(t, bare, "分類ルール")
}

func TestBuildFulltextPrompt(t *testing.T) {
	got := BuildFulltextPrompt("ページ{page_number}を読み取ってください。", 7)
	assert.Equal(t, "ページ7を読み取ってください。", got)
}
