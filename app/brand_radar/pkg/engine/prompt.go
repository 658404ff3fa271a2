package engine

import (
	"fmt"
	"strings"

	dm "github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

// sectionContract 两条路径共享的输出格式约束。
// 下游工作流把报告原样写入聊天变量，不再做任何格式化，
// 因此这里必须把五个分节标题钉死，解析器按标题切分。
const sectionContract = `Structure your reply as EXACTLY these five sections, using these exact headers:

` + markerSentiment + `
` + markerPositive + `
` + markerConcerns + `
` + markerTrending + `
` + markerCompetitive + `

Rules:
- Each section contains exactly 3 bullet lines starting with "•" (never numbered lists).
- Each bullet is at most 2 sentences and ends with a source citation in parentheses.
- Keep the whole report under 250 words.`

// buildRealDataPrompt 实时数据路径：嵌入聚合语料，只允许引用语料中出现的 URL
func buildRealDataPrompt(req dm.Request, corpus *dm.AggregatedCorpus) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a brand reputation analyst. Analyze the following real mention data for %q", req.Brand)
	if req.Competitors != "" {
		fmt.Fprintf(&sb, " (competitors to watch: %s)", req.Competitors)
	}
	sb.WriteString(".\n\n")

	sb.WriteString(corpus.PromptBody)

	if req.PlatformFilter != "" && req.PlatformFilter != "all" {
		fmt.Fprintf(&sb, "\nFocus the analysis on the %q platform where the data allows.\n", req.PlatformFilter)
	}

	sb.WriteString("\n")
	sb.WriteString(sectionContract)
	sb.WriteString("\n- Cite only URLs that appear in the data above.")
	return sb.String()
}

// buildFallbackPrompt 知识回退路径：没有任何实时数据，要求模型基于训练知识作答，
// 输出契约与实时路径完全一致
func buildFallbackPrompt(req dm.Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a brand reputation analyst. No live mention data could be collected for %q", req.Brand)
	fmt.Fprintf(&sb, " (time window: %s)", req.TimeWindow)
	if req.PlatformFilter != "" && req.PlatformFilter != "all" {
		fmt.Fprintf(&sb, ", platform focus: %s", req.PlatformFilter)
	}
	sb.WriteString(".\n\n")

	sb.WriteString("Rely on your own training knowledge of this brand")
	if req.Competitors != "" {
		fmt.Fprintf(&sb, " and its competitors (%s)", req.Competitors)
	}
	sb.WriteString(" to produce the report. State general knowledge rather than inventing recent events, and cite (general knowledge) as the source.\n\n")

	sb.WriteString(sectionContract)
	return sb.String()
}
