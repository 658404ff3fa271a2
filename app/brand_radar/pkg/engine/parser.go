package engine

import (
	"sort"
	"strings"

	dm "github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

// 五个固定的报告分节标记。Prompt 要求模型严格使用这些 emoji+加粗标题，
// 解析完全依赖它们做切分。
const (
	markerSentiment   = "📊 **Sentiment Summary**"
	markerPositive    = "✅ **Positive Highlights**"
	markerConcerns    = "⚠️ **Negative Concerns**"
	markerTrending    = "🔥 **Trending Topics**"
	markerCompetitive = "🏆 **Competitive Insights**"
)

// noCriticalPhrases 出现任意一个（不区分大小写）即认为没有严重问题
var noCriticalPhrases = []string{
	"no critical concerns",
	"no significant concerns",
	"no critical issues",
}

const (
	extractFailSentiment = "Could not extract a sentiment summary from the analysis output."
	extractFailConcerns  = "Could not extract concerns from the analysis output."
	parseFailSentiment   = "Unable to parse the analysis output."
	parseFailConcerns    = "Manual review required: the raw report could not be interpreted."
)

// sectionHit 找到的分节标记及其位置
type sectionHit struct {
	key   string
	start int
	end   int // 标记结束（正文开始）的位置
}

// Parse 从模型的自由文本回复中恢复五个固定分节。
// 对外永不抛错：内部异常降级为"需人工复核"的结果，结构性解析失败
// （五个标记全部缺失）返回通用提示但不标记为严重问题。
func Parse(raw string) (result *dm.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &dm.AnalysisResult{
				SentimentSummary:  parseFailSentiment,
				NegativeConcerns:  parseFailConcerns,
				HasCriticalIssues: true,
				FullReport:        raw,
			}
		}
	}()

	markers := []struct {
		key    string
		marker string
	}{
		{"sentiment", markerSentiment},
		{"positive", markerPositive},
		{"concerns", markerConcerns},
		{"trending", markerTrending},
		{"competitive", markerCompetitive},
	}

	// 先定位全部标记（允许任意顺序与缺失），再在相邻标记之间切片。
	// 模型并不保证按指示的顺序输出分节，顺序无关的切分比逐段正则更稳。
	var hits []sectionHit
	for _, m := range markers {
		if idx := strings.Index(raw, m.marker); idx >= 0 {
			hits = append(hits, sectionHit{key: m.key, start: idx, end: idx + len(m.marker)})
		}
	}

	if len(hits) == 0 {
		// 结构性失败：原文可能仍然有用，原样保留，不按严重问题处理
		return &dm.AnalysisResult{
			SentimentSummary: extractFailSentiment,
			NegativeConcerns: extractFailConcerns,
			FullReport:       raw,
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	sections := make(map[string]string, len(hits))
	for i, h := range hits {
		limit := len(raw)
		if i+1 < len(hits) {
			limit = hits[i+1].start
		}
		sections[h.key] = strings.TrimSpace(raw[h.end:limit])
	}

	concerns := sections["concerns"]
	return &dm.AnalysisResult{
		SentimentSummary:    sections["sentiment"],
		PositiveHighlights:  sections["positive"],
		NegativeConcerns:    concerns,
		TrendingTopics:      sections["trending"],
		CompetitiveInsights: sections["competitive"],
		HasCriticalIssues:   isCritical(concerns),
		FullReport:          raw,
	}
}

// isCritical 非空的担忧分节且没有任何"无严重问题"措辞时判定为严重
func isCritical(concerns string) bool {
	if concerns == "" {
		return false
	}
	low := strings.ToLower(concerns)
	for _, phrase := range noCriticalPhrases {
		if strings.Contains(low, phrase) {
			return false
		}
	}
	return true
}
