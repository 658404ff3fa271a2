package aggregate

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

// Aggregate 合并论坛与网页搜索结果：分桶、统计、充分性分类、跨桶去重、渲染 Prompt 语料。
// 所有桶为空时仍渲染带零计数的头部结构，是否跳过 LLM 调用由引擎决定。
func Aggregate(forum, web model.SourceResult, brand, timeWindow string) *model.AggregatedCorpus {
	buckets := make(map[model.Platform]*model.PlatformBucket, len(model.PlatformOrder))
	for _, p := range model.PlatformOrder {
		buckets[p] = &model.PlatformBucket{Platform: p}
	}

	fill := func(res model.SourceResult) {
		for _, m := range res.Mentions {
			b, ok := buckets[m.Platform]
			if !ok {
				// 未知平台记录直接丢弃，适配器不应产出这种数据
				continue
			}
			b.Mentions = append(b.Mentions, m)
		}
		for p, text := range res.Sections {
			if b, ok := buckets[p]; ok {
				b.RenderedText = text
			}
		}
	}
	fill(forum)
	fill(web)

	dedupeAcross(buckets)

	total := 0
	var active []string
	for _, p := range model.PlatformOrder {
		total += buckets[p].Count
		if buckets[p].Count > 0 {
			active = append(active, string(p))
		}
	}

	corpus := &model.AggregatedCorpus{
		Buckets:          buckets,
		TotalSources:     total,
		ActivePlatforms:  active,
		DataSourceStatus: classify(buckets),
	}
	corpus.PromptBody = renderPromptBody(corpus, brand, timeWindow)
	return corpus
}

// dedupeAcross 跨桶去重：按固定平台顺序扫描，同一 URL 只保留最先出现的桶里那条，
// 随后重算各桶计数。该操作是幂等的。
func dedupeAcross(buckets map[model.Platform]*model.PlatformBucket) {
	seen := make(map[string]bool)
	for _, p := range model.PlatformOrder {
		b := buckets[p]
		kept := b.Mentions[:0]
		for _, m := range b.Mentions {
			if seen[m.URL] {
				continue
			}
			seen[m.URL] = true
			kept = append(kept, m)
		}
		b.Mentions = kept
		b.Count = len(kept)
	}
}

// classify 数据充分性分类。两个类别信号：论坛桶非空、任一网页桶非空。
// 两者皆有 => real-time，只有其一 => partial，全无 => fallback。
func classify(buckets map[model.Platform]*model.PlatformBucket) model.DataSourceStatus {
	forumActive := buckets[model.PlatformReddit].Count > 0
	webActive := false
	for _, p := range model.PlatformOrder {
		if p == model.PlatformReddit {
			continue
		}
		if buckets[p].Count > 0 {
			webActive = true
			break
		}
	}

	switch {
	case forumActive && webActive:
		return model.StatusRealTime
	case forumActive || webActive:
		return model.StatusPartial
	default:
		return model.StatusFallback
	}
}

// renderPromptBody 渲染统一的 Prompt 语料
func renderPromptBody(c *model.AggregatedCorpus, brand, timeWindow string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== BRAND MENTION DATA: %s ===\n", brand)
	fmt.Fprintf(&sb, "Time window: %s\n", timeWindow)
	fmt.Fprintf(&sb, "Total sources: %d\n", c.TotalSources)
	if len(c.ActivePlatforms) > 0 {
		fmt.Fprintf(&sb, "Active platforms: %s\n", strings.Join(c.ActivePlatforms, ", "))
	} else {
		sb.WriteString("Active platforms: none\n")
	}

	sb.WriteString("\nBreakdown by platform:\n")
	for _, p := range model.PlatformOrder {
		fmt.Fprintf(&sb, "- %s: %d\n", p, c.Buckets[p].Count)
	}

	for _, p := range model.PlatformOrder {
		b := c.Buckets[p]
		if b.Count == 0 || b.RenderedText == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(b.RenderedText)
	}

	sb.WriteString("\nIMPORTANT: cite only URLs that appear in the data above. Never invent or guess a source URL.\n")
	return sb.String()
}
