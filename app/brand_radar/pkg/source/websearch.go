package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/logger"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/search"
)

const (
	// perQueryLimit 服务端单次请求的结果上限
	perQueryLimit = 5
	// enrichLimit 每个类别最多抓取多少条正文用于补全过短的摘要
	enrichLimit = 3
	// enrichThreshold 摘要低于该长度时尝试抓取页面正文
	enrichThreshold = 120
)

// webCategory 一个平台类别及其固定查询模板，%s 为品牌名占位
type webCategory struct {
	platform model.Platform
	header   string
	queries  []string
}

// webCategories 固定的网页搜索类别与查询模板
var webCategories = []webCategory{
	{
		platform: model.PlatformSocial,
		header:   "Social Media Mentions",
		queries:  []string{`"%s" site:twitter.com`, `"%s" site:tiktok.com`},
	},
	{
		platform: model.PlatformReviews,
		header:   "Review Site Mentions",
		queries:  []string{`"%s" site:g2.com`, `"%s" site:trustpilot.com`, `"%s" site:capterra.com`},
	},
	{
		platform: model.PlatformBlogs,
		header:   "Blog & Forum Mentions",
		queries:  []string{`"%s" site:medium.com`, `"%s" site:quora.com`},
	},
}

// WebAdapter 网页搜索数据源适配器。Fetch 永不向上抛错。
type WebAdapter struct {
	searcher search.Searcher
	// enrich 对过短的摘要抓取页面正文补全
	enrich bool
}

// NewWebAdapter 创建网页搜索适配器，searcher 可为 nil（凭证缺失时降级为空数据）
func NewWebAdapter(searcher search.Searcher) *WebAdapter {
	return &WebAdapter{searcher: searcher, enrich: true}
}

// Fetch 按平台类别抓取品牌的网页提及
func (a *WebAdapter) Fetch(ctx context.Context, brand, timeWindow string) model.SourceResult {
	if a.searcher == nil {
		return model.SourceResult{
			RenderedText: "Web search data unavailable: no search provider configured",
			Sections:     map[model.Platform]string{},
		}
	}

	days := windowDays(MapTimeFilter(timeWindow))
	now := time.Now()
	endDate := now.Format(time.DateOnly)
	startDate := now.AddDate(0, 0, -days).Format(time.DateOnly)

	var mu sync.Mutex
	var wg sync.WaitGroup
	sections := make(map[model.Platform]string)
	var all []model.Mention

	// 类别之间并发，类别内部的各查询模板也并发
	for _, cat := range webCategories {
		wg.Add(1)
		go func(cat webCategory) {
			defer wg.Done()
			mentions := a.fetchCategory(ctx, cat, brand, startDate, endDate)
			if len(mentions) == 0 {
				return
			}
			mu.Lock()
			all = append(all, mentions...)
			sections[cat.platform] = RenderMentions(cat.header, mentions)
			mu.Unlock()
		}(cat)
	}
	wg.Wait()

	if len(all) == 0 {
		return model.SourceResult{
			RenderedText: fmt.Sprintf("Web search data unavailable: no mentions of %q found across social, review and blog platforms", brand),
			Sections:     map[model.Platform]string{},
		}
	}

	var sb strings.Builder
	for _, cat := range webCategories {
		if text, ok := sections[cat.platform]; ok {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	return model.SourceResult{
		Mentions:     all,
		RenderedText: sb.String(),
		Sections:     sections,
	}
}

// fetchCategory 抓取单个类别：并发执行查询模板，类别内按 URL 去重
func (a *WebAdapter) fetchCategory(ctx context.Context, cat webCategory, brand, startDate, endDate string) []model.Mention {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var raw []search.Result

	for _, tpl := range cat.queries {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			resp, err := a.searcher.Search(ctx, &search.Request{
				Query:      query,
				Topic:      "general",
				MaxResults: perQueryLimit,
				StartDate:  startDate,
				EndDate:    endDate,
			})
			if err != nil {
				logger.Log.Warnf("网页搜索失败 [%s] %q: %v", cat.platform, query, err)
				return
			}
			mu.Lock()
			raw = append(raw, resp.Results...)
			mu.Unlock()
		}(fmt.Sprintf(tpl, brand))
	}
	wg.Wait()

	seen := make(map[string]bool)
	var mentions []model.Mention
	for _, r := range raw {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		mentions = append(mentions, model.Mention{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Content,
			PublishedAt: r.PublishedDate,
			Platform:    cat.platform,
		})
	}

	if a.enrich {
		a.enrichSnippets(mentions)
	}
	return mentions
}

// enrichSnippets 对类别内前几条摘要过短的记录抓取页面正文，失败静默跳过
func (a *WebAdapter) enrichSnippets(mentions []model.Mention) {
	enriched := 0
	for i := range mentions {
		if enriched >= enrichLimit {
			break
		}
		if len(mentions[i].Snippet) >= enrichThreshold {
			continue
		}
		article, err := readability.FromURL(mentions[i].URL, 10*time.Second)
		if err != nil {
			logger.Log.Debugf("抓取正文失败 [%s]: %v", mentions[i].URL, err)
			continue
		}
		if text := strings.TrimSpace(article.TextContent); len(text) > len(mentions[i].Snippet) {
			mentions[i].Snippet = truncate(text, 500)
			enriched++
		}
	}
}
