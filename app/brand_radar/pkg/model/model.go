package model

import "time"

// Platform 平台类别标识
type Platform string

// 固定的平台类别，顺序由 PlatformOrder 决定
const (
	PlatformReddit  Platform = "reddit"
	PlatformSocial  Platform = "social"
	PlatformReviews Platform = "reviews"
	PlatformBlogs   Platform = "blogs"
)

// PlatformOrder 桶的固定遍历顺序，跨桶去重时靠前的桶优先保留记录
var PlatformOrder = []Platform{PlatformReddit, PlatformSocial, PlatformReviews, PlatformBlogs}

// Mention 单条品牌提及记录，URL 为唯一标识（区分大小写精确匹配）
type Mention struct {
	Title       string
	URL         string
	Snippet     string
	PublishedAt string
	Platform    Platform
}

// ForumPost 论坛帖子，在 Mention 基础上附带互动数据
type ForumPost struct {
	Mention
	Score        int
	CommentCount int
	Subreddit    string
	Author       string
}

// Engagement 互动热度评分：评论权重为点赞的两倍，倾向讨论深度而非围观
func (p *ForumPost) Engagement() int {
	return p.Score + 2*p.CommentCount
}

// SourceResult 单个数据源适配器的输出
type SourceResult struct {
	Mentions []Mention
	// RenderedText 适配器渲染的纯文本块（多个类别时为拼接结果），永不为空，
	// 凭证缺失或传输失败时为人类可读的状态说明
	RenderedText string
	// Sections 按平台类别拆分的文本渲染，聚合器按固定顺序嵌入 Prompt
	Sections map[Platform]string
}

// PlatformBucket 某一平台类别下的记录集合
type PlatformBucket struct {
	Platform Platform
	Mentions []Mention
	Count    int
	// RenderedText 该桶对应适配器的文本渲染
	RenderedText string
}

// DataSourceStatus 数据充分性分类
type DataSourceStatus string

const (
	// StatusRealTime 至少两类数据源（论坛 + 任一网页类别）有数据
	StatusRealTime DataSourceStatus = "real-time"
	// StatusPartial 只有一类数据源有数据
	StatusPartial DataSourceStatus = "partial"
	// StatusFallback 没有任何实时数据
	StatusFallback DataSourceStatus = "fallback"
)

// AnalysisPath 分析路径的显式标记，作为参数/返回值传递，不使用共享可变标志位
type AnalysisPath int

const (
	// PathRealData 使用实时抓取的语料
	PathRealData AnalysisPath = iota
	// PathFallback 没有实时数据，依赖模型自身知识
	PathFallback
)

// AggregatedCorpus 一次分析运行的聚合语料
type AggregatedCorpus struct {
	Buckets          map[Platform]*PlatformBucket
	TotalSources     int
	ActivePlatforms  []string
	DataSourceStatus DataSourceStatus
	PromptBody       string
}

// AnalysisResult 一次分析的最终结构化结果
type AnalysisResult struct {
	SentimentSummary    string
	PositiveHighlights  string
	NegativeConcerns    string
	TrendingTopics      string
	CompetitiveInsights string
	HasCriticalIssues   bool
	FullReport          string
	DataSource          DataSourceStatus
	GeneratedAt         time.Time
}

// Request 一次分析请求的入参
type Request struct {
	Brand          string
	Competitors    string
	TimeWindow     string
	PlatformFilter string
}
