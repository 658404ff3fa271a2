package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/gg/gson"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/aggregate"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/config"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/logger"
	dm "github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/reddit"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/search/factory"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/source"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/storage"
)

// maxOutputTokens 单次生成的输出预算
const maxOutputTokens = 4000

// Engine 核心处理引擎：抓取 -> 聚合 -> 生成 -> 解析
type Engine struct {
	cfg       *config.Config
	store     *storage.Storage
	chatModel model.BaseChatModel
	forum     *source.ForumAdapter
	web       *source.WebAdapter
	limiter   *rate.Limiter
}

// NewEngine 创建引擎实例。搜索凭证缺失不是错误：对应适配器降级为空数据。
func NewEngine(cfg *config.Config, store *storage.Storage) (*Engine, error) {
	ctx := context.Background()

	// 初始化 LLM
	maxTokens := maxOutputTokens
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	// 初始化限流器，未配置时不限流
	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	if cfg.Concurrency.RPM <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Concurrency.QPS
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	// 初始化网页搜索客户端。未配置凭证时 searcher 为 nil，适配器自行降级。
	searcher, err := factory.NewSearcher(cfg)
	if err != nil {
		if !errors.Is(err, factory.ErrNotConfigured) {
			return nil, fmt.Errorf("搜索客户端初始化失败: %w", err)
		}
		logger.Log.Warnf("未配置网页搜索凭证，网页数据源将返回空数据: %v", err)
		searcher = nil
	}

	redditClient := reddit.NewClient(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret, cfg.Reddit.UserAgent)

	return &Engine{
		cfg:       cfg,
		store:     store,
		chatModel: chatModel,
		forum:     source.NewForumAdapter(redditClient, cfg.Reddit.Subreddits),
		web:       source.NewWebAdapter(searcher),
		limiter:   limiter,
	}, nil
}

// Analyze 执行一次完整的品牌分析。对外永不抛错：任何意外失败都转换为
// HasCriticalIssues=true 且 FullReport 带错误横幅的正常结果对象。
func (e *Engine) Analyze(ctx context.Context, req dm.Request) (result *dm.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("分析流程异常 [%s]: %v", req.Brand, r)
			result = errorResult(req, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	logger.Log.Infof("开始分析品牌 [%s]，时间窗口 [%s]", req.Brand, req.TimeWindow)

	corpus, path := e.collect(ctx, req)

	var prompt string
	if path == dm.PathFallback {
		logger.Log.Warnf("品牌 [%s] 没有可用的实时数据，走知识回退路径", req.Brand)
		prompt = buildFallbackPrompt(req)
	} else {
		logger.Log.Infof("品牌 [%s] 聚合完成: %d 条来源，状态 %s", req.Brand, corpus.TotalSources, corpus.DataSourceStatus)
		prompt = buildRealDataPrompt(req, corpus)
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		logger.Log.Errorf("生成调用失败 [%s]: %v", req.Brand, err)
		return errorResult(req, fmt.Sprintf("text generation failed: %v", err))
	}

	result = Parse(raw)
	result.GeneratedAt = time.Now()

	if path == dm.PathFallback {
		result.DataSource = dm.StatusFallback
		result.FullReport = fallbackBanner(req) + "\n\n" + result.FullReport
	} else {
		result.DataSource = corpus.DataSourceStatus
		result.FullReport = realDataBanner(req, corpus) + "\n\n" + result.FullReport
	}

	e.saveRun(ctx, req, corpus, path, result)
	return result
}

// collect 并发执行两个适配器抓取并聚合，返回语料与分析路径。
// 聚合内部的意外失败与零来源一样走知识回退路径。
func (e *Engine) collect(ctx context.Context, req dm.Request) (corpus *dm.AggregatedCorpus, path dm.AnalysisPath) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("聚合阶段异常 [%s]: %v", req.Brand, r)
			corpus, path = nil, dm.PathFallback
		}
	}()

	var forumRes, webRes dm.SourceResult
	var wg sync.WaitGroup

	// 两个顶层抓取并发执行，聚合必须等两者都结束
	wg.Add(2)
	go func() {
		defer wg.Done()
		forumRes = e.forum.Fetch(ctx, req.Brand, req.TimeWindow)
	}()
	go func() {
		defer wg.Done()
		webRes = e.web.Fetch(ctx, req.Brand, req.TimeWindow)
	}()
	wg.Wait()

	logger.Log.Debugf("论坛抓取结果: %s", gson.ToString(forumRes.Mentions))
	logger.Log.Debugf("网页抓取结果: %s", gson.ToString(webRes.Mentions))

	corpus = aggregate.Aggregate(forumRes, webRes, req.Brand, req.TimeWindow)
	if corpus.TotalSources == 0 {
		return corpus, dm.PathFallback
	}
	return corpus, dm.PathRealData
}

// generate 调用文本生成模型，429 时指数退避重试
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}

		messages := []*schema.Message{
			{Role: schema.User, Content: prompt},
		}

		resp, err := e.chatModel.Generate(ctx, messages)
		if err != nil {
			if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "too many requests") {
				lastErr = err
				if i < maxRetries {
					time.Sleep(baseDelay * time.Duration(1<<i))
					continue
				}
			}
			return "", err
		}
		return resp.Content, nil
	}
	return "", lastErr
}

// saveRun 将结果归档到数据库（可选，失败只记日志）
func (e *Engine) saveRun(ctx context.Context, req dm.Request, corpus *dm.AggregatedCorpus, path dm.AnalysisPath, res *dm.AnalysisResult) {
	if e.store == nil {
		return
	}
	if path == dm.PathFallback {
		corpus = nil
	}
	if runID, err := e.store.SaveRun(ctx, req, corpus, res); err != nil {
		logger.Log.Errorf("保存分析运行失败 [%s]: %v", req.Brand, err)
	} else {
		logger.Log.Infof("分析运行已保存 [%s] run_id=%d", req.Brand, runID)
	}
}

// realDataBanner 实时数据路径的来源横幅
func realDataBanner(req dm.Request, corpus *dm.AggregatedCorpus) string {
	label := "real-time data"
	if corpus.DataSourceStatus == dm.StatusPartial {
		label = "partial data"
	}
	return fmt.Sprintf("📡 Brand Report: %s | Based on %s | %d sources across %d platform(s)",
		req.Brand, label, corpus.TotalSources, len(corpus.ActivePlatforms))
}

// fallbackBanner 知识回退路径必须显式声明没有使用实时数据
func fallbackBanner(req dm.Request) string {
	return fmt.Sprintf("📡 Brand Report: %s | NOTE: no live data was available, this report is based on the model's training knowledge", req.Brand)
}

// errorResult 顶层故障的标准结果：内容字段为空，仅携带错误横幅
func errorResult(req dm.Request, msg string) *dm.AnalysisResult {
	return &dm.AnalysisResult{
		HasCriticalIssues: true,
		DataSource:        dm.StatusFallback,
		GeneratedAt:       time.Now(),
		FullReport:        fmt.Sprintf("❌ Brand analysis failed for %s: %s", req.Brand, msg),
	}
}
