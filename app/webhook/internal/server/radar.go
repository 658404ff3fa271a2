package server

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/config"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/engine"
	brLogger "github.com/iWorld-y/brand_radar/app/brand_radar/pkg/logger"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/storage"
	"github.com/iWorld-y/brand_radar/app/webhook/internal/conf"
)

// NewRadarEngine 从 webhook 配置初始化 brand_radar 引擎
func NewRadarEngine(c *conf.Radar, logger log.Logger) (*engine.Engine, func(), error) {
	if c == nil {
		return nil, nil, fmt.Errorf("radar config is missing")
	}

	// 将 internal/conf.Radar 转换为 pkg/config.Config
	cfg := &config.Config{}
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			BaseURL: c.Llm.BaseUrl,
			APIKey:  c.Llm.ApiKey,
			Model:   c.Llm.Model,
		}
	}
	if c.Reddit != nil {
		cfg.Reddit = config.RedditConfig{
			ClientID:     c.Reddit.ClientId,
			ClientSecret: c.Reddit.ClientSecret,
			UserAgent:    c.Reddit.UserAgent,
			Subreddits:   c.Reddit.Subreddits,
		}
	}
	if c.Search != nil {
		cfg.Search.Provider = c.Search.Provider
		if c.Search.Tavily != nil {
			cfg.Search.Tavily = config.TavilyConfig{APIKey: c.Search.Tavily.ApiKey}
		}
		if c.Search.Searxng != nil {
			cfg.Search.SearXNG = config.SearXNGConfig{
				BaseURL: c.Search.Searxng.BaseUrl,
				Timeout: int(c.Search.Searxng.Timeout),
			}
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			QPS: int(c.Concurrency.Qps),
			RPM: int(c.Concurrency.Rpm),
		}
	}
	if c.Db != nil {
		cfg.DB = config.DBConfig{
			Host:     c.Db.Host,
			Port:     int(c.Db.Port),
			User:     c.Db.User,
			Password: c.Db.Password,
			Name:     c.Db.Name,
		}
	}

	// 环境变量覆盖密钥
	cfg.ApplyEnv()

	// 初始化日志
	if err := brLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init brand_radar logger: %v", err)
		_ = brLogger.InitLogger("info", "") // 降级处理
	}

	// 初始化存储层（可选，连不上只降级为不归档）
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			log.NewHelper(logger).Errorf("Failed to init storage, runs will not be archived: %v", err)
		} else {
			store = s
		}
	}

	// 初始化核心引擎
	eng, err := engine.NewEngine(cfg, store)
	if err != nil {
		if store != nil {
			store.Close()
		}
		log.NewHelper(logger).Errorf("Failed to init engine: %v", err)
		return nil, nil, err
	}

	cleanup := func() {
		if store != nil {
			store.Close()
		}
		log.NewHelper(logger).Info("cleaning up brand_radar engine")
	}

	return eng, cleanup, nil
}
