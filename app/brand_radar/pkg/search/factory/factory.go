package factory

import (
	"errors"
	"fmt"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/config"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/search"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/searxng"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/tavily"
)

// ErrNotConfigured 搜索凭证缺失。调用方（网页数据源适配器）据此降级为空数据，而不是报错退出。
var ErrNotConfigured = errors.New("search provider not configured")

// NewSearcher 根据配置创建搜索实例
func NewSearcher(cfg *config.Config) (search.Searcher, error) {
	provider := cfg.Search.Provider
	if provider == "" {
		// 默认回退逻辑：配置了 tavily key 就用 tavily
		if cfg.Search.Tavily.APIKey != "" {
			provider = "tavily"
		} else {
			return nil, ErrNotConfigured
		}
	}

	switch provider {
	case "tavily":
		if cfg.Search.Tavily.APIKey == "" {
			return nil, fmt.Errorf("%w: tavily api key is missing", ErrNotConfigured)
		}
		return tavily.NewClient(cfg.Search.Tavily.APIKey), nil

	case "searxng":
		if cfg.Search.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("%w: searxng base url is missing", ErrNotConfigured)
		}
		return searxng.NewClient(cfg.Search.SearXNG.BaseURL, cfg.Search.SearXNG.Timeout), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}
