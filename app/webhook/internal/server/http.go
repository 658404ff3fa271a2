package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/brand_radar/app/webhook/internal/conf"
	"github.com/iWorld-y/brand_radar/app/webhook/internal/service"
)

// NewHTTPServer 创建面向工作流平台的 HTTP 服务
func NewHTTPServer(c *conf.Server, s *service.WebhookService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	srv.HandleFunc("/v1/analyze", s.Analyze)
	srv.HandleFunc("/healthz", s.Health)

	return srv
}
