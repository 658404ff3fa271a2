package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/brand_radar/app/webhook/internal/service"
)

// ProviderSet 是 webhook 服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewRadarEngine,

	// Service providers
	service.NewWebhookService,
)
