package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/config"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/engine"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/logger"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/storage"
)

func main() {
	var (
		confPath    string
		brand       string
		competitors string
		window      string
		platforms   string
	)
	flag.StringVar(&confPath, "conf", "configs/config.yaml", "配置文件路径")
	flag.StringVar(&brand, "brand", "", "要监控的品牌或产品名（必填）")
	flag.StringVar(&competitors, "competitors", "", "竞品名单，逗号分隔（可选）")
	flag.StringVar(&window, "window", "7 days", "时间窗口，如 '24 hours' / '7 days' / '30 days'")
	flag.StringVar(&platforms, "platforms", "all", "平台过滤，如 reddit / reviews / all")
	flag.Parse()

	// 缺失必填参数是唯一直接报错退出的输入问题
	if brand == "" {
		fmt.Fprintln(os.Stderr, "error: -brand is required")
		flag.Usage()
		os.Exit(2)
	}

	// 1. 加载配置
	cfg, err := config.LoadConfig(confPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动品牌雷达...")

	// 3. 初始化数据库连接（可选）
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 本次运行不归档。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过归档")
	}

	// 4. 初始化引擎
	eng, err := engine.NewEngine(cfg, store)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	// 5. 执行分析。Analyze 永不返回错误，失败体现在结果对象里。
	result := eng.Analyze(context.Background(), model.Request{
		Brand:          brand,
		Competitors:    competitors,
		TimeWindow:     window,
		PlatformFilter: platforms,
	})

	fmt.Println(result.FullReport)
	if result.HasCriticalIssues {
		logger.Log.Warn("报告中包含需要关注的严重问题")
	}
	logger.Log.Infof("分析完成，数据来源: %s", result.DataSource)
}
