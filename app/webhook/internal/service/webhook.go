package service

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/engine"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

// AnalyzeInputs 工作流平台传入的参数字典
type AnalyzeInputs struct {
	BrandName   string `json:"brand_name"`
	Competitors string `json:"competitors"`
	TimeWindow  string `json:"time_window"`
	Platforms   string `json:"platforms"`
}

// AnalyzeOutputs 工作流平台消费的输出字典。字段名与类型是对外契约的一部分：
// has_critical_issues 必须是 "true"/"false" 字符串字面量。
type AnalyzeOutputs struct {
	SentimentSummary    string `json:"sentiment_summary"`
	PositiveHighlights  string `json:"positive_highlights"`
	NegativeConcerns    string `json:"negative_concerns"`
	TrendingTopics      string `json:"trending_topics"`
	CompetitiveInsights string `json:"competitive_insights"`
	FullReport          string `json:"full_report"`
	HasCriticalIssues   string `json:"has_critical_issues"`
	ReportTimestamp     string `json:"report_timestamp"`
}

type errorReply struct {
	Error string `json:"error"`
}

// WebhookService 把引擎暴露给工作流平台的 HTTP 服务
type WebhookService struct {
	eng *engine.Engine
	log *log.Helper
}

// NewWebhookService 创建 webhook 服务实例
func NewWebhookService(eng *engine.Engine, logger log.Logger) *WebhookService {
	return &WebhookService{
		eng: eng,
		log: log.NewHelper(logger),
	}
}

// Analyze 处理 POST /v1/analyze。必填参数缺失返回独立的错误形态，
// 其余一切失败都由引擎吸收为正常形态的结果对象。
func (s *WebhookService) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorReply{Error: "method not allowed"})
		return
	}

	var in AnalyzeInputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "invalid request body: " + err.Error()})
		return
	}

	if in.BrandName == "" {
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "brand_name is required"})
		return
	}
	if in.TimeWindow == "" {
		in.TimeWindow = "7 days"
	}
	if in.Platforms == "" {
		in.Platforms = "all"
	}

	s.log.Infof("analyze request: brand=%s window=%s platforms=%s", in.BrandName, in.TimeWindow, in.Platforms)

	result := s.eng.Analyze(r.Context(), model.Request{
		Brand:          in.BrandName,
		Competitors:    in.Competitors,
		TimeWindow:     in.TimeWindow,
		PlatformFilter: in.Platforms,
	})

	writeJSON(w, http.StatusOK, ToOutputs(result))
}

// Health 处理 GET /healthz
func (s *WebhookService) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ToOutputs 把引擎结果映射为工作流输出字典
func ToOutputs(res *model.AnalysisResult) AnalyzeOutputs {
	return AnalyzeOutputs{
		SentimentSummary:    res.SentimentSummary,
		PositiveHighlights:  res.PositiveHighlights,
		NegativeConcerns:    res.NegativeConcerns,
		TrendingTopics:      res.TrendingTopics,
		CompetitiveInsights: res.CompetitiveInsights,
		FullReport:          res.FullReport,
		HasCriticalIssues:   strconv.FormatBool(res.HasCriticalIssues),
		ReportTimestamp:     res.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
