package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/config"
	dm "github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/reddit"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/search"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/source"
)

// mockChatModel 模拟文本生成，记录收到的 Prompt
type mockChatModel struct {
	reply      string
	err        error
	lastPrompt string
}

func (m *mockChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if len(in) > 0 {
		m.lastPrompt = in[len(in)-1].Content
	}
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.reply}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported in tests")
}

// mockReddit 模拟论坛数据源
type mockReddit struct {
	posts []reddit.Post
}

func (m *mockReddit) SearchSubreddit(ctx context.Context, subreddit, query string, opts reddit.SearchOptions) ([]reddit.Post, error) {
	return m.posts, nil
}

// emptySearcher 模拟无结果的网页搜索
type emptySearcher struct{}

func (emptySearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	return &search.Response{}, nil
}

func newTestEngine(chat *mockChatModel, posts []reddit.Post, webSearcher search.Searcher) *Engine {
	return &Engine{
		cfg:       &config.Config{},
		chatModel: chat,
		forum:     source.NewForumAdapter(&mockReddit{posts: posts}, []string{"technology"}),
		web:       source.NewWebAdapter(webSearcher),
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
}

func TestAnalyze_PartialDataTakesRealPath(t *testing.T) {
	posts := []reddit.Post{
		{Title: "Acme launch", Permalink: "https://reddit.com/p1", Score: 10, NumComments: 3, Author: "u1", Subreddit: "technology"},
		{Title: "Acme pricing", Permalink: "https://reddit.com/p2", Score: 4, NumComments: 1, Author: "u2", Subreddit: "technology"},
	}
	chat := &mockChatModel{reply: wellFormedReply}
	eng := newTestEngine(chat, posts, emptySearcher{})

	res := eng.Analyze(context.Background(), dm.Request{Brand: "Acme", TimeWindow: "7 days"})

	if res.DataSource != dm.StatusPartial {
		t.Errorf("DataSource = %s, want partial", res.DataSource)
	}
	// 只要 totalSources > 0 就走实时数据路径
	if !strings.Contains(chat.lastPrompt, "BRAND MENTION DATA") {
		t.Error("expected the real-data prompt embedding the corpus")
	}
	if !strings.Contains(chat.lastPrompt, "https://reddit.com/p1") {
		t.Error("corpus URLs missing from the prompt")
	}
	if !strings.Contains(res.FullReport, "partial data") {
		t.Errorf("provenance banner missing partial-data wording:\n%s", res.FullReport)
	}
	if !strings.Contains(res.FullReport, "2 sources") {
		t.Errorf("provenance banner missing source count:\n%s", res.FullReport)
	}
}

func TestAnalyze_NoDataTakesFallbackPath(t *testing.T) {
	chat := &mockChatModel{reply: wellFormedReply}
	eng := newTestEngine(chat, nil, emptySearcher{})

	res := eng.Analyze(context.Background(), dm.Request{Brand: "Acme", TimeWindow: "7 days"})

	if res.DataSource != dm.StatusFallback {
		t.Errorf("DataSource = %s, want fallback", res.DataSource)
	}
	if !strings.Contains(chat.lastPrompt, "training knowledge") {
		t.Error("expected the knowledge-fallback prompt")
	}
	if !strings.Contains(res.FullReport, "training knowledge") {
		t.Errorf("fallback banner must state that no live data was used:\n%s", res.FullReport)
	}
}

func TestAnalyze_GenerationFailureReturnsErrorResult(t *testing.T) {
	chat := &mockChatModel{err: errors.New("insufficient quota")}
	eng := newTestEngine(chat, nil, emptySearcher{})

	res := eng.Analyze(context.Background(), dm.Request{Brand: "Acme", TimeWindow: "7 days"})

	if res == nil {
		t.Fatal("Analyze must never return nil")
	}
	if !res.HasCriticalIssues {
		t.Error("generation failure must flag critical issues")
	}
	if res.SentimentSummary != "" {
		t.Errorf("content fields must stay empty on failure, got %q", res.SentimentSummary)
	}
	if !strings.Contains(res.FullReport, "failed") {
		t.Errorf("error banner missing:\n%s", res.FullReport)
	}
}

func TestAnalyze_ParsesSectionsIntoResult(t *testing.T) {
	posts := []reddit.Post{
		{Title: "Acme thread", Permalink: "https://reddit.com/p1", Score: 3, NumComments: 2, Author: "u1", Subreddit: "technology"},
	}
	chat := &mockChatModel{reply: wellFormedReply}
	eng := newTestEngine(chat, posts, emptySearcher{})

	res := eng.Analyze(context.Background(), dm.Request{Brand: "Acme", TimeWindow: "24 hours"})

	if res.SentimentSummary == "" || res.CompetitiveInsights == "" {
		t.Error("parsed sections missing from the final result")
	}
	if res.GeneratedAt.IsZero() {
		t.Error("GeneratedAt must be set")
	}
}
