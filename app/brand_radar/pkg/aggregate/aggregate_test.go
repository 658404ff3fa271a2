package aggregate

import (
	"strings"
	"testing"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

func forumResult(urls ...string) model.SourceResult {
	var res model.SourceResult
	for _, u := range urls {
		res.Mentions = append(res.Mentions, model.Mention{
			Title: "post", URL: u, Platform: model.PlatformReddit,
		})
	}
	res.RenderedText = "Reddit Discussions"
	res.Sections = map[model.Platform]string{model.PlatformReddit: "Reddit Discussions (rendered)\n"}
	return res
}

func webResult(platform model.Platform, urls ...string) model.SourceResult {
	var res model.SourceResult
	for _, u := range urls {
		res.Mentions = append(res.Mentions, model.Mention{
			Title: "mention", URL: u, Platform: platform,
		})
	}
	res.Sections = map[model.Platform]string{platform: string(platform) + " (rendered)\n"}
	return res
}

func TestAggregate_StatusClassification(t *testing.T) {
	cases := []struct {
		name  string
		forum model.SourceResult
		web   model.SourceResult
		want  model.DataSourceStatus
	}{
		{"both sides", forumResult("https://reddit.com/a"), webResult(model.PlatformReviews, "https://g2.com/a"), model.StatusRealTime},
		{"forum only", forumResult("https://reddit.com/a", "https://reddit.com/b", "https://reddit.com/c"), model.SourceResult{}, model.StatusPartial},
		{"web only", model.SourceResult{}, webResult(model.PlatformBlogs, "https://medium.com/a"), model.StatusPartial},
		{"nothing", model.SourceResult{}, model.SourceResult{}, model.StatusFallback},
	}

	for _, c := range cases {
		corpus := Aggregate(c.forum, c.web, "Acme", "7 days")
		if corpus.DataSourceStatus != c.want {
			t.Errorf("%s: status = %s, want %s", c.name, corpus.DataSourceStatus, c.want)
		}
	}
}

func TestAggregate_TotalMatchesBucketSum(t *testing.T) {
	corpus := Aggregate(
		forumResult("https://reddit.com/a", "https://reddit.com/b"),
		webResult(model.PlatformReviews, "https://g2.com/a"),
		"Acme", "7 days")

	sum := 0
	for _, p := range model.PlatformOrder {
		sum += corpus.Buckets[p].Count
	}
	if corpus.TotalSources != sum {
		t.Errorf("TotalSources = %d, bucket sum = %d", corpus.TotalSources, sum)
	}
	if corpus.TotalSources != 3 {
		t.Errorf("TotalSources = %d, want 3", corpus.TotalSources)
	}
}

func TestAggregate_CrossBucketDedup(t *testing.T) {
	// 同一 URL 同时出现在论坛桶和评测桶，固定顺序下归属论坛
	shared := "https://example.com/shared"
	corpus := Aggregate(
		forumResult(shared),
		webResult(model.PlatformReviews, shared, "https://g2.com/a"),
		"Acme", "7 days")

	if corpus.Buckets[model.PlatformReddit].Count != 1 {
		t.Errorf("forum bucket count = %d, want 1", corpus.Buckets[model.PlatformReddit].Count)
	}
	if corpus.Buckets[model.PlatformReviews].Count != 1 {
		t.Errorf("reviews bucket count = %d, want 1 after dedup", corpus.Buckets[model.PlatformReviews].Count)
	}
	if corpus.TotalSources != 2 {
		t.Errorf("TotalSources = %d, want 2", corpus.TotalSources)
	}
}

func TestDedupeAcross_Idempotent(t *testing.T) {
	shared := "https://example.com/shared"
	corpus := Aggregate(
		forumResult(shared, "https://reddit.com/a"),
		webResult(model.PlatformBlogs, shared, "https://medium.com/a"),
		"Acme", "7 days")

	before := corpus.TotalSources
	dedupeAcross(corpus.Buckets)

	after := 0
	for _, p := range model.PlatformOrder {
		after += corpus.Buckets[p].Count
	}
	if before != after {
		t.Errorf("dedup not idempotent: first pass total %d, second pass total %d", before, after)
	}
}

func TestAggregate_EmptyCorpusStillRendersHeader(t *testing.T) {
	corpus := Aggregate(model.SourceResult{}, model.SourceResult{}, "Acme", "24 hours")

	if corpus.DataSourceStatus != model.StatusFallback {
		t.Errorf("status = %s, want fallback", corpus.DataSourceStatus)
	}
	if !strings.Contains(corpus.PromptBody, "Total sources: 0") {
		t.Errorf("empty corpus must keep the header structure:\n%s", corpus.PromptBody)
	}
	if !strings.Contains(corpus.PromptBody, "- reddit: 0") {
		t.Errorf("empty corpus must keep the per-platform breakdown:\n%s", corpus.PromptBody)
	}
}

func TestAggregate_PromptBodyEmbedsSections(t *testing.T) {
	corpus := Aggregate(
		forumResult("https://reddit.com/a"),
		webResult(model.PlatformReviews, "https://g2.com/a"),
		"Acme", "7 days")

	if !strings.Contains(corpus.PromptBody, "Reddit Discussions (rendered)") {
		t.Errorf("prompt body missing forum section:\n%s", corpus.PromptBody)
	}
	if !strings.Contains(corpus.PromptBody, "reviews (rendered)") {
		t.Errorf("prompt body missing reviews section:\n%s", corpus.PromptBody)
	}
	if !strings.Contains(corpus.PromptBody, "cite only URLs") {
		t.Errorf("prompt body missing citation instruction:\n%s", corpus.PromptBody)
	}
}
