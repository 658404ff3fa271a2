package engine

import (
	"strings"
	"testing"
)

const wellFormedReply = `📊 **Sentiment Summary**
• Overall positive sentiment at 72% (source: reddit.com/r/technology)
• Neutral discussion around pricing (source: g2.com)
• Minor negativity on support wait times (source: trustpilot.com)

✅ **Positive Highlights**
• Users praise the onboarding flow (source: reddit.com)
• Reviewers highlight reliability (source: g2.com)
• Strong word of mouth among developers (source: medium.com)

⚠️ **Negative Concerns**
• Support response times slipped this week (source: trustpilot.com)
• Some confusion around the new pricing tiers (source: reddit.com)
• A few churn mentions citing missing integrations (source: g2.com)

🔥 **Trending Topics**
• The v3 API launch dominates discussion (source: reddit.com)
• Comparison threads against legacy tools (source: medium.com)
• Onboarding tutorials being shared widely (source: twitter.com)

🏆 **Competitive Insights**
• Competitor X mentioned in 30% of threads (source: reddit.com)
• Reviewers rate Acme above category average (source: g2.com)
• Pricing seen as more transparent than rivals (source: trustpilot.com)`

func TestParse_WellFormedReply(t *testing.T) {
	res := Parse(wellFormedReply)

	fields := map[string]string{
		"sentiment":   res.SentimentSummary,
		"positive":    res.PositiveHighlights,
		"concerns":    res.NegativeConcerns,
		"trending":    res.TrendingTopics,
		"competitive": res.CompetitiveInsights,
	}
	for name, v := range fields {
		if v == "" {
			t.Errorf("section %q is empty", name)
		}
		if strings.Contains(v, "**") {
			t.Errorf("section %q still contains a header marker: %q", name, v)
		}
	}

	if res.FullReport != wellFormedReply {
		t.Error("FullReport must be the raw input verbatim")
	}
	if !strings.Contains(res.SentimentSummary, "72%") {
		t.Errorf("sentiment capture wrong: %q", res.SentimentSummary)
	}
	if !res.HasCriticalIssues {
		t.Error("non-empty concerns without negative-result phrases must flag critical issues")
	}
}

func TestParse_OrderIndependent(t *testing.T) {
	// 模型不保证按指示顺序输出分节
	shuffled := `🏆 **Competitive Insights**
• Ahead of rivals (source: g2.com)

📊 **Sentiment Summary**
• Mostly positive (source: reddit.com)

🔥 **Trending Topics**
• Launch buzz (source: twitter.com)`

	res := Parse(shuffled)
	if !strings.Contains(res.SentimentSummary, "Mostly positive") {
		t.Errorf("sentiment = %q", res.SentimentSummary)
	}
	if !strings.Contains(res.CompetitiveInsights, "Ahead of rivals") {
		t.Errorf("competitive = %q", res.CompetitiveInsights)
	}
	if !strings.Contains(res.TrendingTopics, "Launch buzz") {
		t.Errorf("trending = %q", res.TrendingTopics)
	}
	if res.PositiveHighlights != "" {
		t.Errorf("missing section must stay empty, got %q", res.PositiveHighlights)
	}
}

func TestParse_CriticalIssueDetection(t *testing.T) {
	cases := []struct {
		concerns string
		want     bool
	}{
		{"• No critical concerns identified (source: review)", false},
		{"• no significant concerns this week (source: reddit)", false},
		{"• No Critical Issues found (source: g2.com)", false},
		{"• CRITICAL: pricing backlash (source: g2.com)", true},
		{"• Users report data loss (source: reddit.com)", true},
	}

	for _, c := range cases {
		raw := "⚠️ **Negative Concerns**\n" + c.concerns
		res := Parse(raw)
		if res.HasCriticalIssues != c.want {
			t.Errorf("Parse(%q).HasCriticalIssues = %v, want %v", c.concerns, res.HasCriticalIssues, c.want)
		}
	}
}

func TestParse_EmptyConcernsNotCritical(t *testing.T) {
	res := Parse("📊 **Sentiment Summary**\n• fine (source: x)")
	if res.HasCriticalIssues {
		t.Error("absent concerns section must not flag critical issues")
	}
}

// 结构性解析失败不按严重问题处理，而解析出的真实负面内容才标记严重——
// 这是沿用的既有行为，参见 DESIGN.md。
func TestParse_MalformedReply(t *testing.T) {
	raw := "The brand seems to be doing fine overall, nothing structured here."
	res := Parse(raw)

	if res.HasCriticalIssues {
		t.Error("structural parse failure must not flag critical issues")
	}
	if res.FullReport != raw {
		t.Error("FullReport must keep the raw reply unchanged")
	}
	if res.SentimentSummary == "" || !strings.Contains(res.SentimentSummary, "Could not extract") {
		t.Errorf("sentiment must carry a generic extraction-failure message, got %q", res.SentimentSummary)
	}
	if res.NegativeConcerns == "" {
		t.Error("concerns must carry a generic extraction-failure message")
	}
}
