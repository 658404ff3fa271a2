package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/logger"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/reddit"
)

const (
	// maxForumPosts 按热度排序后保留的帖子上限
	maxForumPosts = 20
	// perSubredditLimit 单个子版块的请求条数
	perSubredditLimit = 25

	deletedAuthor   = "[deleted]"
	removedSentinel = "[removed]"
)

// defaultSubreddits 未配置时的目标子版块
var defaultSubreddits = []string{"technology", "software", "startups", "SaaS", "smallbusiness", "webdev"}

// ForumAdapter Reddit 数据源适配器。Fetch 永不向上抛错：
// 任何传输或凭证问题都转换为空结果加状态说明。
type ForumAdapter struct {
	client     reddit.Searcher
	subreddits []string
}

// NewForumAdapter 创建论坛适配器，subreddits 为空时使用默认列表
func NewForumAdapter(client reddit.Searcher, subreddits []string) *ForumAdapter {
	if len(subreddits) == 0 {
		subreddits = defaultSubreddits
	}
	return &ForumAdapter{client: client, subreddits: subreddits}
}

// Fetch 抓取品牌相关的 Reddit 讨论
func (a *ForumAdapter) Fetch(ctx context.Context, brand, timeWindow string) model.SourceResult {
	if a.client == nil {
		return forumUnavailable("Reddit data unavailable: client not configured")
	}

	tf := MapTimeFilter(timeWindow)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var all []reddit.Post

	// 每个子版块独立搜索，单个失败只记日志，不影响其它子版块
	for _, sub := range a.subreddits {
		wg.Add(1)
		go func(sub string) {
			defer wg.Done()
			posts, err := a.client.SearchSubreddit(ctx, sub, brand, reddit.SearchOptions{
				TimeFilter: tf,
				Limit:      perSubredditLimit,
			})
			if err != nil {
				logger.Log.Warnf("搜索子版块失败 [r/%s]: %v", sub, err)
				return
			}
			mu.Lock()
			all = append(all, posts...)
			mu.Unlock()
		}(sub)
	}
	wg.Wait()

	ranked := rankForumPosts(all, brand)
	if len(ranked) == 0 {
		return forumUnavailable(fmt.Sprintf("Reddit data unavailable: no matching discussions for %q in the selected window", brand))
	}

	mentions := make([]model.Mention, 0, len(ranked))
	for _, p := range ranked {
		mentions = append(mentions, p.Mention)
	}

	text := renderForumPosts(ranked)
	return model.SourceResult{
		Mentions:     mentions,
		RenderedText: text,
		Sections:     map[model.Platform]string{model.PlatformReddit: text},
	}
}

// rankForumPosts 过滤无效帖子并按互动热度降序排列，截断到上限
func rankForumPosts(posts []reddit.Post, brand string) []model.ForumPost {
	lowBrand := strings.ToLower(brand)
	seen := make(map[string]bool)

	var kept []model.ForumPost
	for _, p := range posts {
		if seen[p.Permalink] {
			continue
		}
		if p.Author == deletedAuthor {
			continue
		}
		if strings.Contains(p.Title, removedSentinel) {
			continue
		}
		// 标题或正文必须包含品牌名（不区分大小写）
		if !strings.Contains(strings.ToLower(p.Title), lowBrand) &&
			!strings.Contains(strings.ToLower(p.SelfText), lowBrand) {
			continue
		}
		// 几乎无互动的帖子没有分析价值
		if p.Score < 1 && p.NumComments == 0 {
			continue
		}
		seen[p.Permalink] = true

		kept = append(kept, model.ForumPost{
			Mention: model.Mention{
				Title:       p.Title,
				URL:         p.Permalink,
				Snippet:     p.SelfText,
				PublishedAt: time.Unix(int64(p.CreatedUTC), 0).UTC().Format(time.DateOnly),
				Platform:    model.PlatformReddit,
			},
			Score:        p.Score,
			CommentCount: p.NumComments,
			Subreddit:    p.Subreddit,
			Author:       p.Author,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Engagement() > kept[j].Engagement()
	})
	if len(kept) > maxForumPosts {
		kept = kept[:maxForumPosts]
	}
	return kept
}

// renderForumPosts 论坛帖子的文本渲染，额外带上互动数据供模型参考
func renderForumPosts(posts []model.ForumPost) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reddit Discussions (%d posts):\n", len(posts))
	for i, p := range posts {
		fmt.Fprintf(&sb, "%d. [r/%s] %s (score: %d, comments: %d)\n   URL: %s\n",
			i+1, p.Subreddit, p.Title, p.Score, p.CommentCount, p.URL)
		if s := truncate(p.Snippet, snippetLimit); s != "" {
			fmt.Fprintf(&sb, "   %s\n", s)
		}
	}
	return sb.String()
}

func forumUnavailable(status string) model.SourceResult {
	return model.SourceResult{
		RenderedText: status,
		Sections:     map[model.Platform]string{},
	}
}
