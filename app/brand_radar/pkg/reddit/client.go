package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenURL  = "https://www.reddit.com/api/v1/access_token"
	searchURL = "https://oauth.reddit.com/r/%s/search"
)

// Post 单条 Reddit 帖子
type Post struct {
	Title       string
	SelfText    string
	Permalink   string
	Score       int
	NumComments int
	Subreddit   string
	Author      string
	CreatedUTC  float64
}

// SearchOptions 子版块搜索参数
type SearchOptions struct {
	// TimeFilter 取值 hour/day/week/month/year/all
	TimeFilter string
	Limit      int
}

// Searcher Reddit 搜索接口，便于测试注入
type Searcher interface {
	SearchSubreddit(ctx context.Context, subreddit, query string, opts SearchOptions) ([]Post, error)
}

// Client Reddit API 客户端，使用 OAuth2 client_credentials 授权
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient 创建 Reddit 客户端。凭证缺失不在此处校验，首次请求时返回错误。
func NewClient(clientID, clientSecret, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "brand_radar/1.0"
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Ensure Client implements Searcher
var _ Searcher = (*Client)(nil)

// token 返回有效的访问令牌，必要时重新获取
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("reddit credentials are missing")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request failed: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read token body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit token error (status %d): %s", res.StatusCode, string(body))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("unmarshal token response failed: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("reddit token response missing access_token")
	}

	c.accessToken = tr.AccessToken
	// 提前 1 分钟过期，避免临界请求 401
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// listing Reddit 搜索响应的外层结构
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Subreddit   string  `json:"subreddit"`
				Author      string  `json:"author"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SearchSubreddit 在单个子版块内搜索
func (c *Client) SearchSubreddit(ctx context.Context, subreddit, query string, opts SearchOptions) ([]Post, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if opts.TimeFilter == "" {
		opts.TimeFilter = "week"
	}
	if opts.Limit == 0 {
		opts.Limit = 25
	}

	u := fmt.Sprintf(searchURL, url.PathEscape(subreddit))
	q := url.Values{}
	q.Set("q", query)
	q.Set("restrict_sr", "1")
	q.Set("sort", "top")
	q.Set("t", opts.TimeFilter)
	q.Set("limit", fmt.Sprintf("%d", opts.Limit))

	req, err := http.NewRequestWithContext(ctx, "GET", u+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("reddit api error (status %d): %s", res.StatusCode, string(body))
	}

	var lst listing
	if err := json.NewDecoder(res.Body).Decode(&lst); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	posts := make([]Post, 0, len(lst.Data.Children))
	for _, child := range lst.Data.Children {
		d := child.Data
		posts = append(posts, Post{
			Title:       d.Title,
			SelfText:    d.SelfText,
			Permalink:   "https://reddit.com" + d.Permalink,
			Score:       d.Score,
			NumComments: d.NumComments,
			Subreddit:   d.Subreddit,
			Author:      d.Author,
			CreatedUTC:  d.CreatedUTC,
		})
	}
	return posts, nil
}
