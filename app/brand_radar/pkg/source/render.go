package source

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/brand_radar/app/brand_radar/pkg/model"
)

const snippetLimit = 200

// RenderMentions 将一组记录渲染成纯文本块：标题行 + 逐条 "序号. 标题 / URL / 摘要"。
// 该文本原样嵌入 Prompt，序号从 1 开始。
func RenderMentions(header string, mentions []model.Mention) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d results):\n", header, len(mentions))
	for i, m := range mentions {
		fmt.Fprintf(&sb, "%d. %s\n   URL: %s\n", i+1, m.Title, m.URL)
		if s := truncate(m.Snippet, snippetLimit); s != "" {
			fmt.Fprintf(&sb, "   %s\n", s)
		}
	}
	return sb.String()
}

// truncate 按字符数截断并补省略号，避免把多字节字符截成半个
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
