package source

import "strings"

// MapTimeFilter 将自由格式的时间窗口描述映射为 Reddit 风格的时间过滤器。
// 无法识别时默认按一周处理。
func MapTimeFilter(window string) string {
	w := strings.ToLower(window)
	switch {
	case strings.Contains(w, "24") || strings.Contains(w, "hour"):
		return "day"
	case strings.Contains(w, "7") || strings.Contains(w, "week"):
		return "week"
	case strings.Contains(w, "30") || strings.Contains(w, "month"):
		return "month"
	case strings.Contains(w, "year"):
		return "year"
	default:
		return "week"
	}
}

// windowDays 时间过滤器对应的回溯天数，用于计算搜索日期范围
func windowDays(filter string) int {
	switch filter {
	case "day":
		return 1
	case "week":
		return 7
	case "month":
		return 30
	case "year":
		return 365
	default:
		return 7
	}
}
