package report

import (
	"strings"
	"time"
)

// sanitizeFilename replaces dots and special characters for safe filenames
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		".", "_",
		":", "_",
		"/", "_",
		"\\", "_",
		" ", "_",
	)
	return replacer.Replace(s)
}

// hourLayout is the format produced by strftime('%Y-%m-%d %H:00:00', ...)
const hourLayout = "2006-01-02 15:04:05"

func parseHour(s string) (time.Time, bool) {
	t, err := time.Parse(hourLayout, s)
	return t, err == nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
