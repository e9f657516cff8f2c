package ping

import (
	"regexp"
	"strconv"
)

var rttPatterns = []*regexp.Regexp{
	regexp.MustCompile(`round-trip min/avg/max(?:/stddev)? = [0-9.]+/([0-9.]+)/`),
	regexp.MustCompile(`rtt min/avg/max/mdev = [0-9.]+/([0-9.]+)/`),
	regexp.MustCompile(`Average = ([0-9]+)ms`),
	regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`),
}

// ParseRTT extracts a round-trip time in milliseconds from ping output.
// Summary lines win over individual replies. It returns 0 when nothing
// matches.
func ParseRTT(output string) float64 {
	// Linux:   "rtt min/avg/max/mdev = 0.030/0.041/0.052/0.009 ms"
	// macOS:   "round-trip min/avg/max/stddev = 44.347/44.347/44.347/0.000 ms"
	// Windows: "Minimum = 14ms, Maximum = 16ms, Average = 15ms"
	for _, re := range rttPatterns {
		matches := re.FindStringSubmatch(output)
		if len(matches) > 1 {
			if rtt, err := strconv.ParseFloat(matches[1], 64); err == nil {
				return rtt
			}
		}
	}

	return 0
}
