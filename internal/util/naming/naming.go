package naming

import (
	"fmt"
	"strings"
	"time"
)

// Group returns the Farm group (lease) name for a run started at now on host.
// Dots in the host name are replaced so the name stays a single URL path segment.
func Group(prefix, host string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", prefix, sanitize(host), now.Unix())
}

// VM returns the name of the index-th VM in a fleet.
func VM(base string, index int) string {
	return fmt.Sprintf("%s%d", base, index)
}

// LogFile returns the run log file name for the given day.
func LogFile(day time.Time) string {
	return fmt.Sprintf("smoke_test_%s.log", day.Format("2006_01_02"))
}

// Abbreviation returns the short label used for a hostname in matrix headers.
func Abbreviation(hostname string) string {
	runes := []rune(hostname)
	if len(runes) <= 3 {
		return hostname
	}
	return string(runes[:3])
}

func sanitize(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "-", "/", "-", " ", "-").Replace(host)
}
