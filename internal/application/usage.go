package application

import (
	"fmt"
	"strings"
)

// NoUsageSentinel is returned by NormalizeUsage when nothing matches.
const NoUsageSentinel = "No usage found for tracked apps."

// NormalizeUsage keeps the samples whose package identifier contains a
// tracked app name, case-insensitively, and renders one line per match in
// input order.
func NormalizeUsage(samples []UsageSample, trackedApps []string) string {
	var lines []string
	for _, sample := range samples {
		pkg := strings.ToLower(sample.PackageName)
		for _, app := range trackedApps {
			needle := strings.ToLower(strings.TrimSpace(app))
			if needle == "" || !strings.Contains(pkg, needle) {
				continue
			}
			lines = append(lines, fmt.Sprintf("App: %s - used time: %d min", app, sample.TotalMinutes))
		}
	}
	if len(lines) == 0 {
		return NoUsageSentinel
	}
	return strings.Join(lines, "\n")
}
