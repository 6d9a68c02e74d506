package application

import "strings"

var timeOfDayLabels = [4]string{
	"In the morning hours after waking up",
	"During work hours",
	"After work and in the evening",
	"During the late evening before sleep",
}

const timePolicyHeading = "Additionally the user has wishes for these specific times:"

// CompileTimePolicy turns the four severity factors into restriction
// statements in morning, work, evening, before-bed order. Factors of 0 to 3
// and values outside 0 to 10 produce nothing.
func CompileTimePolicy(factors TimeFactors) []string {
	var statements []string
	for i, factor := range factors.values() {
		label := timeOfDayLabels[i]
		switch {
		case factor >= 4 && factor <= 6:
			statements = append(statements, label+": The user wants to reduce their usage during this period.")
		case factor == 7 || factor == 8:
			statements = append(statements, label+": The user should only use the apps for a good or meaningful reason.")
		case factor == 9 || factor == 10:
			statements = append(statements, label+": Usage should generally not be allowed at this time. Only Emergencies.")
		}
	}
	return statements
}

// RenderTimePolicy renders compiled statements under a heading. It returns
// the empty string when there are no statements.
func RenderTimePolicy(statements []string) string {
	if len(statements) == 0 {
		return ""
	}
	return timePolicyHeading + "\n" + strings.Join(statements, "\n")
}
