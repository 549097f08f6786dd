package formatter

import (
	"strings"

	"github.com/fatih/color"
)

var (
	addStyle  = color.New(color.FgGreen)
	delStyle  = color.New(color.FgRed)
	hunkStyle = color.New(color.FgCyan)
)

// FormatDiff colors a unified diff.
func FormatDiff(diff string) string {
	var builder strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			builder.WriteString(fileStyle.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			builder.WriteString(hunkStyle.Sprint(line))
		case strings.HasPrefix(line, "+"):
			builder.WriteString(addStyle.Sprint(line))
		case strings.HasPrefix(line, "-"):
			builder.WriteString(delStyle.Sprint(line))
		default:
			builder.WriteString(line)
		}
	}
	return builder.String()
}
