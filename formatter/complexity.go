package formatter

import (
	"strings"

	"github.com/gnolang/flagsweep/sweep"
)

// FormatComplexity renders the cyclomatic complexity changes of one file.
func FormatComplexity(filename string, changes []sweep.ComplexityChange) string {
	if len(changes) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(ruleStyle.Sprint("complexity: "))
	builder.WriteString(fileStyle.Sprintf("%s\n", filename))
	for _, c := range changes {
		builder.WriteString(lineStyle.Sprint("  | "))
		if c.After == 0 {
			builder.WriteString(suggestionStyle.Sprintf("%s: %d -> removed\n", c.Func, c.Before))
			continue
		}
		style := suggestionStyle
		if c.After > c.Before {
			style = messageStyle
		}
		builder.WriteString(style.Sprintf("%s: %d -> %d\n", c.Func, c.Before, c.After))
	}
	return builder.String()
}
