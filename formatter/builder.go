package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/fatih/color"

	tt "github.com/gnolang/flagsweep/internal/types"
)

const tabWidth = 8

var (
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)

	severityStyles = map[tt.Severity]*color.Color{
		tt.SeverityError:   color.New(color.FgRed, color.Bold),
		tt.SeverityWarning: color.New(color.FgHiYellow, color.Bold),
		tt.SeverityInfo:    color.New(color.FgHiGreen, color.Bold),
	}
)

var funcMap = template.FuncMap{
	"header":              header,
	"suggestion":          suggestion,
	"note":                note,
	"snippet":             codeSnippet,
	"underlineAndMessage": underlineAndMessage,
	"rewritten":           rewritten,
}

var (
	generalTemplate = template.Must(template.New("general").Funcs(funcMap).Parse(generalIssueTemplate))
	rewriteTemplate = template.Must(template.New("rewrite").Funcs(funcMap).Parse(rewriteIssueTemplate))
)

// templateFor returns the template issues of rule are rendered with.
func templateFor(rule string) *template.Template {
	switch rule {
	case tt.RuleRemoveFlag, tt.RuleChangeDefault, tt.RuleMergeChain:
		return rewriteTemplate
	default:
		return generalTemplate
	}
}

// GenerateFormattedIssue renders issues of one file against its source.
func GenerateFormattedIssue(issues []tt.Issue, snippet *SourceCode) string {
	var builder strings.Builder
	for _, issue := range issues {
		builder.WriteString(buildIssue(issue, snippet, templateFor(issue.Rule)))
	}
	return builder.String()
}

// IssueData is what the issue templates are executed with.
type IssueData struct {
	tt.Issue
	StartLine       int
	EndLine         int
	MaxLineNumWidth int
	Padding         string
	SnippetLines    []string
	CommonIndent    string
}

func buildIssue(issue tt.Issue, snippet *SourceCode, tmpl *template.Template) string {
	data := IssueData{
		Issue:        issue,
		StartLine:    issue.Start.Line,
		EndLine:      max(issue.End.Line, issue.Start.Line),
		SnippetLines: snippet.Lines,
	}
	data.MaxLineNumWidth = len(strconv.Itoa(data.EndLine))
	data.Padding = strings.Repeat(" ", data.MaxLineNumWidth+1)
	if isValidLineRange(data.StartLine, data.EndLine, snippet.Lines) {
		data.CommonIndent = findCommonIndent(snippet.Lines[data.StartLine-1 : data.EndLine])
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v", err)
	}
	return buf.String()
}

// template helpers

func header(issue tt.Issue, maxLineNumWidth int) string {
	style, ok := severityStyles[issue.Severity]
	if !ok {
		style = severityStyles[tt.SeverityInfo]
	}

	var b strings.Builder
	b.WriteString(style.Sprintf("%s: ", strings.ToLower(issue.Severity.String())))
	b.WriteString(ruleStyle.Sprintf("%s\n", issue.Rule))
	b.WriteString(lineStyle.Sprintf("%s--> ", strings.Repeat(" ", maxLineNumWidth)))
	b.WriteString(fileStyle.Sprintf("%s:%d:%d\n", issue.Filename, issue.Start.Line, issue.Start.Column))
	return b.String()
}

func codeSnippet(data IssueData) string {
	var b strings.Builder
	b.WriteString(lineStyle.Sprintf("%s|\n", data.Padding))
	for i := data.StartLine; i <= data.EndLine; i++ {
		if i < 1 || i > len(data.SnippetLines) {
			continue
		}
		line := strings.TrimPrefix(data.SnippetLines[i-1], data.CommonIndent)
		b.WriteString(lineStyle.Sprintf("%*d | ", data.MaxLineNumWidth, i))
		b.WriteString(line + "\n")
	}
	return b.String()
}

// underlineAndMessage marks the issue on its first line. Issues spanning
// several lines are underlined up to the end of that line.
func underlineAndMessage(data IssueData) string {
	var b strings.Builder
	b.WriteString(lineStyle.Sprintf("%s| ", data.Padding))

	if !isValidLineRange(data.StartLine, data.EndLine, data.SnippetLines) {
		b.WriteString(messageStyle.Sprintf("%s\n", data.Message))
		return b.String()
	}

	indent := calculateVisualColumn(data.CommonIndent, len(data.CommonIndent)+1)
	first := data.SnippetLines[data.StartLine-1]

	start := max(calculateVisualColumn(first, data.Start.Column)-indent, 0)
	// end columns point just past the issue
	end := calculateVisualColumn(first, len(first)+1) - indent
	if data.EndLine == data.StartLine {
		end = calculateVisualColumn(first, data.End.Column) - indent
	}

	b.WriteString(strings.Repeat(" ", start))
	b.WriteString(messageStyle.Sprintf("%s\n", strings.Repeat("~", max(end-start, 1))))
	b.WriteString(lineStyle.Sprintf("%s= ", data.Padding))
	b.WriteString(messageStyle.Sprintf("%s\n", data.Message))
	return b.String()
}

func suggestion(data IssueData) string {
	if data.Suggestion == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(suggestionStyle.Sprint("Suggestion:\n"))
	b.WriteString(lineStyle.Sprintf("%s|\n", data.Padding))
	for i, line := range strings.Split(data.Suggestion, "\n") {
		b.WriteString(lineStyle.Sprintf("%*d | ", data.MaxLineNumWidth, data.StartLine+i))
		b.WriteString(line + "\n")
	}
	b.WriteString(lineStyle.Sprintf("%s|\n", data.Padding))
	return b.String()
}

func note(note string) string {
	if note == "" {
		return ""
	}
	return suggestionStyle.Sprint("Note: ") + lineStyle.Sprintf("%s\n", note)
}

func isValidLineRange(startLine int, endLine int, snippetLines []string) bool {
	return startLine > 0 && startLine <= endLine && endLine <= len(snippetLines)
}

// calculateVisualColumn returns the width of line before the 1-based byte
// column, expanding tabs.
func calculateVisualColumn(line string, column int) int {
	visual := 0
	for i, ch := range line {
		if i+1 >= column {
			break
		}
		if ch == '\t' {
			visual += tabWidth - visual%tabWidth
		} else {
			visual++
		}
	}
	return visual
}

// findCommonIndent returns the leading whitespace shared by the non-blank
// lines.
func findCommonIndent(lines []string) string {
	indent, found := "", false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		lead := line[:len(line)-len(trimmed)]
		if !found {
			indent, found = lead, true
			continue
		}
		n := 0
		for n < len(indent) && n < len(lead) && indent[n] == lead[n] {
			n++
		}
		indent = indent[:n]
	}
	return indent
}
