package formatter

// rewriteIssueTemplate renders issues of recipes that changed the code.
// The snippet shows the source before the rewrite.
const rewriteIssueTemplate = `{{header .Issue .MaxLineNumWidth -}}
{{snippet . -}}
{{underlineAndMessage . -}}
{{rewritten . -}}
{{note .Note}}
`

func rewritten(data IssueData) string {
	s := lineStyle.Sprintf("%s= ", data.Padding)
	if data.Suggestion == "" {
		return s + suggestionStyle.Sprintf("rewritten by %s\n", data.Rule)
	}
	return s + suggestionStyle.Sprintf("rewritten by %s to %s\n", data.Rule, data.Suggestion)
}
