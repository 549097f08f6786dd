package formatter

// generalIssueTemplate renders findings: the snippet, the underline and
// an optional suggestion.
const generalIssueTemplate = `{{header .Issue .MaxLineNumWidth -}}
{{snippet . -}}
{{underlineAndMessage . -}}
{{suggestion . -}}
{{note .Note}}
`
