package formatter

import (
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/sweep"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func tildes(n int) string { return strings.Repeat("~", n) }

func TestGenerateFormattedIssue(t *testing.T) {
	t.Parallel()
	code := NewSourceCode([]byte(`package main

func main() {
    if client.BoolVariation("k", ctx, false) {
        run()
    }
}
`))

	issues := []tt.Issue{
		{
			Rule:     tt.RuleFindFlag,
			Filename: "test.go",
			Start:    token.Position{Line: 4, Column: 8},
			End:      token.Position{Line: 4, Column: 45},
			Message:  `feature flag "k"`,
			Severity: tt.SeverityInfo,
		},
		{
			Rule:     tt.RuleRemoveFlag,
			Filename: "test.go",
			Start:    token.Position{Line: 4, Column: 8},
			End:      token.Position{Line: 4, Column: 45},
			Message:  `feature flag "k" replaced by true`,
			Severity: tt.SeverityInfo,
		},
	}

	expected := `info: find-feature-flag
 --> test.go:4:8
  |
4 | if client.BoolVariation("k", ctx, false) {
  |    ` + tildes(37) + `
  = feature flag "k"

info: remove-feature-flag
 --> test.go:4:8
  |
4 | if client.BoolVariation("k", ctx, false) {
  |    ` + tildes(37) + `
  = feature flag "k" replaced by true
  = rewritten by remove-feature-flag

`

	assert.Equal(t, expected, GenerateFormattedIssue(issues, code))
}

func TestGenerateFormattedIssueMultiline(t *testing.T) {
	t.Parallel()
	code := &SourceCode{
		Lines: []string{
			"package main",
			"",
			"func main() {",
			"\tctx := builder().",
			"\t\tmark(\"a\").",
			"\t\tbuild()",
			"}",
		},
	}

	issue := tt.Issue{
		Rule:       tt.RuleMergeChain,
		Filename:   "test.go",
		Start:      token.Position{Line: 4, Column: 9},
		End:        token.Position{Line: 6, Column: 10},
		Message:    "merged 2 chained calls into one",
		Suggestion: "check the chain",
		Severity:   tt.SeverityWarning,
	}

	expected := `warning: merge-chain
 --> test.go:4:9
  |
4 | ctx := builder().
5 | 	mark("a").
6 | 	build()
  |        ` + tildes(10) + `
  = merged 2 chained calls into one
  = rewritten by merge-chain to check the chain

`
	assert.Equal(t, expected, GenerateFormattedIssue([]tt.Issue{issue}, code))

	// the general formatter prints the suggestion
	general := buildIssue(issue, code, generalTemplate)
	assert.Contains(t, general, "Suggestion:\n  |\n4 | check the chain\n  |\n")
}

func TestInvalidLineRange(t *testing.T) {
	t.Parallel()

	issue := tt.Issue{
		Rule:     tt.RuleFindFlag,
		Filename: "gone.go",
		Start:    token.Position{Line: 40, Column: 1},
		End:      token.Position{Line: 40, Column: 5},
		Message:  "feature flag call",
	}
	out := GenerateFormattedIssue([]tt.Issue{issue}, &SourceCode{Lines: []string{"package x"}})
	assert.Equal(t, "info: find-feature-flag\n  --> gone.go:40:1\n   |\n   | feature flag call\n\n", out)
}

func TestFormatComplexity(t *testing.T) {
	t.Parallel()

	out := FormatComplexity("app.go", []sweep.ComplexityChange{
		{Func: "Run", Before: 3, After: 1},
		{Func: "helper", Before: 2},
	})
	assert.Equal(t, "complexity: app.go\n  | Run: 3 -> 1\n  | helper: 2 -> removed\n", out)
	assert.Empty(t, FormatComplexity("app.go", nil))
}

func TestFormatDiff(t *testing.T) {
	t.Parallel()

	diff := "--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-a\n+b\n"
	assert.Equal(t, diff, FormatDiff(diff))
}

func TestCalculateVisualColumn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, calculateVisualColumn("\tx", 1))
	assert.Equal(t, 8, calculateVisualColumn("\tx", 2))
	assert.Equal(t, 3, calculateVisualColumn("abcd", 4))
	assert.Equal(t, "\t", findCommonIndent([]string{"\tx", "\t\ty", ""}))
}
