package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/flagsweep/internal/finder"
	tt "github.com/gnolang/flagsweep/internal/types"
	"github.com/gnolang/flagsweep/sweep"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const (
	goMod = "module example.com/app\n\ngo 1.22\n"

	clientSrc = `package app

type Client struct{}

func (c *Client) BoolVariation(key string, def bool) bool { return def }
`

	appSrc = `package app

func Run(c *Client) string {
	if c.BoolVariation("new-flow", false) {
		return "new"
	}
	return "old"
}
`

	builderSrc = `package app

type Builder struct{ marks []string }

func builder() *Builder { return &Builder{} }

func (b *Builder) mark(name string) *Builder       { b.marks = append(b.marks, name); return b }
func (b *Builder) markAll(names ...string) *Builder { b.marks = append(b.marks, names...); return b }
func (b *Builder) build() []string                  { return b.marks }

func Marks() []string {
	return builder().mark("a").mark("b").build()
}
`

	flagPattern = "example.com/app.Client BoolVariation(string, bool)"
)

// writeModule creates a module holding files and returns its directory.
func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["go.mod"] = goMod
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// resetFlags restores every flag to its default so commands can run more
// than once in a test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), sweep.DefaultConfigPath)

	out, err := execute(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created: "+path)

	config, err := sweep.ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, sweep.DefaultConfig(), config)

	_, err = execute(t, "init", "--config", path)
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	t.Run("dry run", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})

		out, err := execute(t, "remove", "--dir", dir, "--pattern", flagPattern,
			"--key", "new-flow", "--value", "true", "--dry-run", "--diff", "--complexity")
		require.NoError(t, err)

		assert.Contains(t, out, "info: "+tt.RuleRemoveFlag)
		assert.Contains(t, out, `feature flag "new-flow" replaced by true`)
		assert.Contains(t, out, `-	if c.BoolVariation("new-flow", false) {`)
		assert.Contains(t, out, "Run: 2 -> 1")
		assert.Equal(t, appSrc, readFile(t, filepath.Join(dir, "app.go")))
	})

	t.Run("writes files", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})

		_, err := execute(t, "remove", "--dir", dir, "--pattern", flagPattern, "--key", "new-flow", "--value", "false")
		require.NoError(t, err)

		got := readFile(t, filepath.Join(dir, "app.go"))
		assert.NotContains(t, got, "BoolVariation")
		assert.NotContains(t, got, `"new"`)
		assert.Contains(t, got, `return "old"`)
		assert.Equal(t, clientSrc, readFile(t, filepath.Join(dir, "client.go")))
	})

	t.Run("key is required", func(t *testing.T) {
		_, err := execute(t, "remove", "--pattern", flagPattern)
		assert.Error(t, err)
	})

	t.Run("unknown preset", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})
		_, err := execute(t, "remove", "--dir", dir, "--preset", "nope", "--key", "new-flow")
		assert.Error(t, err)
	})
}

func TestFind(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})

		out, err := execute(t, "find", "--dir", dir, "--pattern", flagPattern, "--json")
		require.NoError(t, err)

		var issuesByFile map[string][]tt.Issue
		require.NoError(t, json.Unmarshal([]byte(out), &issuesByFile))
		require.Len(t, issuesByFile, 1)
		for filename, issues := range issuesByFile {
			assert.Equal(t, "app.go", filepath.Base(filename))
			require.Len(t, issues, 1)
			assert.Equal(t, tt.RuleFindFlag, issues[0].Rule)
			assert.Equal(t, 4, issues[0].Start.Line)
		}
		assert.Equal(t, appSrc, readFile(t, filepath.Join(dir, "app.go")))
	})

	t.Run("annotate", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})

		out, err := execute(t, "find", "--dir", dir, "--pattern", flagPattern, "--key", "new-flow", "--annotate")
		require.NoError(t, err)
		assert.Contains(t, out, tt.RuleFindFlag)

		got := readFile(t, filepath.Join(dir, "app.go"))
		assert.Contains(t, got, "if "+finder.Marker+`c.BoolVariation("new-flow", false) {`)
		assert.Equal(t, 1, strings.Count(got, finder.Marker))
	})

	t.Run("other key", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})

		out, err := execute(t, "find", "--dir", dir, "--pattern", flagPattern, "--key", "other")
		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(out))
	})
}

func TestDefault(t *testing.T) {
	t.Run("writes files", func(t *testing.T) {
		dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})

		out, err := execute(t, "default", "--dir", dir, "--pattern", flagPattern, "--key", "new-flow", "--value", "true")
		require.NoError(t, err)
		assert.Contains(t, out, tt.RuleChangeDefault)
		assert.Contains(t, readFile(t, filepath.Join(dir, "app.go")), `if c.BoolVariation("new-flow", true) {`)
	})

	t.Run("value is required", func(t *testing.T) {
		_, err := execute(t, "default", "--pattern", flagPattern, "--key", "new-flow")
		assert.Error(t, err)
	})
}

func TestMerge(t *testing.T) {
	dir := writeModule(t, map[string]string{"builder.go": builderSrc})

	out, err := execute(t, "merge", "--dir", dir,
		"--terminal", "example.com/app.Builder build()",
		"--target", "example.com/app.Builder mark(string)",
		"--merged-name", "markAll")
	require.NoError(t, err)
	assert.Contains(t, out, tt.RuleMergeChain)
	assert.Contains(t, readFile(t, filepath.Join(dir, "builder.go")), `builder().markAll("a", "b").build()`)
}

func TestRun(t *testing.T) {
	dir := writeModule(t, map[string]string{"client.go": clientSrc, "app.go": appSrc})
	path := filepath.Join(dir, sweep.DefaultConfigPath)
	require.NoError(t, sweep.WriteConfig(path, sweep.Config{
		Name: "cleanup",
		Recipes: []sweep.RecipeConfig{{
			Type:     sweep.RecipeRemoveFlag,
			Patterns: []string{flagPattern},
			Key:      "new-flow",
			Kind:     "bool",
			Value:    "true",
		}},
	}))

	_, err := execute(t, "run", "--config", path, "--dir", dir)
	require.NoError(t, err)

	got := readFile(t, filepath.Join(dir, "app.go"))
	assert.Contains(t, got, `return "new"`)
	assert.NotContains(t, got, `return "old"`)

	_, err = execute(t, "run", "--config", filepath.Join(dir, "missing.yaml"), "--dir", dir)
	assert.Error(t, err)
}

func TestReportJSONToFile(t *testing.T) {
	results := []sweep.Result{
		{Filename: "b.go", Issues: []tt.Issue{{Rule: tt.RuleFindFlag, Filename: "b.go"}}},
		{Filename: "a.go"},
	}
	outPath := filepath.Join(t.TempDir(), "issues.json")

	var buf bytes.Buffer
	err := report(&buf, nil, results, outputOptions{dryRun: true, json: true, outPath: outPath})
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	var issuesByFile map[string][]tt.Issue
	require.NoError(t, json.Unmarshal([]byte(readFile(t, outPath)), &issuesByFile))
	assert.Len(t, issuesByFile, 1)
	assert.Len(t, issuesByFile["b.go"], 1)
}
