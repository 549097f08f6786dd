package sweep

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"sort"

	"github.com/fzipp/gocyclo"
	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders the change of r as a unified diff. Unchanged results give
// an empty string.
func Diff(r Result) (string, error) {
	if !r.Changed() {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(r.Original)),
		B:        difflib.SplitLines(string(r.Rewritten)),
		FromFile: "a/" + r.Filename,
		ToFile:   "b/" + r.Filename,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// Write stores the rewritten sources of changed results, keeping file
// permissions.
func Write(results []Result) error {
	for _, r := range results {
		if !r.Changed() {
			continue
		}
		info, err := os.Stat(r.Filename)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", r.Filename, err)
		}
		if err := os.WriteFile(r.Filename, r.Rewritten, info.Mode().Perm()); err != nil {
			return fmt.Errorf("error writing %s: %w", r.Filename, err)
		}
	}
	return nil
}

// ComplexityChange is the cyclomatic complexity of one function before
// and after the rewrite. After is 0 for removed functions.
type ComplexityChange struct {
	Func   string
	Before int
	After  int
}

// Complexity compares the cyclomatic complexity of the functions of r.
// Functions whose complexity did not change are omitted.
func Complexity(r Result) ([]ComplexityChange, error) {
	if !r.Changed() {
		return nil, nil
	}
	before, err := complexities(r.Filename, r.Original)
	if err != nil {
		return nil, err
	}
	after, err := complexities(r.Filename, r.Rewritten)
	if err != nil {
		return nil, err
	}

	var changes []ComplexityChange
	for name, b := range before {
		if a := after[name]; a != b {
			changes = append(changes, ComplexityChange{Func: name, Before: b, After: a})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Func < changes[j].Func })
	return changes, nil
}

func complexities(filename string, src []byte) (map[string]int, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, stat := range gocyclo.AnalyzeASTFile(f, fset, nil) {
		out[stat.FuncName] = stat.Complexity
	}
	return out, nil
}
