package finder

import (
	"flag"
	"fmt"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/matcher"
	"github.com/gnolang/flagsweep/internal/preset"
	"github.com/gnolang/flagsweep/internal/unit"
)

// Analyzer exposes f as a go/analysis analyzer so that vet-style drivers
// can report flag call sites.
func (f *Finder) Analyzer() *analysis.Analyzer {
	return &analysis.Analyzer{
		Name: "featureflag",
		Doc:  "reports feature flag evaluation calls",
		Run:  f.run,
	}
}

// NewAnalyzer returns an analyzer configured through its flags:
// -pattern (repeatable), -preset, -key and -kind.
func NewAnalyzer() *analysis.Analyzer {
	var (
		patterns patternList
		vendor   string
		key      string
		kind     string
	)
	a := &analysis.Analyzer{
		Name: "featureflag",
		Doc:  "reports feature flag evaluation calls",
	}
	a.Flags.Var(&patterns, "pattern", "call pattern of a flag evaluation method; may be repeated")
	a.Flags.StringVar(&vendor, "preset", "", "flag SDK whose evaluation calls to match")
	a.Flags.StringVar(&key, "key", "", "only report calls whose key may be this")
	a.Flags.StringVar(&kind, "kind", "", "only report calls returning bool, string, int or float")
	a.Run = func(pass *analysis.Pass) (interface{}, error) {
		k, err := literal.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		ps, err := patterns.parse(vendor, k)
		if err != nil {
			return nil, err
		}
		f, err := New(Options{Patterns: ps, Key: key, Kind: k})
		if err != nil {
			return nil, err
		}
		return f.run(pass)
	}
	return a
}

type patternList []string

var _ flag.Value = (*patternList)(nil)

func (l *patternList) String() string { return strings.Join(*l, "; ") }

func (l *patternList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func (l patternList) parse(vendor string, kind literal.Kind) ([]*matcher.Pattern, error) {
	out := make([]*matcher.Pattern, 0, len(l))
	for _, s := range l {
		p, err := matcher.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", s, err)
		}
		out = append(out, p)
	}
	if vendor != "" {
		p, err := preset.Detect(vendor, nil)
		if err != nil {
			return nil, err
		}
		fromPreset, err := p.Patterns(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, fromPreset...)
	}
	return out, nil
}

func (f *Finder) run(pass *analysis.Pass) (interface{}, error) {
	pkg := unit.FromTypes(pass.Fset, pass.Files, pass.Pkg, pass.TypesInfo)
	for _, u := range pkg.Units() {
		issues, err := f.Visit(u)
		if err != nil {
			return nil, err
		}
		file := pass.Fset.File(u.File.Pos())
		for _, issue := range issues {
			pass.Report(analysis.Diagnostic{
				Pos:      file.Pos(issue.Start.Offset),
				End:      file.Pos(issue.End.Offset),
				Category: issue.Category,
				Message:  issue.Message,
			})
		}
	}
	return nil, nil
}
