// Package unit adapts type-checked Go packages into compilation units that
// the flag engine visits and rewrites one file at a time.
package unit

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Package is a type-checked Go package whose files can be rewritten in
// place and re-checked.
type Package struct {
	Fset      *token.FileSet
	Path      string
	Name      string
	Files     []*ast.File
	Filenames []string
	Types     *types.Package
	Info      *types.Info
	Module    *packages.Module
	// Deps maps import paths to the module that provides them.
	Deps map[string]*packages.Module

	// names referenced from files that are not type-checked here, e.g. tests
	external map[string]bool
	sources  map[string][]byte
	importer types.Importer
	errs     []error
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesInfo |
	packages.NeedSyntax | packages.NeedModule

// Load loads and type-checks the packages matching patterns relative to dir.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Package, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    loadMode,
		Fset:    fset,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.ParseComments)
		},
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("error loading packages: %w", err)
	}

	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Types == nil || len(p.Syntax) == 0 {
			continue
		}
		pkg := &Package{
			Fset:     fset,
			Path:     p.PkgPath,
			Name:     p.Name,
			Files:    p.Syntax,
			Types:    p.Types,
			Info:     p.TypesInfo,
			Module:   p.Module,
			Deps:     make(map[string]*packages.Module),
			external: make(map[string]bool),
			sources:  make(map[string][]byte),
		}
		for _, f := range p.Syntax {
			name := fset.File(f.Pos()).Name()
			pkg.Filenames = append(pkg.Filenames, name)
			if src, err := os.ReadFile(name); err == nil {
				pkg.sources[name] = src
			}
		}
		imports := make(map[string]*types.Package, len(p.Imports))
		packages.Visit([]*packages.Package{p}, nil, func(dep *packages.Package) {
			if dep.Types != nil {
				imports[dep.PkgPath] = dep.Types
			}
			if dep.Module != nil {
				pkg.Deps[dep.PkgPath] = dep.Module
			}
		})
		pkg.importer = mapImporter{pkgs: imports, fallback: importer.ForCompiler(fset, "source", nil)}
		for _, e := range p.Errors {
			pkg.errs = append(pkg.errs, e)
		}
		if len(p.GoFiles) > 0 {
			pkg.scanTests(filepath.Dir(p.GoFiles[0]))
		}
		out = append(out, pkg)
	}
	return out, nil
}

// LoadSources type-checks an in-memory package. Imports are resolved from
// GOROOT sources.
func LoadSources(path string, sources map[string]string) (*Package, error) {
	fset := token.NewFileSet()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	pkg := &Package{
		Fset:     fset,
		Path:     path,
		Deps:     make(map[string]*packages.Module),
		external: make(map[string]bool),
		sources:  make(map[string][]byte),
		importer: importer.ForCompiler(fset, "source", nil),
	}
	for _, name := range names {
		src := sources[name]
		if strings.HasSuffix(name, "_test.go") {
			pkg.scanExternal([]byte(src))
			continue
		}
		f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", name, err)
		}
		pkg.Files = append(pkg.Files, f)
		pkg.Filenames = append(pkg.Filenames, name)
		pkg.sources[name] = []byte(src)
	}
	if len(pkg.Files) == 0 {
		return nil, fmt.Errorf("no Go files in %s", path)
	}
	pkg.Name = pkg.Files[0].Name.Name
	pkg.Check()
	return pkg, nil
}

// FromTypes wraps files that were already type-checked by another driver,
// such as a go/analysis pass. Re-checks resolve imports from GOROOT
// sources.
func FromTypes(fset *token.FileSet, files []*ast.File, pkg *types.Package, info *types.Info) *Package {
	p := &Package{
		Fset:     fset,
		Path:     pkg.Path(),
		Name:     pkg.Name(),
		Files:    files,
		Types:    pkg,
		Info:     info,
		Deps:     make(map[string]*packages.Module),
		external: make(map[string]bool),
		sources:  make(map[string][]byte),
		importer: importer.ForCompiler(fset, "source", nil),
	}
	for _, f := range files {
		p.Filenames = append(p.Filenames, fset.File(f.Pos()).Name())
	}
	return p
}

// Check re-type-checks every file of the package. Type errors are recorded
// rather than returned: rewritten code may be transiently ill-typed (an
// unused variable, say) until the simplification passes finish.
func (p *Package) Check() {
	info := NewInfo()
	p.errs = nil
	conf := types.Config{
		Importer: p.importer,
		Error:    func(err error) { p.errs = append(p.errs, err) },
	}
	pkg, _ := conf.Check(p.Path, p.Fset, p.Files, info)
	p.Types = pkg
	p.Info = info
}

// Errors returns the errors of the last type check.
func (p *Package) Errors() []error { return p.errs }

// ReferencedExternally reports whether name appears in files of the package
// directory that are not part of the type-checked package (tests).
func (p *Package) ReferencedExternally(name string) bool { return p.external[name] }

// Units returns one unit per file.
func (p *Package) Units() []*Unit {
	units := make([]*Unit, len(p.Files))
	for i, f := range p.Files {
		units[i] = &Unit{
			Pkg:      p,
			File:     f,
			Filename: p.Filenames[i],
			Original: p.sources[p.Filenames[i]],
		}
	}
	return units
}

func (p *Package) scanTests(dir string) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_test.go"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if src, err := os.ReadFile(m); err == nil {
			p.scanExternal(src)
		}
	}
}

func (p *Package) scanExternal(src []byte) {
	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.SkipObjectResolution)
	if err != nil {
		return
	}
	ast.Inspect(f, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			p.external[id.Name] = true
		}
		return true
	})
}

// NewInfo allocates every types.Info map the engine relies on.
func NewInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
		Instances:  make(map[*ast.Ident]types.Instance),
	}
}

type mapImporter struct {
	pkgs     map[string]*types.Package
	fallback types.Importer
}

func (m mapImporter) Import(path string) (*types.Package, error) {
	if pkg, ok := m.pkgs[path]; ok {
		return pkg, nil
	}
	return m.fallback.Import(path)
}

// ModuleVersions maps every module the packages depend on to its selected
// version. Replaced modules report the replacement's version.
func ModuleVersions(pkgs []*Package) map[string]string {
	versions := make(map[string]string)
	for _, p := range pkgs {
		for _, m := range p.Deps {
			v := m.Version
			if m.Replace != nil && m.Replace.Version != "" {
				v = m.Replace.Version
			}
			versions[m.Path] = v
		}
	}
	return versions
}
