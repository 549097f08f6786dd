package simplify

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/gnolang/flagsweep/internal/analysis/effects"
	"github.com/gnolang/flagsweep/internal/unit"
)

// unusedDecls removes unexported package-level variables and constants of
// the unit that nothing in the package refers to.
type unusedDecls struct {
	withSideEffects bool
}

func (unusedDecls) Name() string { return "remove-unused-fields" }

func (p unusedDecls) Run(u *unit.Unit) (bool, error) {
	info := u.Info()
	changed := false

	for _, decl := range append([]ast.Decl(nil), u.File.Decls...) {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || (gd.Tok != token.VAR && gd.Tok != token.CONST) {
			continue
		}
		// dropping a spec would renumber the rest of an iota group
		if gd.Tok == token.CONST && usesIota(info, gd) {
			continue
		}

		kept := gd.Specs[:0:0]
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			if !p.removable(u, vs) {
				kept = append(kept, spec)
				continue
			}
			u.RemoveComments(vs)
			if vs.Doc != nil {
				u.RemoveComments(vs.Doc)
			}
		}
		if len(kept) == len(gd.Specs) {
			continue
		}
		changed = true
		if len(kept) == 0 {
			removeDecl(u, gd)
			continue
		}
		gd.Specs = kept
	}
	return changed, nil
}

func (p unusedDecls) removable(u *unit.Unit, vs *ast.ValueSpec) bool {
	info := u.Info()
	for _, name := range vs.Names {
		if name.Name == "_" || ast.IsExported(name.Name) || u.Pkg.ReferencedExternally(name.Name) {
			return false
		}
		obj := info.Defs[name]
		if obj == nil || len(u.Uses(obj)) > 0 {
			return false
		}
	}
	if p.withSideEffects {
		return true
	}
	for _, e := range vs.Values {
		if !effects.Pure(info, e) {
			return false
		}
	}
	return true
}

func usesIota(info *types.Info, gd *ast.GenDecl) bool {
	found := false
	for _, spec := range gd.Specs {
		vs := spec.(*ast.ValueSpec)
		if len(vs.Values) == 0 {
			// implicit repetition of the previous expression
			return true
		}
		for _, e := range vs.Values {
			ast.Inspect(e, func(n ast.Node) bool {
				if id, ok := n.(*ast.Ident); ok && id.Name == "iota" {
					if obj := info.Uses[id]; obj == nil || obj.Parent() == types.Universe {
						found = true
					}
				}
				return !found
			})
		}
	}
	return found
}
