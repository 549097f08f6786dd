// Package matcher matches call expressions against declarative call patterns.
package matcher

import (
	"go/ast"
	"go/types"
	"path"
	"strings"

	"golang.org/x/tools/go/types/typeutil"
)

// Matches reports whether call invokes a function matching p. Calls without
// resolved type information never match.
func (p *Pattern) Matches(info *types.Info, call *ast.CallExpr) bool {
	if info == nil || call == nil {
		return false
	}
	fn := Callee(info, call)
	if fn == nil {
		return false
	}
	if ok, _ := path.Match(p.Name, fn.Name()); !ok {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok {
		return false
	}
	if !p.matchesOwner(info, call, fn, sig) {
		return false
	}
	if !p.matchesParams(fn.Pkg(), sig) {
		return false
	}
	return argsCompatible(sig, call)
}

// KeyArgument returns the argument carrying the flag key, or nil when the
// call has too few arguments.
func (p *Pattern) KeyArgument(call *ast.CallExpr) ast.Expr {
	if p.KeyArg >= len(call.Args) {
		return nil
	}
	return call.Args[p.KeyArg]
}

// Callee returns the statically known function or method called by call.
func Callee(info *types.Info, call *ast.CallExpr) *types.Func {
	fn, _ := typeutil.Callee(info, call).(*types.Func)
	return fn
}

// Result returns the first result type of the function called by call.
func Result(info *types.Info, call *ast.CallExpr) (types.Type, int) {
	fn := Callee(info, call)
	if fn == nil {
		return nil, 0
	}
	sig := fn.Type().(*types.Signature)
	if sig.Results().Len() == 0 {
		return nil, 0
	}
	return sig.Results().At(0).Type(), sig.Results().Len()
}

func (p *Pattern) matchesOwner(info *types.Info, call *ast.CallExpr, fn *types.Func, sig *types.Signature) bool {
	recv := sig.Recv()
	if recv == nil {
		if fn.Pkg() == nil {
			return false
		}
		return p.ownerName(fn.Pkg().Path())
	}

	if named := namedOf(recv.Type()); named != nil && p.ownerName(qualifiedName(named)) {
		return true
	}
	if !p.MatchSubtypes {
		return false
	}

	// the static type of the receiver expression, which differs from the
	// declared receiver for promoted and interface methods
	sel, ok := ast.Unparen(call.Fun).(*ast.SelectorExpr)
	if !ok {
		return false
	}
	static := info.TypeOf(sel.X)
	if static == nil {
		return false
	}
	if named := namedOf(static); named != nil && p.ownerName(qualifiedName(named)) {
		return true
	}
	if p.OwnerWildcard {
		return false
	}
	iface := p.lookupInterface(fn.Pkg(), static)
	if iface == nil {
		return false
	}
	return types.Implements(static, iface) || types.Implements(types.NewPointer(static), iface)
}

func (p *Pattern) ownerName(name string) bool {
	if p.OwnerWildcard {
		return strings.HasPrefix(name, p.Owner)
	}
	return name == p.Owner
}

// lookupInterface resolves the pattern owner to an interface type reachable
// from the packages involved in the call.
func (p *Pattern) lookupInterface(pkg *types.Package, static types.Type) *types.Interface {
	i := strings.LastIndexByte(p.Owner, '.')
	if i <= 0 {
		return nil
	}
	pkgPath, name := p.Owner[:i], p.Owner[i+1:]

	var starts []*types.Package
	if pkg != nil {
		starts = append(starts, pkg)
	}
	if named := namedOf(static); named != nil && named.Obj().Pkg() != nil {
		starts = append(starts, named.Obj().Pkg())
	}

	seen := make(map[*types.Package]bool)
	for len(starts) > 0 {
		cur := starts[0]
		starts = starts[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if cur.Path() == pkgPath {
			obj, ok := cur.Scope().Lookup(name).(*types.TypeName)
			if !ok {
				return nil
			}
			iface, _ := obj.Type().Underlying().(*types.Interface)
			return iface
		}
		starts = append(starts, cur.Imports()...)
	}
	return nil
}

func (p *Pattern) matchesParams(pkg *types.Package, sig *types.Signature) bool {
	params := sig.Params()
	n := len(p.Params)
	if p.AnyTail {
		if params.Len() < n {
			return false
		}
	} else if params.Len() != n {
		return false
	}

	for i, want := range p.Params {
		got := params.At(i).Type()
		variadic := sig.Variadic() && i == params.Len()-1
		if want.Variadic != variadic {
			return false
		}
		if want.Any {
			continue
		}
		if variadic {
			if s, ok := got.(*types.Slice); ok {
				got = s.Elem()
			}
		}
		if !typeMatches(pkg, got, want.Type) {
			return false
		}
	}
	return true
}

// typeMatches accepts both fully qualified and package-name qualified
// spellings of t.
func typeMatches(pkg *types.Package, t types.Type, want string) bool {
	want = strings.ReplaceAll(want, " ", "")
	full := types.TypeString(t, nil)
	if strings.ReplaceAll(full, " ", "") == want {
		return true
	}
	short := types.TypeString(t, func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		return other.Name()
	})
	if strings.ReplaceAll(short, " ", "") == want {
		return true
	}
	named := types.TypeString(t, (*types.Package).Name)
	return strings.ReplaceAll(named, " ", "") == want
}

// argsCompatible checks the argument count against the signature, honoring
// a trailing variadic parameter.
func argsCompatible(sig *types.Signature, call *ast.CallExpr) bool {
	n := sig.Params().Len()
	args := len(call.Args)
	if sig.Variadic() {
		if call.Ellipsis.IsValid() {
			return args == n
		}
		return args >= n-1
	}
	if args == 1 && n > 1 {
		// f(g()) where g returns a tuple
		return true
	}
	return args == n
}

func namedOf(t types.Type) *types.Named {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, _ := types.Unalias(t).(*types.Named)
	if named == nil {
		return nil
	}
	return named.Origin()
}

func qualifiedName(named *types.Named) string {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}
