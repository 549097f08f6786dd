package dataflow

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/gnolang/flagsweep/internal/analysis/lattice"
	"github.com/gnolang/flagsweep/internal/unit"
)

// maxConstants widens a variable to Top once it may hold more constants
// than this, which keeps loops like `s += "x"` finite.
const maxConstants = 32

// Flow is a flow-insensitive may-analysis over one unit: for every
// variable it records the set of constants that can reach it through
// assignments in the unit.
type Flow struct {
	info  *types.Info
	state lattice.AbstractState
	// tracked vars start at Bottom and accumulate writes; all others are Top
	tracked map[*types.Var]bool
}

// Analyze runs the may-flow fixpoint for u.
func Analyze(u *unit.Unit) *Flow {
	info := u.Info()
	fl := &Flow{
		info:    info,
		state:   make(lattice.AbstractState),
		tracked: make(map[*types.Var]bool),
	}

	local, escaped := allWrites([]*ast.File{u.File}, info)
	var others map[*types.Var][]write
	if len(u.Pkg.Files) > 1 {
		rest := make([]*ast.File, 0, len(u.Pkg.Files)-1)
		for _, f := range u.Pkg.Files {
			if f != u.File {
				rest = append(rest, f)
			}
		}
		others, _ = allWrites(rest, info)
	}

	// Only variables introduced by a var spec or := in this unit are
	// tracked. Parameters, range and type switch variables stay Top.
	ast.Inspect(u.File, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.ValueSpec:
			for _, name := range x.Names {
				if v, ok := info.Defs[name].(*types.Var); ok {
					fl.track(v, escaped[v] || len(others[v]) > 0)
					if len(x.Values) == 0 {
						fl.state[v] = lattice.Of(zero(v.Type()))
					}
				}
			}
		case *ast.AssignStmt:
			if x.Tok != token.DEFINE {
				break
			}
			for _, lhs := range x.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					if v, ok := info.Defs[id].(*types.Var); ok {
						fl.track(v, escaped[v] || len(others[v]) > 0)
					}
				}
			}
		}
		return true
	})

	for changed := true; changed; {
		changed = false
		for v, ws := range local {
			if !fl.tracked[v] {
				continue
			}
			for _, w := range ws {
				val := lattice.Top
				if w.rhs != nil {
					val = fl.Eval(w.rhs)
				}
				if lattice.JoinValue(fl.state, v, val) {
					changed = true
				}
				if len(fl.state[v].Constants()) > maxConstants {
					fl.state[v] = lattice.Top
					delete(fl.tracked, v)
					break
				}
			}
		}
	}
	return fl
}

func (fl *Flow) track(v *types.Var, unknown bool) {
	if v.IsField() {
		return
	}
	// exported package variables can be written by importers
	if v.Parent() == v.Pkg().Scope() && v.Exported() {
		unknown = true
	}
	if unknown {
		fl.state[v] = lattice.Top
		return
	}
	fl.tracked[v] = true
}

// Eval returns the constants e may evaluate to.
func (fl *Flow) Eval(e ast.Expr) lattice.Value {
	e = ast.Unparen(e)
	if tv, ok := fl.info.Types[e]; ok && tv.Value != nil {
		return lattice.Of(tv.Value)
	}
	switch x := e.(type) {
	case *ast.Ident:
		v, ok := fl.info.Uses[x].(*types.Var)
		if !ok {
			return lattice.Top
		}
		if val, ok := fl.state[v]; ok || fl.tracked[v] {
			return val
		}
		return lattice.Top
	case *ast.BinaryExpr:
		return fl.binary(x)
	case *ast.CallExpr:
		tv, ok := fl.info.Types[x.Fun]
		if !ok || !tv.IsType() || len(x.Args) != 1 {
			return lattice.Top
		}
		basic, ok := tv.Type.Underlying().(*types.Basic)
		if !ok {
			return lattice.Top
		}
		arg := fl.Eval(x.Args[0])
		for _, c := range arg.Constants() {
			if !classMatches(basic, c) {
				return lattice.Top
			}
		}
		return arg
	}
	return lattice.Top
}

func (fl *Flow) binary(x *ast.BinaryExpr) lattice.Value {
	a, b := fl.Eval(x.X), fl.Eval(x.Y)
	if a.Unknown || b.Unknown {
		return lattice.Top
	}
	var out lattice.Value
	for _, ca := range a.Constants() {
		for _, cb := range b.Constants() {
			c := Fold(x.Op, ca, cb)
			if c == nil {
				return lattice.Top
			}
			out = lattice.Join(out, lattice.Of(c))
		}
	}
	return out
}

// MayEqual reports whether e may evaluate to c.
func (fl *Flow) MayEqual(e ast.Expr, c constant.Value) bool {
	return fl.Eval(e).Contains(c)
}
