// Package lattice models the set of constants a variable may hold.
package lattice

import (
	"go/constant"
	"go/types"
	"sort"
)

// Value is an element of the powerset-of-constants lattice extended with
// an Unknown flag. The zero Value is Bottom (no value reaches).
type Value struct {
	consts  map[string]constant.Value
	Unknown bool
}

// Top is the value of anything that may hold a non-constant.
var Top = Value{Unknown: true}

// Of returns the singleton lattice value holding c.
func Of(c constant.Value) Value {
	if c == nil || c.Kind() == constant.Unknown {
		return Top
	}
	return Value{consts: map[string]constant.Value{key(c): c}}
}

func key(c constant.Value) string {
	return c.Kind().String() + ":" + c.ExactString()
}

func (v Value) IsBottom() bool { return !v.Unknown && len(v.consts) == 0 }

// Single returns the only constant v may hold.
func (v Value) Single() (constant.Value, bool) {
	if v.Unknown || len(v.consts) != 1 {
		return nil, false
	}
	for _, c := range v.consts {
		return c, true
	}
	return nil, false
}

// Contains reports whether c is one of the constants v may hold.
func (v Value) Contains(c constant.Value) bool {
	if c == nil {
		return false
	}
	_, ok := v.consts[key(c)]
	return ok
}

// Constants lists the constants of v in a stable order.
func (v Value) Constants() []constant.Value {
	keys := make([]string, 0, len(v.consts))
	for k := range v.consts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]constant.Value, 0, len(keys))
	for _, k := range keys {
		out = append(out, v.consts[k])
	}
	return out
}

// Join returns the least upper bound of a and b.
func Join(a, b Value) Value {
	if a.IsBottom() {
		return b
	}
	if b.IsBottom() {
		return a
	}
	out := Value{Unknown: a.Unknown || b.Unknown, consts: make(map[string]constant.Value, len(a.consts)+len(b.consts))}
	for k, c := range a.consts {
		out.consts[k] = c
	}
	for k, c := range b.consts {
		out.consts[k] = c
	}
	return out
}

// Equal reports whether a and b denote the same lattice element.
func Equal(a, b Value) bool {
	if a.Unknown != b.Unknown || len(a.consts) != len(b.consts) {
		return false
	}
	for k := range a.consts {
		if _, ok := b.consts[k]; !ok {
			return false
		}
	}
	return true
}

// AbstractState maps variables to the constants they may hold.
// Missing entries are Bottom.
type AbstractState map[*types.Var]Value

// JoinValue joins val into the entry for v and reports whether it grew.
func JoinValue(state AbstractState, v *types.Var, val Value) bool {
	old := state[v]
	joined := Join(old, val)
	if Equal(old, joined) {
		return false
	}
	state[v] = joined
	return true
}
