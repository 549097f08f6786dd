// Package scope indexes the lexical scopes of a file.
//
// Scopes live in an arena and refer to their parent by index, so a Tree
// holds no cyclic references and can be printed or compared directly.
package scope

import (
	"go/ast"
	"go/token"
)

type Kind int

const (
	File Kind = iota
	Func
	Block
	Branch
	Loop
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Func:
		return "func"
	case Block:
		return "block"
	case Branch:
		return "branch"
	case Loop:
		return "loop"
	default:
		return "unknown"
	}
}

// None is the parent index of the file scope.
const None = -1

// Scope is one lexical scope.
type Scope struct {
	Node   ast.Node
	Kind   Kind
	Parent int
	Depth  int
}

func (s Scope) Pos() token.Pos { return s.Node.Pos() }
func (s Scope) End() token.Pos { return s.Node.End() }

// Tree is the scope arena of one file. Index 0 is the file scope.
type Tree struct {
	scopes []Scope
	byNode map[ast.Node]int
}

// Build indexes every scope-introducing node of f.
func Build(f *ast.File) *Tree {
	t := &Tree{byNode: make(map[ast.Node]int)}
	t.add(f, File, None)

	var stack []int
	stack = append(stack, 0)
	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		parent := stack[len(stack)-1]
		if n == ast.Node(f) {
			stack = append(stack, 0)
			return true
		}
		if kind, ok := kindOf(n); ok {
			stack = append(stack, t.add(n, kind, parent))
		} else {
			stack = append(stack, parent)
		}
		return true
	})
	return t
}

func kindOf(n ast.Node) (Kind, bool) {
	switch n.(type) {
	case *ast.FuncDecl, *ast.FuncLit:
		return Func, true
	case *ast.BlockStmt:
		return Block, true
	case *ast.IfStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt,
		*ast.CaseClause, *ast.CommClause:
		return Branch, true
	case *ast.ForStmt, *ast.RangeStmt:
		return Loop, true
	}
	return 0, false
}

func (t *Tree) add(n ast.Node, kind Kind, parent int) int {
	depth := 0
	if parent != None {
		depth = t.scopes[parent].Depth + 1
	}
	t.scopes = append(t.scopes, Scope{Node: n, Kind: kind, Parent: parent, Depth: depth})
	idx := len(t.scopes) - 1
	t.byNode[n] = idx
	return idx
}

func (t *Tree) Len() int           { return len(t.scopes) }
func (t *Tree) Get(i int) Scope    { return t.scopes[i] }
func (t *Tree) Parent(i int) int   { return t.scopes[i].Parent }
func (t *Tree) Root() Scope        { return t.scopes[0] }
func (t *Tree) Index(n ast.Node) int {
	if i, ok := t.byNode[n]; ok {
		return i
	}
	return None
}

// Innermost returns the deepest scope containing pos.
func (t *Tree) Innermost(pos token.Pos) int {
	best := 0
	for i, s := range t.scopes {
		if s.Pos() <= pos && pos < s.End() && s.Depth > t.scopes[best].Depth {
			best = i
		}
	}
	return best
}

// Encloses reports whether scope a is b or one of its ancestors.
func (t *Tree) Encloses(a, b int) bool {
	for i := b; i != None; i = t.scopes[i].Parent {
		if i == a {
			return true
		}
	}
	return false
}

// EnclosingFunc returns the nearest function scope at or above i, or None
// for package-level code.
func (t *Tree) EnclosingFunc(i int) int {
	for ; i != None; i = t.scopes[i].Parent {
		if t.scopes[i].Kind == Func {
			return i
		}
	}
	return None
}

// Chain lists i and its ancestors, innermost first.
func (t *Tree) Chain(i int) []int {
	var chain []int
	for ; i != None; i = t.scopes[i].Parent {
		chain = append(chain, i)
	}
	return chain
}

// Cursor is a position in the file together with its scope chain.
type Cursor struct {
	Tree  *Tree
	Scope int
	Node  ast.Node
}

// At places a cursor on n.
func (t *Tree) At(n ast.Node) Cursor {
	return Cursor{Tree: t, Scope: t.Innermost(n.Pos()), Node: n}
}

// Move returns a cursor on n sharing the same tree.
func (c Cursor) Move(n ast.Node) Cursor { return c.Tree.At(n) }

// Lookup walks outward from the cursor and returns the scope that declares
// something at decl, or None when decl is not lexically visible here.
func (c Cursor) Lookup(decl token.Pos) int {
	declScope := c.Tree.Innermost(decl)
	for _, i := range c.Tree.Chain(c.Scope) {
		if i == declScope {
			return i
		}
	}
	return None
}

// Func returns the enclosing function scope of the cursor.
func (c Cursor) Func() int { return c.Tree.EnclosingFunc(c.Scope) }
