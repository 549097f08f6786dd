package unit

import (
	"bytes"
	"go/ast"
	"go/token"
)

// compact joins the lines of removed code so that the printer does not
// leave blank lines where statements used to be. A blank line that sat
// next to surviving code in the original source is kept.
func (u *Unit) compact() {
	if u.Original == nil {
		return
	}
	tf := u.Pkg.Fset.File(u.File.Pos())
	if tf == nil || tf.Size() != len(u.Original) {
		return
	}

	ast.Inspect(u.File, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.BlockStmt:
			u.compactList(tf, x.Lbrace+1, stmts(x.List), x.Rbrace)
		case *ast.CaseClause:
			u.compactList(tf, x.Colon+1, stmts(x.Body), token.NoPos)
		case *ast.CommClause:
			u.compactList(tf, x.Colon+1, stmts(x.Body), token.NoPos)
		case *ast.GenDecl:
			if x.Lparen.IsValid() {
				nodes := make([]ast.Node, len(x.Specs))
				for i, s := range x.Specs {
					nodes[i] = s
				}
				u.compactList(tf, x.Lparen+1, nodes, x.Rparen)
			}
		}
		return true
	})
}

func stmts(list []ast.Stmt) []ast.Node {
	nodes := make([]ast.Node, len(list))
	for i, s := range list {
		nodes[i] = s
	}
	return nodes
}

func (u *Unit) compactList(tf *token.File, open token.Pos, nodes []ast.Node, end token.Pos) {
	prev := open
	for _, n := range nodes {
		u.join(tf, prev, n.Pos())
		prev = n.End()
	}
	if end.IsValid() {
		u.join(tf, prev, end)
	}
}

// join merges the lines between from and to until at most one blank line
// separates them, or none when the original had no blank line next to
// either end.
func (u *Unit) join(tf *token.File, from, to token.Pos) {
	base := tf.Base()
	if !from.IsValid() || !to.IsValid() || from > to ||
		int(from) < base || int(to) > base+tf.Size() {
		return
	}
	first, last := tf.Line(from), tf.Line(to)
	for _, cg := range u.File.Comments {
		if cg.Pos() >= from && cg.End() <= to && tf.Line(cg.Pos()) > first && tf.Line(cg.End()) < last {
			return
		}
	}

	lines := bytes.Split(u.Original[int(from)-base:int(to)-base], []byte("\n"))
	want := 1
	if len(lines) >= 3 && (isBlankLine(lines[1]) || isBlankLine(lines[len(lines)-2])) {
		want = 2
	}
	for ; last-first > want; last-- {
		tf.MergeLine(first)
	}
}

func isBlankLine(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}
