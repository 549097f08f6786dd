// Package suppress reads //flagsweep:keep comments, which exclude code
// from rewriting.
//
//	//flagsweep:keep                        every recipe, next statement
//	x := c.BoolVariation("k", u, false) //flagsweep:keep
//	//flagsweep:keep:remove-feature-flag    one rule only
//
// A keep comment above the package clause covers the whole file, one
// directly above a function covers the function.
package suppress

import (
	"errors"
	"go/ast"
	"go/token"
	"strings"
)

const keepPrefix = "//flagsweep:keep"

var errMalformed = errors.New("malformed keep comment")

// Manager answers whether a position is covered by a keep comment.
type Manager struct {
	// regions maps filename to the regions of that file.
	regions map[string][]region
}

type region struct {
	rules map[string]struct{} // empty means every rule
	start token.Position
	end   token.Position
}

// Parse collects the keep comments of f.
func Parse(f *ast.File, fset *token.FileSet) *Manager {
	m := &Manager{regions: make(map[string][]region)}
	stmts := statementsByLine(f, fset)
	packageLine := fset.Position(f.Package).Line

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			r, err := parseComment(c, f, fset, stmts, packageLine)
			if err != nil {
				continue
			}
			m.regions[r.start.Filename] = append(m.regions[r.start.Filename], r)
		}
	}
	return m
}

func parseComment(
	c *ast.Comment,
	f *ast.File,
	fset *token.FileSet,
	stmts map[int]ast.Stmt,
	packageLine int,
) (region, error) {
	var r region
	if !strings.HasPrefix(c.Text, keepPrefix) {
		return r, errMalformed
	}
	rest := strings.TrimSpace(c.Text[len(keepPrefix):])
	if rest != "" {
		if rest[0] != ':' {
			return r, errMalformed
		}
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return r, errMalformed
		}
	}
	r.rules = parseRules(rest)
	pos := fset.Position(c.Slash)

	if pos.Line < packageLine {
		r.start = fset.Position(f.Pos())
		r.end = fset.Position(f.End())
		return r, nil
	}

	// trailing comment: the statement on the same line
	if stmt, ok := stmts[pos.Line]; ok && fset.Position(stmt.Pos()).Offset < pos.Offset {
		r.start = fset.Position(stmt.Pos())
		r.end = fset.Position(stmt.End())
		return r, nil
	}

	if stmt, ok := stmts[pos.Line+1]; ok {
		r.start = pos
		r.end = fset.Position(stmt.End())
		return r, nil
	}

	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if ok && fset.Position(fd.Pos()).Line == pos.Line+1 {
			r.start = pos
			r.end = fset.Position(fd.End())
			return r, nil
		}
	}

	// package-level declarations: the next line only
	r.start = pos
	r.end = pos
	r.end.Line++
	return r, nil
}

func parseRules(text string) map[string]struct{} {
	rules := make(map[string]struct{})
	for _, rule := range strings.Split(text, ",") {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules[rule] = struct{}{}
		}
	}
	return rules
}

// statementsByLine maps each line to the first statement starting on it.
func statementsByLine(f *ast.File, fset *token.FileSet) map[int]ast.Stmt {
	stmts := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok {
			line := fset.Position(stmt.Pos()).Line
			if _, exists := stmts[line]; !exists {
				stmts[line] = stmt
			}
		}
		return true
	})
	return stmts
}

// Kept reports whether rule must not touch code at pos.
func (m *Manager) Kept(pos token.Position, rule string) bool {
	if m == nil {
		return false
	}
	for _, r := range m.regions[pos.Filename] {
		if pos.Line < r.start.Line || pos.Line > r.end.Line {
			continue
		}
		if len(r.rules) == 0 {
			return true
		}
		if _, ok := r.rules[rule]; ok {
			return true
		}
	}
	return false
}
