package unit

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"go/types"

	"go.uber.org/zap"
)

// Unit is one file of a package. All rewriting state is scoped to a unit.
type Unit struct {
	Pkg      *Package
	File     *ast.File
	Filename string
	Original []byte

	queue   []Pass
	changed bool
	dirty   bool
}

// Pass is a transformation over a single unit. Run reports whether it
// changed the unit.
type Pass interface {
	Name() string
	Run(u *Unit) (bool, error)
}

func (u *Unit) Info() *types.Info       { return u.Pkg.Info }
func (u *Unit) Fset() *token.FileSet    { return u.Pkg.Fset }
func (u *Unit) Types() *types.Package   { return u.Pkg.Types }
func (u *Unit) Changed() bool           { return u.changed }
func (u *Unit) Pending() int            { return len(u.queue) }
func (u *Unit) Position(p token.Pos) token.Position { return u.Pkg.Fset.Position(p) }

// MarkChanged records a mutation; type information is refreshed before the
// next deferred pass runs.
func (u *Unit) MarkChanged() {
	u.changed = true
	u.dirty = true
}

// Recheck refreshes type information if the unit changed since the last
// check.
func (u *Unit) Recheck() {
	if !u.dirty {
		return
	}
	u.Pkg.Check()
	u.dirty = false
}

// Defer schedules p to run after the current traversal. A pass already
// waiting under the same name is not queued twice.
func (u *Unit) Defer(p Pass) {
	for _, q := range u.queue {
		if q.Name() == p.Name() {
			return
		}
	}
	u.queue = append(u.queue, p)
}

// Drain runs the deferred passes in FIFO order. Passes deferred while
// draining run in the same drain.
func (u *Unit) Drain(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for len(u.queue) > 0 {
		p := u.queue[0]
		u.queue = u.queue[1:]

		u.Recheck()
		changed, err := p.Run(u)
		if err != nil {
			u.queue = nil
			return fmt.Errorf("pass %s on %s: %w", p.Name(), u.Filename, err)
		}
		if changed {
			u.MarkChanged()
		}
		logger.Debug("deferred pass finished",
			zap.String("pass", p.Name()),
			zap.String("file", u.Filename),
			zap.Bool("changed", changed))
	}
	u.Recheck()
	return nil
}

// Source renders the unit. An unchanged unit returns its original bytes.
func (u *Unit) Source() ([]byte, error) {
	if !u.changed && u.Original != nil {
		return u.Original, nil
	}
	u.compact()
	var buf bytes.Buffer
	if err := format.Node(&buf, u.Pkg.Fset, u.File); err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", u.Filename, err)
	}
	return buf.Bytes(), nil
}

// RemoveComments drops comment groups lying entirely inside n, so that
// deleted code does not leave its comments behind.
func (u *Unit) RemoveComments(n ast.Node) {
	if n == nil || !n.Pos().IsValid() {
		return
	}
	from, to := n.Pos(), n.End()
	kept := u.File.Comments[:0]
	for _, cg := range u.File.Comments {
		if cg.Pos() >= from && cg.End() <= to {
			continue
		}
		kept = append(kept, cg)
	}
	u.File.Comments = kept
}

// Uses returns every identifier in the package referring to obj.
func (u *Unit) Uses(obj types.Object) []*ast.Ident {
	var ids []*ast.Ident
	for id, o := range u.Pkg.Info.Uses {
		if o == obj {
			ids = append(ids, id)
		}
	}
	return ids
}

// Contains reports whether pos lies inside the unit's file.
func (u *Unit) Contains(pos token.Pos) bool {
	return u.File.FileStart <= pos && pos <= u.File.FileEnd
}
