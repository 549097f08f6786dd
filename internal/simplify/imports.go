package simplify

import (
	"go/ast"
	"go/types"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/flagsweep/internal/unit"
)

// unusedImports deletes imports the unit no longer refers to.
type unusedImports struct{}

func (unusedImports) Name() string { return "remove-unused-imports" }

func (unusedImports) Run(u *unit.Unit) (bool, error) {
	info := u.Info()

	used := make(map[*types.PkgName]bool)
	for id, obj := range info.Uses {
		if pn, ok := obj.(*types.PkgName); ok && u.Contains(id.Pos()) {
			used[pn] = true
		}
	}

	changed := false
	for _, spec := range append([]*ast.ImportSpec(nil), u.File.Imports...) {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil || path == "C" {
			continue
		}
		name := ""
		var obj types.Object
		if spec.Name != nil {
			name = spec.Name.Name
			if name == "_" || name == "." {
				continue
			}
			obj = info.Defs[spec.Name]
		} else {
			obj = info.Implicits[spec]
		}
		pn, ok := obj.(*types.PkgName)
		if !ok || used[pn] {
			continue
		}
		if astutil.DeleteNamedImport(u.Fset(), u.File, name, path) {
			changed = true
		}
	}
	return changed, nil
}
