package simplify

import (
	"go/ast"
	"go/types"
	"strings"

	"github.com/gnolang/flagsweep/internal/unit"
)

// unusedFuncs removes unexported functions and methods of the unit that
// have no references in the package.
type unusedFuncs struct{}

func (unusedFuncs) Name() string { return "remove-unused-private-methods" }

func (unusedFuncs) Run(u *unit.Unit) (bool, error) {
	info := u.Info()
	required := interfaceMethods(info)
	changed := false

	for _, decl := range append([]ast.Decl(nil), u.File.Decls...) {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || !removableFunc(fd) || u.Pkg.ReferencedExternally(fd.Name.Name) {
			continue
		}
		if fd.Recv != nil && required[fd.Name.Name] {
			continue
		}
		obj := info.Defs[fd.Name]
		if obj == nil || len(u.Uses(obj)) > 0 {
			continue
		}
		removeDecl(u, fd)
		changed = true
	}
	return changed, nil
}

func removableFunc(fd *ast.FuncDecl) bool {
	switch name := fd.Name.Name; {
	case name == "_", name == "init", name == "main", ast.IsExported(name):
		return false
	}
	if fd.Doc != nil {
		for _, c := range fd.Doc.List {
			// linkname and cgo exports are referenced from outside Go code
			if strings.HasPrefix(c.Text, "//go:linkname") || strings.HasPrefix(c.Text, "//export ") {
				return false
			}
		}
	}
	return true
}

// interfaceMethods collects the method names of every interface type the
// package mentions. A method with one of these names may be called
// dynamically.
func interfaceMethods(info *types.Info) map[string]bool {
	names := make(map[string]bool)
	add := func(t types.Type) {
		if t == nil {
			return
		}
		iface, ok := t.Underlying().(*types.Interface)
		if !ok {
			return
		}
		for i := 0; i < iface.NumMethods(); i++ {
			names[iface.Method(i).Name()] = true
		}
	}
	for _, tv := range info.Types {
		add(tv.Type)
	}
	for _, obj := range info.Defs {
		if tn, ok := obj.(*types.TypeName); ok {
			add(tn.Type())
		}
	}
	return names
}
