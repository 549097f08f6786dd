package branch

import (
	"go/ast"
	"go/token"
	"go/types"
)

// Branch stores the information of one arm of an if-else statement.
type Branch struct {
	BranchKind
	Call
	HasDecls bool
}

func BlockBranch(info *types.Info, block *ast.BlockStmt) Branch {
	if block == nil {
		return Empty.Branch()
	}
	blockLen := len(block.List)
	if blockLen == 0 {
		return Empty.Branch()
	}

	branch := StmtBranch(info, block.List[blockLen-1])
	branch.HasDecls = HasDecls(block.List)

	return branch
}

func StmtBranch(info *types.Info, stmt ast.Stmt) Branch {
	switch stmt := stmt.(type) {
	case *ast.ReturnStmt:
		return Return.Branch()
	case *ast.BlockStmt:
		return BlockBranch(info, stmt)
	case *ast.BranchStmt:
		switch stmt.Tok {
		case token.BREAK:
			return Break.Branch()
		case token.CONTINUE:
			return Continue.Branch()
		case token.GOTO:
			return Goto.Branch()
		}
	case *ast.ExprStmt:
		fn, ok := ExprCall(info, stmt)
		if !ok {
			break
		}
		if kind, ok := DeviatingFuncs[fn]; ok {
			return Branch{BranchKind: kind, Call: fn}
		}
	case *ast.IfStmt:
		// both arms must deviate for the statement to deviate
		if stmt.Else == nil {
			break
		}
		then := BlockBranch(info, stmt.Body)
		other := StmtBranch(info, stmt.Else)
		if then.Deviates() && other.Deviates() {
			return then.BranchKind.Branch()
		}
	case *ast.EmptyStmt:
		return Empty.Branch()
	case *ast.LabeledStmt:
		return StmtBranch(info, stmt.Stmt)
	}

	return Regular.Branch()
}

// HasDecls reports whether stmts declare names that would leak into the
// surrounding scope if the statements were spliced there.
func HasDecls(stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *ast.DeclStmt:
			return true
		case *ast.AssignStmt:
			if stmt.Tok == token.DEFINE {
				return true
			}
		case *ast.LabeledStmt:
			return true
		}
	}

	return false
}
