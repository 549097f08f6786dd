package branch

import (
	"go/ast"
	"go/types"
)

// Chain describes an if statement whose condition is known.
type Chain struct {
	If             Branch
	Else           Branch
	HasInitializer bool
}

func NewChain(info *types.Info, stmt *ast.IfStmt) Chain {
	c := Chain{
		If:             BlockBranch(info, stmt.Body),
		Else:           Empty.Branch(),
		HasInitializer: stmt.Init != nil,
	}
	if stmt.Else != nil {
		c.Else = StmtBranch(info, stmt.Else)
		if block, ok := stmt.Else.(*ast.BlockStmt); ok {
			c.Else.HasDecls = HasDecls(block.List)
		}
	}
	return c
}

// Live returns the branch that runs when the condition is cond.
func (c Chain) Live(cond bool) Branch {
	if cond {
		return c.If
	}
	return c.Else
}
