package branch

// BranchKind classifies how control leaves the end of a statement list.
type BranchKind int

const (
	// Empty lists have no statements
	Empty BranchKind = iota

	// Regular lists fall through to the next statement
	Regular

	Return
	Continue
	Break
	Goto

	// Panic and Exit are calls that never return; see DeviatingFuncs
	Panic
	Exit
)

var kindNames = [...]string{
	Empty:    "empty",
	Regular:  "regular",
	Return:   "return",
	Continue: "continue",
	Break:    "break",
	Goto:     "goto",
	Panic:    "panic",
	Exit:     "exit",
}

func (k BranchKind) Branch() Branch { return Branch{BranchKind: k} }

// Deviates reports whether statements after a branch of this kind are
// unreachable.
func (k BranchKind) Deviates() bool {
	return k > Regular
}

func (k BranchKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}
