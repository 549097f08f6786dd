package types

import "go/token"

// Issue represents a finding or a rewrite reported for a compilation unit.
type Issue struct {
	Rule       string
	Category   string
	Filename   string
	Message    string
	Suggestion string
	Note       string
	Start      token.Position
	End        token.Position
	Severity   Severity
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// Rule names emitted by the engine.
const (
	RuleFindFlag      = "find-feature-flag"
	RuleRemoveFlag    = "remove-feature-flag"
	RuleChangeDefault = "change-variation-default"
	RuleMergeChain    = "merge-chain"
)
