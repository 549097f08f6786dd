package matcher

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

var ErrInvalidPattern = errors.New("invalid call pattern")

// Pattern is a declarative call signature:
//
//	<owner> <name>(<params>)[#<key index>]
//
// The owner is a qualified type ("example.com/flags.Client") or a package
// path for package-level functions. A trailing '*' on the owner matches any
// suffix. The name may be a glob. Parameters are qualified type strings,
// '*' for any single type, a trailing "T..." for a variadic parameter and
// ".." for any remaining parameters.
type Pattern struct {
	Owner         string
	OwnerWildcard bool
	Name          string
	Params        []Param
	AnyTail       bool
	KeyArg        int
	MatchSubtypes bool

	raw string
}

// Param is one parameter of a pattern.
type Param struct {
	Type     string
	Any      bool
	Variadic bool
}

// Parse reads a pattern string. Subtype matching is enabled by default.
func Parse(s string) (*Pattern, error) {
	raw := strings.TrimSpace(s)
	p := &Pattern{MatchSubtypes: true, raw: raw}

	rest := raw
	if i := strings.LastIndexByte(rest, '#'); i >= 0 && i > strings.LastIndexByte(rest, ')') {
		idx, err := strconv.Atoi(strings.TrimSpace(rest[i+1:]))
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: bad key argument index in %q", ErrInvalidPattern, s)
		}
		p.KeyArg = idx
		rest = strings.TrimSpace(rest[:i])
	}

	sp := strings.IndexAny(rest, " \t")
	if sp < 0 {
		return nil, fmt.Errorf("%w: missing owner or method in %q", ErrInvalidPattern, s)
	}
	p.Owner = rest[:sp]
	rest = strings.TrimSpace(rest[sp:])
	if strings.HasSuffix(p.Owner, "*") {
		p.OwnerWildcard = true
		p.Owner = strings.TrimSuffix(p.Owner, "*")
	}

	open := strings.IndexByte(rest, '(')
	if open <= 0 || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("%w: missing parameter list in %q", ErrInvalidPattern, s)
	}
	p.Name = strings.TrimSpace(rest[:open])
	if _, err := path.Match(p.Name, ""); err != nil {
		return nil, fmt.Errorf("%w: bad method glob %q", ErrInvalidPattern, p.Name)
	}

	params := strings.TrimSpace(rest[open+1 : len(rest)-1])
	if params == "" {
		return p, nil
	}
	parts := splitParams(params)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		last := i == len(parts)-1
		switch {
		case part == "":
			return nil, fmt.Errorf("%w: empty parameter in %q", ErrInvalidPattern, s)
		case part == "..":
			if !last {
				return nil, fmt.Errorf("%w: '..' must be the last parameter in %q", ErrInvalidPattern, s)
			}
			p.AnyTail = true
		case strings.HasSuffix(part, "..."):
			if !last {
				return nil, fmt.Errorf("%w: only the last parameter may be variadic in %q", ErrInvalidPattern, s)
			}
			elem := strings.TrimSpace(strings.TrimSuffix(part, "..."))
			p.Params = append(p.Params, Param{Type: elem, Any: elem == "*", Variadic: true})
		default:
			p.Params = append(p.Params, Param{Type: part, Any: part == "*"})
		}
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string { return p.raw }

// splitParams splits on top-level commas so that func and map types
// survive intact.
func splitParams(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
