// Package preset ships the call patterns of common feature flag SDKs.
package preset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/gnolang/flagsweep/internal/literal"
	"github.com/gnolang/flagsweep/internal/matcher"
)

var (
	ErrUnknownVendor = errors.New("unknown flag vendor")
	ErrNoPreset      = errors.New("no preset accepts the SDK version")
)

// Flag is one evaluation method of an SDK.
type Flag struct {
	Pattern string
	Kind    literal.Kind
}

// Preset describes the flag evaluation calls of one SDK major version.
type Preset struct {
	Vendor string
	// Module is the SDK module path the constraint applies to.
	Module     string
	Constraint string
	Flags      []Flag
}

const (
	ldV6        = "github.com/launchdarkly/go-server-sdk/v6"
	ldV7        = "github.com/launchdarkly/go-server-sdk/v7"
	openfeature = "github.com/open-feature/go-sdk"
	unleash     = "github.com/Unleash/unleash-client-go/v4"
)

func launchDarkly(module, constraint string) Preset {
	client := module + ".LDClient"
	return Preset{
		Vendor:     "launchdarkly",
		Module:     module,
		Constraint: constraint,
		Flags: []Flag{
			{client + " BoolVariation(string, ..)", literal.KindBool},
			{client + " StringVariation(string, ..)", literal.KindString},
			{client + " IntVariation(string, ..)", literal.KindInt},
			{client + " Float64Variation(string, ..)", literal.KindFloat},
		},
	}
}

// presets are ordered oldest first within a vendor.
var presets = []Preset{
	launchDarkly(ldV6, ">= 6.0.0, < 7.0.0"),
	launchDarkly(ldV7, ">= 7.0.0, < 8.0.0"),
	{
		Vendor:     "openfeature",
		Module:     openfeature,
		Constraint: ">= 1.0.0, < 2.0.0",
		Flags: []Flag{
			{openfeature + "/openfeature.IClient BooleanValue(..)#1", literal.KindBool},
			{openfeature + "/openfeature.IClient StringValue(..)#1", literal.KindString},
			{openfeature + "/openfeature.IClient IntValue(..)#1", literal.KindInt},
			{openfeature + "/openfeature.IClient FloatValue(..)#1", literal.KindFloat},
		},
	},
	{
		Vendor:     "unleash",
		Module:     unleash,
		Constraint: ">= 4.0.0, < 5.0.0",
		Flags: []Flag{
			{unleash + " IsEnabled(string, ..)", literal.KindBool},
			{unleash + ".Client IsEnabled(string, ..)", literal.KindBool},
		},
	},
}

// Vendors lists the known vendor names.
func Vendors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range presets {
		if !seen[p.Vendor] {
			seen[p.Vendor] = true
			out = append(out, p.Vendor)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns the preset of vendor that accepts version. An empty
// version selects the newest preset.
func Lookup(vendor, version string) (Preset, error) {
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	var candidates []Preset
	for _, p := range presets {
		if p.Vendor == vendor {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Preset{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownVendor, vendor, strings.Join(Vendors(), ", "))
	}
	if version == "" {
		return candidates[len(candidates)-1], nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return Preset{}, fmt.Errorf("invalid %s version %q: %w", vendor, version, err)
	}
	for _, p := range candidates {
		ok, err := p.Accepts(v)
		if err != nil {
			return Preset{}, err
		}
		if ok {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s %s", ErrNoPreset, vendor, version)
}

// Detect picks the preset of vendor matching the SDK version found in
// modules, a module path to version map. Without a known SDK module the
// newest preset is returned.
func Detect(vendor string, modules map[string]string) (Preset, error) {
	var found Preset
	for _, p := range presets {
		if p.Vendor != strings.ToLower(vendor) {
			continue
		}
		version, ok := modules[p.Module]
		if !ok {
			continue
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			continue
		}
		// later presets are newer and win when several SDKs are required
		if accepted, err := p.Accepts(v); err == nil && accepted {
			found = p
		}
	}
	if found.Vendor != "" {
		return found, nil
	}
	return Lookup(vendor, "")
}

// Accepts reports whether the SDK version v satisfies the preset's
// constraint.
func (p Preset) Accepts(v *semver.Version) (bool, error) {
	c, err := semver.NewConstraint(p.Constraint)
	if err != nil {
		return false, fmt.Errorf("preset %s: invalid constraint: %w", p.Module, err)
	}
	return c.Check(v), nil
}

// Patterns returns the parsed patterns of every flag of kind. KindAny
// returns them all.
func (p Preset) Patterns(kind literal.Kind) ([]*matcher.Pattern, error) {
	var out []*matcher.Pattern
	for _, f := range p.Flags {
		if kind != literal.KindAny && f.Kind != kind {
			continue
		}
		pattern, err := matcher.Parse(f.Pattern)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Module, err)
		}
		out = append(out, pattern)
	}
	return out, nil
}
