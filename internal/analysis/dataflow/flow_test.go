package dataflow

import (
	"go/constant"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowMayEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		key   string
		match bool
	}{
		{
			name:  "literal",
			body:  `func f() { sink("k") }`,
			key:   "k",
			match: true,
		},
		{
			name: "either branch",
			body: `func f(c bool) {
	key := "a"
	if c {
		key = "k"
	}
	sink(key)
}`,
			key:   "k",
			match: true,
		},
		{
			name: "other constant",
			body: `func f(c bool) {
	key := "a"
	if c {
		key = "b"
	}
	sink(key)
}`,
			key: "k",
		},
		{
			name:  "parameter",
			body:  `func f(key string) { sink(key) }`,
			key:   "k",
		},
		{
			name: "through aliases",
			body: `func f() {
	k := "k"
	alias := k
	sink(alias)
}`,
			key:   "k",
			match: true,
		},
		{
			name: "mixed with unknown",
			body: `func f(in string) {
	key := in
	if in == "" {
		key = "k"
	}
	sink(key)
}`,
			key:   "k",
			match: true,
		},
		{
			name: "accumulated in a loop",
			body: `func f() {
	s := ""
	for i := 0; i < 3; i++ {
		s += "k"
	}
	sink(s)
}`,
			key: "k",
		},
		{
			name: "concatenated sources",
			body: `func f(c bool) {
	prefix := "a."
	if c {
		prefix = "b."
	}
	sink(prefix + "k")
}`,
			key:   "b.k",
			match: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := load(t, "package app\n\nfunc sink(string) {}\n\n"+tt.body+"\n")
			arg := sinkArg(t, u)

			flow := Analyze(u)
			assert.Equal(t, tt.match, flow.MayEqual(arg, constant.MakeString(tt.key)))
		})
	}
}

func TestFlowLoopWidening(t *testing.T) {
	t.Parallel()

	u := load(t, `package app

func sink(string) {}

func f() {
	s := "x"
	for i := 0; i < 100; i++ {
		s = s + "x"
	}
	sink(s)
}
`)
	flow := Analyze(u)
	val := flow.Eval(sinkArg(t, u))
	assert.True(t, val.Unknown)
}
