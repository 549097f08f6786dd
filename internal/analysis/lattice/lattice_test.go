package lattice

import (
	"go/constant"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	a := Of(constant.MakeString("a"))
	b := Of(constant.MakeString("b"))
	var bottom Value

	assert.True(t, bottom.IsBottom())
	assert.True(t, Equal(a, Join(bottom, a)))
	assert.True(t, Equal(a, Join(a, bottom)))
	assert.True(t, Equal(a, Join(a, a)))

	ab := Join(a, b)
	assert.False(t, ab.Unknown)
	assert.True(t, ab.Contains(constant.MakeString("a")))
	assert.True(t, ab.Contains(constant.MakeString("b")))
	assert.Equal(t, []constant.Value{constant.MakeString("a"), constant.MakeString("b")}, ab.Constants())
	_, ok := ab.Single()
	assert.False(t, ok)

	withTop := Join(ab, Top)
	assert.True(t, withTop.Unknown)
	assert.True(t, withTop.Contains(constant.MakeString("a")))
	assert.False(t, Equal(ab, withTop))
}

func TestOf(t *testing.T) {
	t.Parallel()

	c, ok := Of(constant.MakeInt64(3)).Single()
	assert.True(t, ok)
	assert.Equal(t, "3", c.ExactString())

	// same text, different kinds
	assert.False(t, Of(constant.MakeInt64(1)).Contains(constant.MakeString("1")))

	assert.True(t, Of(nil).Unknown)
	assert.True(t, Of(constant.MakeUnknown()).Unknown)
	assert.False(t, Top.Contains(constant.MakeString("a")))
	assert.False(t, Top.Contains(nil))
	_, ok = Top.Single()
	assert.False(t, ok)
}

func TestAbstractState(t *testing.T) {
	t.Parallel()

	v := types.NewVar(token.NoPos, nil, "key", types.Typ[types.String])
	state := AbstractState{}

	assert.True(t, state[v].IsBottom())
	assert.True(t, JoinValue(state, v, Of(constant.MakeString("a"))))
	assert.False(t, JoinValue(state, v, Of(constant.MakeString("a"))))
	assert.True(t, JoinValue(state, v, Top))
	assert.True(t, state[v].Unknown)
}
