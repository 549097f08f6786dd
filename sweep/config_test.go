package sweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/flagsweep/internal/chain"
	"github.com/gnolang/flagsweep/internal/defaults"
	"github.com/gnolang/flagsweep/internal/eliminator"
	"github.com/gnolang/flagsweep/internal/finder"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `name: cleanup
max-rounds: 5
with-side-effects: true
recipes:
  - type: remove-flag
    preset: launchdarkly
    key: new-checkout
    kind: bool
    value: "true"
  - type: merge-chain
    terminal: example.com/ctx.Builder Build()
    target: example.com/ctx.Builder Private(..)
    keep: last
`)
	config, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cleanup", config.Name)
	assert.Equal(t, 5, config.MaxRounds)
	assert.True(t, config.WithSideEffects)
	require.Len(t, config.Recipes, 2)
	assert.Equal(t, "new-checkout", config.Recipes[0].Key)
	assert.Equal(t, "last", config.Recipes[1].Keep)
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(writeConfig(t, "recipes:\n  - type: remove-flag\n    flag: x\n"))
	assert.Error(t, err)

	_, err = ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigPath)
	require.NoError(t, WriteConfig(path, DefaultConfig()))
	assert.Error(t, WriteConfig(path, DefaultConfig()))

	config, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	recipes, err := BuildRecipes(config, nil, nil)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestBuildRecipes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		recipe RecipeConfig
		check  func(t *testing.T, recipes []Recipe)
		err    error
	}{
		{
			name:   "unknown type",
			recipe: RecipeConfig{Type: "rename-flag"},
			err:    ErrUnknownRecipe,
		},
		{
			name:   "remove without key",
			recipe: RecipeConfig{Type: RecipeRemoveFlag, Preset: "unleash", Kind: "bool", Value: "true"},
			err:    ErrMissingOption,
		},
		{
			name:   "remove without kind",
			recipe: RecipeConfig{Type: RecipeRemoveFlag, Preset: "unleash", Key: "k", Value: "true"},
			err:    ErrMissingOption,
		},
		{
			name:   "find without patterns",
			recipe: RecipeConfig{Type: RecipeFindFlag, Key: "k"},
			err:    ErrMissingOption,
		},
		{
			name:   "merge without target",
			recipe: RecipeConfig{Type: RecipeMergeChain, Terminal: "example.com/b.B Build()"},
			err:    ErrMissingOption,
		},
		{
			name:   "one eliminator per preset pattern",
			recipe: RecipeConfig{Type: RecipeRemoveFlag, Preset: "unleash", Key: "k", Kind: "bool", Value: "false"},
			check: func(t *testing.T, recipes []Recipe) {
				require.Len(t, recipes, 2)
				for _, r := range recipes {
					assert.IsType(t, &eliminator.Eliminator{}, r)
				}
			},
		},
		{
			name:   "preset patterns filtered by kind",
			recipe: RecipeConfig{Type: RecipeRemoveFlag, Preset: "launchdarkly", Key: "k", Kind: "string", Value: "dark"},
			check: func(t *testing.T, recipes []Recipe) {
				assert.Len(t, recipes, 1)
			},
		},
		{
			name:   "change default without key",
			recipe: RecipeConfig{Type: RecipeChangeDefault, Preset: "launchdarkly", Kind: "bool", Value: "true"},
			err:    ErrMissingOption,
		},
		{
			name:   "one changer per preset pattern",
			recipe: RecipeConfig{Type: RecipeChangeDefault, Preset: "launchdarkly", Key: "k", Kind: "bool", Value: "true"},
			check: func(t *testing.T, recipes []Recipe) {
				require.Len(t, recipes, 1)
				assert.IsType(t, &defaults.Changer{}, recipes[0])
			},
		},
		{
			name:   "find",
			recipe: RecipeConfig{Type: RecipeFindFlag, Preset: "openfeature", Key: "k"},
			check: func(t *testing.T, recipes []Recipe) {
				require.Len(t, recipes, 1)
				assert.IsType(t, &finder.Finder{}, recipes[0])
			},
		},
		{
			name: "merge",
			recipe: RecipeConfig{
				Type:     RecipeMergeChain,
				Terminal: "example.com/b.B Build()",
				Target:   "example.com/b.B Private(..)",
				Keep:     "first",
			},
			check: func(t *testing.T, recipes []Recipe) {
				require.Len(t, recipes, 1)
				assert.IsType(t, &chain.Merger{}, recipes[0])
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			recipes, err := BuildRecipes(Config{Recipes: []RecipeConfig{tc.recipe}}, nil, nil)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			tc.check(t, recipes)
		})
	}
}
