package sweep

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the configuration file looked up in the working
// directory.
const DefaultConfigPath = ".flagsweep.yaml"

// Config is the content of a .flagsweep.yaml file.
type Config struct {
	Name            string         `yaml:"name"`
	MaxRounds       int            `yaml:"max-rounds"`
	WithSideEffects bool           `yaml:"with-side-effects"`
	Recipes         []RecipeConfig `yaml:"recipes"`
}

// RecipeConfig configures one recipe. Which fields apply depends on Type.
type RecipeConfig struct {
	Type string `yaml:"type"`

	// flag recipes
	Preset   string   `yaml:"preset,omitempty"`
	Patterns []string `yaml:"patterns,omitempty"`
	Key      string   `yaml:"key,omitempty"`
	Kind     string   `yaml:"kind,omitempty"`
	Value    string   `yaml:"value,omitempty"`

	// merge-chain
	Terminal   string `yaml:"terminal,omitempty"`
	Link       string `yaml:"link,omitempty"`
	Target     string `yaml:"target,omitempty"`
	MergedName string `yaml:"merged-name,omitempty"`
	Keep       string `yaml:"keep,omitempty"`
}

// ParseConfig reads a configuration file.
func ParseConfig(path string) (Config, error) {
	var config Config

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return config, nil
}

// DefaultConfig is the starter configuration written by `flagsweep init`.
func DefaultConfig() Config {
	return Config{
		Name:      "flagsweep",
		MaxRounds: 3,
		Recipes: []RecipeConfig{
			{
				Type:   RecipeRemoveFlag,
				Preset: "launchdarkly",
				Key:    "my-flag",
				Kind:   "bool",
				Value:  "true",
			},
		},
	}
}

// WriteConfig writes config to path. An existing file is not overwritten.
func WriteConfig(path string, config Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
