package config

// ModelsConfig maps short aliases to upstream model identifiers. Aliases are
// an ordered list, not a map: the parser tries them in declaration order and
// the first match wins, so order in models.yaml is part of the contract.
type ModelsConfig struct {
	DefaultModel string        `yaml:"default_model"`
	Aliases      []AliasConfig `yaml:"aliases"`
}

type AliasConfig struct {
	Key          string `yaml:"key"`
	Model        string `yaml:"model"`
	DeepThinking bool   `yaml:"deep_thinking"`
}
