package config

// Config file constants (searched in this order)
var (
	// SupportedRagbotConfigFiles lists all supported ragbot config file names
	SupportedRagbotConfigFiles = []string{
		"ragbot.yaml",
		"ragbot.yml",
		"ragbot.toml",
		"ragbot.json",
	}
)

// RagbotConfig represents the complete ragbot configuration
type RagbotConfig struct {
	Version        string `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty"`
	ServerURL      string `yaml:"server_url,omitempty" toml:"server_url,omitempty" json:"server_url,omitempty"`
	Project        string `yaml:"project,omitempty" toml:"project,omitempty" json:"project,omitempty"`
	MaxChunks      int    `yaml:"max_chunks,omitempty" toml:"max_chunks,omitempty" json:"max_chunks,omitempty"`
	IncludeSources *bool  `yaml:"include_sources,omitempty" toml:"include_sources,omitempty" json:"include_sources,omitempty"`
}
