package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// Environment overrides, applied on top of the config file.
const (
	EnvServerURL = "RAGBOT_SERVER_URL"
	EnvMaxChunks = "RAGBOT_MAX_CHUNKS"
)

// DefaultMaxChunks is how many source excerpts are requested per query when
// neither the config file nor the environment says otherwise.
const DefaultMaxChunks = 5

// DefaultServerURL is the backend host used when nothing else is configured.
const DefaultServerURL = "http://localhost:8000"

// LoadConfig loads a ragbot config file from the specified directory
func LoadConfig(configDir string) (*RagbotConfig, error) {
	if configDir == "" {
		return nil, fmt.Errorf("config directory is required")
	}

	foundFile, err := FindConfigFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("no ragbot config file (yaml/toml/json) found in %s", configDir)
	}

	return LoadConfigFile(foundFile)
}

// LoadConfigFile loads a specific ragbot config file
func LoadConfigFile(filePath string) (*RagbotConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	fileExt := strings.ToLower(filepath.Ext(filePath))

	var config RagbotConfig
	switch fileExt {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filePath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file %s: %w", filePath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file %s: %w", filePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", fileExt)
	}

	return &config, nil
}

// FindConfigFile searches for ragbot config files (yaml/toml/json) in the specified directory
func FindConfigFile(searchPath string) (string, error) {
	if searchPath == "" {
		return "", fmt.Errorf("search path is required")
	}

	for _, configFile := range SupportedRagbotConfigFiles {
		fullPath := filepath.Join(searchPath, configFile)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("no ragbot config file (yaml/toml/json) found in %s", searchPath)
}

// IsConfigFile checks if the given file path is a ragbot config file
func IsConfigFile(filePath string) bool {
	baseName := filepath.Base(filePath)

	for _, configFile := range SupportedRagbotConfigFiles {
		if baseName == configFile {
			return true
		}
	}
	return false
}

// SaveConfig saves a ragbot.yaml configuration file
func SaveConfig(config *RagbotConfig, configPath string) error {
	if configPath == "" {
		configPath = "ragbot.yaml"
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClientConfig is the resolved connection configuration: flags take
// precedence over environment variables, which take precedence over the
// config file, which takes precedence over defaults.
type ClientConfig struct {
	URL            string
	Project        string
	MaxChunks      int
	IncludeSources bool
}

// GetClientConfig resolves the client configuration. A missing config file is
// not an error: flags and environment alone are enough to talk to a server.
func GetClientConfig(configDir string, serverURL string, project string) (*ClientConfig, error) {
	cfg, err := LoadConfig(configDir)
	if err != nil {
		cfg = &RagbotConfig{}
	}

	resolved := &ClientConfig{
		URL:            serverURL,
		Project:        project,
		MaxChunks:      cfg.MaxChunks,
		IncludeSources: true,
	}

	if resolved.URL == "" {
		resolved.URL = strings.TrimSpace(os.Getenv(EnvServerURL))
	}
	if resolved.URL == "" {
		resolved.URL = cfg.ServerURL
	}
	if resolved.URL == "" {
		resolved.URL = DefaultServerURL
	}

	if resolved.Project == "" {
		resolved.Project = strings.TrimSpace(cfg.Project)
	}

	if v := strings.TrimSpace(os.Getenv(EnvMaxChunks)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			resolved.MaxChunks = n
		}
	}
	if resolved.MaxChunks <= 0 {
		resolved.MaxChunks = DefaultMaxChunks
	}

	if cfg.IncludeSources != nil {
		resolved.IncludeSources = *cfg.IncludeSources
	}

	return resolved, nil
}
