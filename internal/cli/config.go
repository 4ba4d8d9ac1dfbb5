package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// Config represents the configuration for the Steward CLI
// It contains server connection details and authentication information
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// Server is the host and port of the Steward server
	Server string `yaml:"server"`
	// APIKey is an optional bearer token for the Steward server
	APIKey string `yaml:"api_key,omitempty"`
}

var config *Config

// GetDefaultConfigPath returns the default path for the config file,
// ~/.steward/config.yaml.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".steward", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the specified file
// If no file is specified, it uses the default config location
func LoadConfig(file string) error {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get default config path: %w", err)
		}
	}

	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var c Config
	if err = yaml.Unmarshal(yamlStr, &c); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}

	// Validate required fields
	if c.Server == "" {
		return errors.New("server is required")
	}
	if !strings.Contains(c.Server, ":") {
		return errors.New("server must include port number")
	}

	// Morph the server URL before storing
	c.Server = MorphServer(c.Server)

	config = &c
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	return config
}

// WriteConfig writes the current configuration to the specified file
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), os.ModePerm)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, yamlStr, os.FileMode(0644))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// ValidateConfig validates the configuration
// Checks for required fields and proper formatting
func (cfg *Config) ValidateConfig() error {
	if cfg.Server == "" {
		return errors.New("server is required")
	}
	if !strings.Contains(cfg.Server, ":") {
		return errors.New("server must include port number")
	}
	return nil
}

// Print prints the current configuration in a human-readable format
func (cfg *Config) Print() {
	fmt.Printf("Server: %s\n", cfg.GetServerURL())
	if cfg.APIKey != "" {
		fmt.Println("API key: configured")
	}
}

// MorphServer ensures the server URL is properly formatted
// Adds http:// prefix if missing and removes trailing slashes
func MorphServer(server string) string {
	if server == "" {
		return server
	}

	// Remove any trailing slashes
	server = strings.TrimRight(server, "/")

	// Add http:// if no protocol is specified
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}

	return server
}

// GetServerURL returns the properly formatted server URL
func (cfg *Config) GetServerURL() string {
	return MorphServer(cfg.Server)
}
