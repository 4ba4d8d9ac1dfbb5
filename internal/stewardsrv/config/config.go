package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port           string   `toml:"port"`
	HandleCORS     bool     `toml:"handle_cors"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	DbName       string `toml:"dbname"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"sslmode"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

func (d DatabaseConfig) Dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DbName, d.SSLMode)
}

type WarehouseConfig struct {
	APIURL       string `toml:"api_url"`
	APIToken     string `toml:"api_token"`
	SqlDsn       string `toml:"sql_dsn"`
	CacheTTL     string `toml:"cache_ttl"`
	ProbeOnStart bool   `toml:"probe_on_start"`
}

type SearchConfig struct {
	RebuildOnStart bool `toml:"rebuild_on_start"`
}

type SeedConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type AuthConfig struct {
	Enabled             bool   `toml:"enabled"`
	KeyEncryptionPasswd string `toml:"key_encryption_passwd"`
	TokenValidity       string `toml:"token_validity"`
}

type ComplianceConfig struct {
	RuleTimeoutMs int `toml:"rule_timeout_ms"`
}

type ProductsConfig struct {
	GenieSpaceDelay   string `toml:"genie_space_delay"`
	CompressRevisions bool   `toml:"compress_revisions"`
}

type ConfigParam struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Warehouse  WarehouseConfig  `toml:"warehouse"`
	Search     SearchConfig     `toml:"search"`
	Seed       SeedConfig       `toml:"seed"`
	Auth       AuthConfig       `toml:"auth"`
	Compliance ComplianceConfig `toml:"compliance"`
	Products   ProductsConfig   `toml:"products"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func LoadConfig(filename string) error {
	if filename == "" {
		cfg = defaultConfig()
		return nil
	}
	// Read the config file
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	// Parse the config file
	cp := defaultConfig()
	if _, err := toml.Decode(string(content), cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	// assign config to global cfg
	cfg = cp
	return nil
}

func defaultConfig() *ConfigParam {
	return &ConfigParam{
		Server: ServerConfig{
			Port:       "8291",
			HandleCORS: true,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			DbName:       "stewardcatalog",
			User:         "steward_api",
			Password:     "abc@123",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Warehouse: WarehouseConfig{
			APIURL:   "http://localhost:8080",
			CacheTTL: "5m",
		},
		Search: SearchConfig{
			RebuildOnStart: true,
		},
		Auth: AuthConfig{
			KeyEncryptionPasswd: "steward-dev-only",
			TokenValidity:       "1d",
		},
		Compliance: ComplianceConfig{
			RuleTimeoutMs: 500,
		},
		Products: ProductsConfig{
			GenieSpaceDelay:   "15s",
			CompressRevisions: true,
		},
	}
}

func ParseTokenDuration(input string) (time.Duration, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	// Extract the unit and the value from the input string
	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}

	// Convert the value to a duration based on the unit
	var duration time.Duration
	switch unit {
	case "s":
		duration = time.Duration(value) * time.Second
	case "m":
		duration = time.Duration(value) * time.Minute
	case "h":
		duration = time.Duration(value) * time.Hour
	case "d":
		duration = time.Duration(value) * 24 * time.Hour
	case "y":
		// Assuming 1 year = 365 days for simplicity
		duration = time.Duration(value) * 365 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}

	return duration, nil
}

// GenieSpaceDelay returns the simulated provisioning time for genie spaces.
func (c *ConfigParam) GenieSpaceDelay() time.Duration {
	d, err := ParseTokenDuration(c.Products.GenieSpaceDelay)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// WarehouseCacheTTL returns the listing cache lifetime.
func (c *ConfigParam) WarehouseCacheTTL() time.Duration {
	d, err := ParseTokenDuration(c.Warehouse.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// RuleTimeout returns the evaluation budget for one compliance rule call.
func (c *ConfigParam) RuleTimeout() time.Duration {
	if c.Compliance.RuleTimeoutMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Compliance.RuleTimeoutMs) * time.Millisecond
}

func init() {
	err := LoadConfig("")
	if err != nil {
		panic(err)
	}
}
