// Package config loads YAML configuration for the world node and realm node
// binaries.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WorldNode holds all configuration for the world node server.
type WorldNode struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Connection handling
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // idle connection disconnect (default: 120s)
	SendQueueSize int           `yaml:"send_queue_size"` // per-connection outbox capacity (default: 256)

	// Metrics
	MetricsAddress string `yaml:"metrics_address"` // empty disables the /metrics listener
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	// Connection pool parameters (optional, defaults from pgxpool apply if not set)
	MaxConns          int32  `yaml:"max_conns"`           // default: max(4, NumCPU)
	MinConns          int32  `yaml:"min_conns"`           // default: 0
	MaxConnLifetime   string `yaml:"max_conn_lifetime"`   // duration, e.g. "1h"
	MaxConnIdleTime   string `yaml:"max_conn_idle_time"`  // duration, e.g. "30m"
	HealthCheckPeriod string `yaml:"health_check_period"` // duration, e.g. "1m"
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if d.MaxConnLifetime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_lifetime=%s", d.MaxConnLifetime))
	}
	if d.MaxConnIdleTime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_idle_time=%s", d.MaxConnIdleTime))
	}
	if d.HealthCheckPeriod != "" {
		params = append(params, fmt.Sprintf("pool_health_check_period=%s", d.HealthCheckPeriod))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// DefaultWorldNode returns WorldNode config with sensible defaults.
func DefaultWorldNode() WorldNode {
	return WorldNode{
		BindAddress:   "0.0.0.0",
		Port:          8085,
		LogLevel:      "info",
		WriteTimeout:  5 * time.Second,
		ReadTimeout:   120 * time.Second,
		SendQueueSize: 256,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "worldnode",
			Password: "worldnode",
			DBName:   "worldnode",
			SSLMode:  "disable",
		},
	}
}

// LoadWorldNode loads world node config from a YAML file. If the file
// doesn't exist, returns defaults.
func LoadWorldNode(path string) (WorldNode, error) {
	cfg := DefaultWorldNode()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// RealmEntry describes one realm advertised by the realm-list endpoint.
type RealmEntry struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RealmNode holds configuration for the realm-list endpoint.
type RealmNode struct {
	BindAddress string       `yaml:"bind_address"`
	Port        int          `yaml:"port"`
	LogLevel    string       `yaml:"log_level"`
	Realms      []RealmEntry `yaml:"realms"`
}

// DefaultRealmNode returns RealmNode config with a single local realm entry.
func DefaultRealmNode() RealmNode {
	return RealmNode{
		BindAddress: "0.0.0.0",
		Port:        3724,
		LogLevel:    "info",
		Realms: []RealmEntry{
			{ID: 1, Name: "Avalon", Host: "127.0.0.1", Port: 8085},
		},
	}
}

// LoadRealmNode loads realm node config from a YAML file. If the file
// doesn't exist, returns defaults.
func LoadRealmNode(path string) (RealmNode, error) {
	cfg := DefaultRealmNode()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
