// Package config loads server configuration from the environment.
// Every setting is read from a TODOLISTD_-prefixed variable, e.g.
// TODOLISTD_DEBUG or TODOLISTD_DATABASE_URL.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all configuration environment variables.
const EnvPrefix = "TODOLISTD"

// Config holds the server configuration.
type Config struct {
	// Debug enables debug-level logging and relaxes the secret key
	// requirement. Never enable in production.
	Debug bool
	// AllowedHosts is the set of Host header values the server accepts.
	// Empty means no restriction.
	AllowedHosts []string
	// SecretKey is required when Debug is off; it has no use inside the
	// server itself but deployments hang session/signing material on it.
	SecretKey string
	// DatabaseURL selects the PostgreSQL backend when set to a
	// postgres:// URL. When empty, the server falls back to a local
	// SQLite file at DBPath.
	DatabaseURL string
	// DBPath is where the fallback SQLite database file lives.
	DBPath string
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("debug", false)
	v.SetDefault("allowed_hosts", "")
	v.SetDefault("secret_key", "")
	v.SetDefault("database_url", "")
	v.SetDefault("db_path", "todolistd.db")
	v.SetDefault("listen_addr", ":8080")

	cfg := Config{
		Debug:        v.GetBool("debug"),
		AllowedHosts: splitHosts(v.GetString("allowed_hosts")),
		SecretKey:    v.GetString("secret_key"),
		DatabaseURL:  v.GetString("database_url"),
		DBPath:       v.GetString("db_path"),
		ListenAddr:   v.GetString("listen_addr"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !c.Debug && c.SecretKey == "" {
		return fmt.Errorf("config: %s_SECRET_KEY must be set when debug is off", EnvPrefix)
	}
	return nil
}

// UsesPostgres reports whether the database URL selects the PostgreSQL
// backend.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") ||
		strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// splitHosts parses a comma- or whitespace-separated host list.
func splitHosts(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	hosts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			hosts = append(hosts, f)
		}
	}
	return hosts
}
