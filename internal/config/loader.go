package config

import (
	"fmt"
	"strings"

	"github.com/rpattn/sortable/internal/db"
	"github.com/rpattn/sortable/pkg/sortspec"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// SortingConfig holds the default compilation policy and per-type
// allow-list overrides. Fields maps a type name to the sortable field
// names exposed for it; types absent from the map keep their built-in
// allow-lists.
type SortingConfig struct {
	Policy              sortspec.Policy
	AllowHeaderOverride bool
	Fields              map[string][]string
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Sorting  SortingConfig
}

// Default returns the configuration used when no config file or
// environment overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
		Sorting: SortingConfig{
			Policy:              sortspec.Lenient,
			AllowHeaderOverride: true,
		},
	}
}

func Load(configPath string) (Config, error) {
	// Start with defaults
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()           // allow environment overrides
	v.SetEnvPrefix("SORTABLE") // map env vars like SORTABLE_DATABASE_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Optional: Map nested keys to flat env vars
	v.BindEnv("server.addr")
	v.BindEnv("server.cors_origins")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("sorting.policy")
	v.BindEnv("sorting.allow_header_override")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.cors_origins") {
		cfg.Server.CORSOrigins = v.GetStringSlice("server.cors_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("sorting.policy") {
		policy, err := sortspec.ParsePolicy(v.GetString("sorting.policy"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid sorting.policy: %w", err)
		}
		cfg.Sorting.Policy = policy
	}
	if v.IsSet("sorting.allow_header_override") {
		cfg.Sorting.AllowHeaderOverride = v.GetBool("sorting.allow_header_override")
	}
	if v.IsSet("sorting.fields") {
		cfg.Sorting.Fields = v.GetStringMapStringSlice("sorting.fields")
	}

	return cfg, nil
}
