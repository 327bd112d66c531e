// Package config loads and validates the enumerated configuration of
// spec.md §6: the target schema, database connection, cache TTLs, the
// role-based-schema toggle, and the executor's depth/complexity budgets.
// Loading follows core/config.go's viper + normalization pattern, reduced
// to this module's single supported database type.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SupportedDBType is the only database_type this build understands.
// graphjin's teacher config lists eight; this spec names exactly one
// (spec.md §6), so the multi-dialect switch is not carried over.
const SupportedDBType = "postgres"

// Database holds connection parameters for the target Postgres instance.
type Database struct {
	URL      string `mapstructure:"url" jsonschema:"title=Connection URL"`
	Host     string `mapstructure:"host" jsonschema:"title=Host,default=localhost"`
	Port     int    `mapstructure:"port" jsonschema:"title=Port,default=5432"`
	User     string `mapstructure:"user" jsonschema:"title=User"`
	Password string `mapstructure:"password" jsonschema:"title=Password"`
	Name     string `mapstructure:"name" jsonschema:"title=Database Name"`
	SSLMode  string `mapstructure:"ssl_mode" jsonschema:"title=SSL Mode,default=disable"`
}

// CacheConfig controls the TTL shared by the golden schema, per-role
// privilege cache and per-role compiled GraphQL schema (spec.md §3.3).
type CacheConfig struct {
	SchemaTTLMinutes int `mapstructure:"schema_ttl_minutes" jsonschema:"title=Schema TTL (minutes),default=30"`
}

// SecurityConfig controls whether a restricted, per-role schema is served
// or the full golden schema regardless of role (spec.md §9 Open Question).
type SecurityConfig struct {
	RoleBasedSchema bool `mapstructure:"role_based_schema" jsonschema:"title=Role Based Schema,default=true"`
}

// GraphQLSecurity bounds query depth/complexity, delegated to the
// executor per spec.md §4.6.
type GraphQLSecurity struct {
	MaxQueryDepth      int `mapstructure:"max_query_depth" jsonschema:"title=Max Query Depth,default=10"`
	MaxQueryComplexity int `mapstructure:"max_query_complexity" jsonschema:"title=Max Query Complexity,default=1000"`
}

type GraphQLConfig struct {
	Security GraphQLSecurity `mapstructure:"security"`
}

// Config is the top-level configuration for the core.
type Config struct {
	AllowedSchema string        `mapstructure:"allowed_schema" jsonschema:"title=Allowed Schema,required"`
	DatabaseType  string        `mapstructure:"database_type" jsonschema:"title=Database Type,default=postgres"`
	Database      Database      `mapstructure:"database"`
	Cache         CacheConfig   `mapstructure:"cache"`
	Security      SecurityConfig `mapstructure:"security"`
	GraphQL       GraphQLConfig `mapstructure:"graphql"`

	// RequestTimeout is the per-request time budget honored by the
	// executor (spec.md §5, default 30s).
	RequestTimeout time.Duration `mapstructure:"request_timeout" jsonschema:"title=Request Timeout,default=30s"`
}

// defaults mirrors the default-setting half of core/config.go's
// NormalizeDatabases: fill every optional field before validation so the
// rest of the core never special-cases a zero value.
func defaults(v *viper.Viper) {
	v.SetDefault("database_type", SupportedDBType)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("cache.schema_ttl_minutes", 30)
	v.SetDefault("security.role_based_schema", true)
	v.SetDefault("graphql.security.max_query_depth", 10)
	v.SetDefault("graphql.security.max_query_complexity", 1000)
	v.SetDefault("request_timeout", 30*time.Second)
}

// Load reads configuration from the named file (if present) layered under
// environment variables prefixed DBGRAPHQL_, the way core/config.go layers
// file config under env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("dbgraphql")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration for errors, mirroring
// core/config.go's ValidateDBType/Validate pair restricted to Postgres.
func (c *Config) Validate() error {
	if c.AllowedSchema == "" {
		return fmt.Errorf("allowed_schema is required")
	}
	if c.DatabaseType != "" && !strings.EqualFold(c.DatabaseType, SupportedDBType) {
		return fmt.Errorf("unsupported database_type %q: only %q is supported", c.DatabaseType, SupportedDBType)
	}
	if c.Cache.SchemaTTLMinutes <= 0 {
		return fmt.Errorf("cache.schema_ttl_minutes must be positive")
	}
	if c.GraphQL.Security.MaxQueryDepth <= 0 {
		return fmt.Errorf("graphql.security.max_query_depth must be positive")
	}
	if c.GraphQL.Security.MaxQueryComplexity <= 0 {
		return fmt.Errorf("graphql.security.max_query_complexity must be positive")
	}
	return nil
}

// SchemaTTL returns the configured TTL as a time.Duration.
func (c *Config) SchemaTTL() time.Duration {
	return time.Duration(c.Cache.SchemaTTLMinutes) * time.Minute
}

// DSN renders a libpq-style connection string from Database, used when
// Database.URL is not supplied directly.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
