package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartpad/landing/backend/landing"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the service configuration. It is read from an optional YAML file
// and then overridden from the environment.
type Config struct {
	Server struct {
		Port           string        `yaml:"port"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Driver     string `yaml:"driver"`
		URL        string `yaml:"url"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Auth struct {
		Keys           []APIKey `yaml:"keys"`
		AnonymousRoles []string `yaml:"anonymous_roles"`
	} `yaml:"auth"`

	Rules struct {
		Default        string             `yaml:"default"`
		Obstacles      map[string]float64 `yaml:"obstacles"`
		MinClearanceFt *float64           `yaml:"min_clearance_ft"`
	} `yaml:"rules"`

	Cache struct {
		Size int           `yaml:"size"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Helipads struct {
		MatchRadiusNM float64       `yaml:"match_radius_nm"`
		Seed          []HelipadSeed `yaml:"seed"`
	} `yaml:"helipads"`
}

// APIKey grants roles to callers presenting Key.
type APIKey struct {
	Key     string   `yaml:"key"`
	Subject string   `yaml:"subject"`
	Roles   []string `yaml:"roles"`
}

// HelipadSeed is a helipad loaded into the in-memory store at startup.
type HelipadSeed struct {
	Name        string             `yaml:"name"`
	Latitude    float64            `yaml:"latitude"`
	Longitude   float64            `yaml:"longitude"`
	ElevationFt float64            `yaml:"elevation_ft"`
	Description string             `yaml:"description"`
	Obstacles   map[string]float64 `yaml:"obstacles"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.RequestTimeout = 60 * time.Second
	cfg.Log.Level = "info"
	cfg.Auth.AnonymousRoles = []string{"pilot"}
	cfg.Rules.Default = landing.RuleSetConfinedArea
	cfg.Cache.Size = 1024
	cfg.Cache.TTL = 30 * time.Minute
	cfg.Helipads.MatchRadiusNM = 0.5
	return cfg
}

// Load reads path (if non-empty), applies environment overrides and checks
// the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.resolveDriver()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if raw := getenv("ALLOWED_ORIGINS"); raw != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if url := getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if driver := getenv("DATABASE_DRIVER"); driver != "" {
		c.Database.Driver = strings.ToLower(driver)
	}
	if path := getenv("SQLITE_PATH"); path != "" {
		c.Database.SQLitePath = path
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if file := getenv("LOG_FILE"); file != "" {
		c.Log.File = file
	}
	if name := getenv("DEFAULT_RULE_SET"); name != "" {
		c.Rules.Default = name
	}
	if raw := getenv("MIN_CLEARANCE_FT"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("MIN_CLEARANCE_FT: %w", err)
		}
		c.Rules.MinClearanceFt = &v
	}
	if raw := getenv("API_KEYS"); raw != "" {
		keys, err := parseAPIKeys(raw)
		if err != nil {
			return err
		}
		c.Auth.Keys = keys
	}
	return nil
}

// parseAPIKeys parses "key:subject:role|role,key2:subject2:role".
func parseAPIKeys(raw string) ([]APIKey, error) {
	var keys []APIKey
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("API_KEYS entry %q must be key:subject:roles", entry)
		}
		var roles []string
		for _, role := range strings.Split(parts[2], "|") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
		keys = append(keys, APIKey{Key: parts[0], Subject: parts[1], Roles: roles})
	}
	return keys, nil
}

func (c *Config) resolveDriver() {
	if c.Database.Driver != "" {
		return
	}
	switch {
	case c.Database.URL != "":
		c.Database.Driver = DriverPostgres
	case c.Database.SQLitePath != "":
		c.Database.Driver = DriverSQLite
	default:
		c.Database.Driver = DriverMemory
	}
}

// Validate reports configuration that cannot produce a working service.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("database.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache.size must be positive"))
	}
	if c.Helipads.MatchRadiusNM < 0 {
		errs = append(errs, errors.New("helipads.match_radius_nm must not be negative"))
	}
	for i, k := range c.Auth.Keys {
		if strings.TrimSpace(k.Key) == "" {
			errs = append(errs, fmt.Errorf("auth.keys[%d]: key is required", i))
		}
	}
	if _, err := c.RuleRegistry(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RuleRegistry builds the rule sets with any configured overrides applied to
// every built-in set. Obstacle overrides replace individual directions and
// leave the others at their defaults.
func (c *Config) RuleRegistry() (*landing.Registry, error) {
	sets := []landing.RuleSet{landing.ConfinedAreaRules(), landing.PerformanceClassRules()}

	if len(c.Rules.Obstacles) > 0 {
		table, err := landing.ParseObstacleTable(c.Rules.Obstacles)
		if err != nil {
			return nil, fmt.Errorf("rules.obstacles: %w", err)
		}
		for i := range sets {
			merged := sets[i].Obstacles.Clone()
			for dir, h := range table {
				merged[dir] = h
			}
			sets[i] = sets[i].WithObstacles(merged)
		}
	}
	if c.Rules.MinClearanceFt != nil {
		for i := range sets {
			sets[i] = sets[i].WithMinClearance(*c.Rules.MinClearanceFt)
		}
	}

	return landing.NewRegistry(c.Rules.Default, sets...)
}
