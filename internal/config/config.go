// Package config loads the optional config.toml file and decides which
// store to open.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"

	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/models"
)

// KeyringDatabase as the database location reads the connection string
// from the OS keyring.
const KeyringDatabase = "keyring"

// DefaultBackupInterval is how old the newest backup may get before an
// automatic one is taken.
const DefaultBackupInterval = 24 * time.Hour

// Config represents config.toml.
type Config struct {
	// Database is a SQLite path, a PostgreSQL URL without password,
	// "diskv:<dir>" or "keyring".
	Database string `toml:"database"`
	// Timezone applies when the store's own setting is left at "Local".
	Timezone string `toml:"timezone"`
	// AutosaveDelay applies when the store's own setting is the default.
	AutosaveDelay time.Duration `toml:"autosave_delay"`
	Debug         bool          `toml:"debug"`
	Backup        Backup        `toml:"backup"`

	// Path is where the file was looked for.
	Path string `toml:"-"`
}

type Backup struct {
	Auto     bool          `toml:"auto"`
	Interval time.Duration `toml:"interval"`
}

// Load reads the config file at path. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = constants.DefaultConfigFile
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if os.IsNotExist(err) {
		return &Config{Path: expanded}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", expanded, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", expanded, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse config file %s: unknown key %q", expanded, undecoded[0].String())
	}
	cfg.Path = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", expanded, err)
	}
	return &cfg, nil
}

// Validate checks the values that can be checked without opening a store.
func (c *Config) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil && c.Timezone != constants.DefaultTimezone {
			return fmt.Errorf("invalid timezone %q", c.Timezone)
		}
	}
	if c.AutosaveDelay < 0 {
		return errors.New("autosave_delay must not be negative")
	}
	if c.Backup.Interval < 0 {
		return errors.New("backup.interval must not be negative")
	}
	return nil
}

// BackupInterval returns the automatic backup interval.
func (c *Config) BackupInterval() time.Duration {
	if c.Backup.Interval > 0 {
		return c.Backup.Interval
	}
	return DefaultBackupInterval
}

// Source records where the database location came from.
type Source string

const (
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
	SourceFile    Source = "config file"
	SourceKeyring Source = "keyring"
	SourceDefault Source = "default"
)

// Database is a resolved store location.
type Database struct {
	Location string
	Source   Source
}

// Trusted reports whether the location may carry credentials. Only values
// from the environment or the keyring may.
func (d Database) Trusted() bool {
	return d.Source == SourceEnv || d.Source == SourceKeyring
}

// ResolveDatabase picks the store location. The connection env var wins,
// then the flag, then the config file, then the default path. The value
// "keyring" is replaced with the connection string stored in the keyring.
func ResolveDatabase(flag string, cfg *Config, getenv func(string) string, fromKeyring func() (string, error)) (Database, error) {
	var db Database
	switch {
	case getenv(constants.ConnectionEnvVar) != "":
		return Database{Location: getenv(constants.ConnectionEnvVar), Source: SourceEnv}, nil
	case flag != "":
		db = Database{Location: flag, Source: SourceFlag}
	case cfg != nil && cfg.Database != "":
		db = Database{Location: cfg.Database, Source: SourceFile}
	default:
		db = Database{Location: constants.DefaultConfigPath, Source: SourceDefault}
	}

	if db.Location == KeyringDatabase {
		connStr, err := fromKeyring()
		if err != nil {
			return Database{}, fmt.Errorf("failed to read connection string from keyring: %w", err)
		}
		return Database{Location: connStr, Source: SourceKeyring}, nil
	}

	loc, err := ExpandLocation(db.Location)
	if err != nil {
		return Database{}, err
	}
	db.Location = loc
	return db, nil
}

// ExpandLocation expands a leading ~ in file and diskv locations.
func ExpandLocation(loc string) (string, error) {
	if strings.HasPrefix(loc, "postgres://") || strings.HasPrefix(loc, "postgresql://") {
		return loc, nil
	}
	if rest, ok := strings.CutPrefix(loc, constants.DiskvPrefix); ok {
		expanded, err := homedir.Expand(rest)
		if err != nil {
			return "", fmt.Errorf("expand path %q: %w", rest, err)
		}
		return constants.DiskvPrefix + expanded, nil
	}
	expanded, err := homedir.Expand(loc)
	if err != nil {
		return "", fmt.Errorf("expand path %q: %w", loc, err)
	}
	return expanded, nil
}

// Effective combines the store settings with the file defaults. Store
// values win unless they are still the built-in defaults.
func (c *Config) Effective(s models.Settings) models.Settings {
	if c == nil {
		return s
	}
	if (s.Timezone == "" || s.Timezone == constants.DefaultTimezone) && c.Timezone != "" {
		s.Timezone = c.Timezone
	}
	if s.AutosaveDelayMs == constants.DefaultAutosaveDelayMs && c.AutosaveDelay > 0 {
		s.AutosaveDelayMs = int(c.AutosaveDelay / time.Millisecond)
	}
	return s
}
