package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cheatsheet/internal/layout"
	"github.com/starford/cheatsheet/internal/measure"
	"github.com/starford/cheatsheet/internal/sheetservice"
	"github.com/starford/cheatsheet/internal/storage"
	"github.com/starford/cheatsheet/internal/watcher"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app" toml:"app"`
	Storage StorageConfig     `yaml:"storage" toml:"storage"`
	Layout  LayoutConfig      `yaml:"layout" toml:"layout"`
	Auth    AuthConfig        `yaml:"auth" toml:"auth"`
	Watch   WatchConfig       `yaml:"watch" toml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level" toml:"log_level"`
	LogFormat string     `yaml:"log_format" toml:"log_format"`
	HTTP      HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the key-value backend holding the document.
type StorageConfig struct {
	Driver string       `yaml:"driver" toml:"driver"`
	Key    string       `yaml:"key" toml:"key"`
	FS     FSConfig     `yaml:"fs" toml:"fs"`
	SQLite SQLiteConfig `yaml:"sqlite" toml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis" toml:"redis"`
	Mongo  MongoConfig  `yaml:"mongo" toml:"mongo"`
}

// Validate validates the storage configuration. Only the selected driver's
// section is required.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = storage.DriverFS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(storage.DriverFS, storage.DriverSQLite, storage.DriverRedis, storage.DriverMongo)),
		validation.Field(&c.Key, validation.Required),
	); err != nil {
		return err
	}
	switch c.Driver {
	case storage.DriverFS:
		return validation.ValidateStruct(&c.FS, validation.Field(&c.FS.Path, validation.Required))
	case storage.DriverSQLite:
		return validation.ValidateStruct(&c.SQLite, validation.Field(&c.SQLite.Path, validation.Required))
	case storage.DriverRedis:
		return validation.ValidateStruct(&c.Redis, validation.Field(&c.Redis.Addr, validation.Required))
	default:
		return validation.ValidateStruct(&c.Mongo,
			validation.Field(&c.Mongo.URI, validation.Required),
			validation.Field(&c.Mongo.Database, validation.Required),
		)
	}
}

// Options converts the section into storage.Open options.
func (c *StorageConfig) Options() storage.Options {
	return storage.Options{
		Driver:     c.Driver,
		FSPath:     c.FS.Path,
		SQLitePath: c.SQLite.Path,
		Redis: storage.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
		Mongo: storage.MongoOptions{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
		},
	}
}

// FSConfig holds the directory of the file backend.
type FSConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `yaml:"uri" toml:"uri"`
	Database   string `yaml:"database" toml:"database"`
	Collection string `yaml:"collection" toml:"collection"`
}

// LayoutConfig holds the page geometry used by auto-distribution.
type LayoutConfig struct {
	PageWidthMm  float64       `yaml:"page_width_mm" toml:"page_width_mm"`
	PageHeightMm float64       `yaml:"page_height_mm" toml:"page_height_mm"`
	MarginPx     int           `yaml:"margin_px" toml:"margin_px"`
	ColumnGapPx  int           `yaml:"column_gap_px" toml:"column_gap_px"`
	SettleDelay  time.Duration `yaml:"settle_delay" toml:"settle_delay"`
}

// Validate validates the layout configuration.
func (c *LayoutConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PageWidthMm, validation.Required, validation.Min(50.0)),
		validation.Field(&c.PageHeightMm, validation.Required, validation.Min(50.0)),
		validation.Field(&c.MarginPx, validation.Min(0)),
		validation.Field(&c.ColumnGapPx, validation.Min(0)),
		validation.Field(&c.SettleDelay, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	g := c.Geometry()
	if g.Capacity() <= 0 || g.ColumnWidth() <= 0 {
		return fmt.Errorf("layout: margin or gap leaves no room for blocks")
	}
	return nil
}

// Geometry returns the page geometry described by c.
func (c *LayoutConfig) Geometry() layout.Geometry {
	return layout.Geometry{
		Page:        layout.PageSize{WidthMm: c.PageWidthMm, HeightMm: c.PageHeightMm},
		MarginPx:    c.MarginPx,
		ColumnGapPx: c.ColumnGapPx,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// WatchConfig controls reloading after external edits of the fs backend.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Debounce time.Duration `yaml:"debounce" toml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	landscape := layout.A4.Landscape()
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: storage.DriverFS,
			Key:    sheetservice.DefaultKey,
			FS:     FSConfig{Path: "./data"},
			SQLite: SQLiteConfig{Path: "./cheatsheet.db"},
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "cheatsheet:"},
			Mongo:  MongoConfig{Database: "cheatsheet", Collection: "documents"},
		},
		Layout: LayoutConfig{
			PageWidthMm:  landscape.WidthMm,
			PageHeightMm: landscape.HeightMm,
			MarginPx:     layout.DefaultMarginPx,
			ColumnGapPx:  layout.DefaultColumnGapPx,
			SettleDelay:  measure.DefaultSettleDelay,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: watcher.DefaultDebounce,
		},
	}
}
