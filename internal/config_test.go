package internal

import (
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/cheatsheet/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	g := cfg.Layout.Geometry()
	if g.Capacity() != 788 || g.ColumnWidth() != 354 {
		t.Errorf("geometry = %d/%d, want 788/354", g.Capacity(), g.ColumnWidth())
	}
}

func TestStorageConfig_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StorageConfig)
		wantErr bool
	}{
		{"fs default", func(c *StorageConfig) {}, false},
		{"empty driver means fs", func(c *StorageConfig) { c.Driver = "" }, false},
		{"unknown driver", func(c *StorageConfig) { c.Driver = "etcd" }, true},
		{"missing key", func(c *StorageConfig) { c.Key = "" }, true},
		{"fs without path", func(c *StorageConfig) { c.FS.Path = "" }, true},
		{"sqlite", func(c *StorageConfig) { c.Driver = "sqlite" }, false},
		{"redis without addr", func(c *StorageConfig) { c.Driver = "redis"; c.Redis.Addr = "" }, true},
		{"mongo without uri", func(c *StorageConfig) { c.Driver = "mongo" }, true},
		{"mongo", func(c *StorageConfig) { c.Driver = "mongo"; c.Mongo.URI = "mongodb://localhost" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Storage
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageConfig_Options(t *testing.T) {
	cfg := NewDefaultConfig().Storage
	cfg.Driver = "redis"
	cfg.Redis.DB = 3
	opts := cfg.Options()
	if opts.Driver != "redis" || opts.Redis.DB != 3 || opts.Redis.Prefix != "cheatsheet:" || opts.FSPath != "./data" {
		t.Errorf("options = %+v", opts)
	}
}

func TestLayoutConfig_Invalid(t *testing.T) {
	cfg := NewDefaultConfig().Layout
	cfg.ColumnGapPx = 2000
	if err := cfg.Validate(); err == nil {
		t.Error("oversized gap should fail")
	}

	cfg = NewDefaultConfig().Layout
	cfg.PageHeightMm = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero page height should fail")
	}
}

func TestApplicationConfig_LogFormat(t *testing.T) {
	cfg := NewDefaultConfig().App
	cfg.LogFormat = ""
	if err := cfg.Validate(); err != nil || cfg.LogFormat != LogFormatJSON {
		t.Fatalf("empty format: err=%v format=%q", err, cfg.LogFormat)
	}
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log format should fail")
	}
}

func TestExampleConfigs_Load(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("APP_AUTH_TOKEN", "")

	yamlCfg := NewDefaultConfig()
	if err := pkgconfig.Load("../config/config.yaml", yamlCfg); err != nil {
		t.Fatalf("config.yaml: %v", err)
	}
	if yamlCfg.App.LogFormat != LogFormatText || yamlCfg.Layout.SettleDelay != 150*time.Millisecond {
		t.Errorf("yaml app=%+v layout=%+v", yamlCfg.App, yamlCfg.Layout)
	}

	tomlCfg := NewDefaultConfig()
	if err := pkgconfig.Load("../config/config.toml", tomlCfg); err != nil {
		t.Fatalf("config.toml: %v", err)
	}
	if tomlCfg.Storage.Driver != "sqlite" || tomlCfg.Watch.Enabled {
		t.Errorf("toml storage=%+v watch=%+v", tomlCfg.Storage, tomlCfg.Watch)
	}
}
