package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name" toml:"name"`
	Port    int           `yaml:"port" toml:"port"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "sheet")
	path := writeFile(t, "c.yaml", "name: ${SAMPLE_NAME}\nport: 9000\ntimeout: 150ms\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "sheet" || s.Port != 9000 || s.Timeout != 150*time.Millisecond {
		t.Errorf("got %+v", s)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "c.toml", "name = \"sheet\"\nport = 9001\ntimeout = \"2s\"\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "sheet" || s.Port != 9001 || s.Timeout != 2*time.Second {
		t.Errorf("got %+v", s)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "c.yaml", "name: x\nport: 0\n")

	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadOptionalMissingKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" || s.Port != 8080 {
		t.Errorf("got %+v", s)
	}

	bad := sample{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &bad); err == nil {
		t.Error("invalid defaults should still fail validation")
	}
}

func TestLoadWithDefaultsFallsBack(t *testing.T) {
	def := writeFile(t, "default.yaml", "port: 7000\n")

	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), def, &s); err != nil {
		t.Fatal(err)
	}
	if s.Port != 7000 {
		t.Errorf("port = %d", s.Port)
	}
}
