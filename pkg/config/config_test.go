package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `yaml:"name"`
	Port  int      `yaml:"port"`
	Items []string `yaml:"items"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SITEMAPD_TEST_PORT", "9090")
	p := writeFile(t, "port: ${SITEMAPD_TEST_PORT}\nitems: [a, b]\n")

	s := sample{Name: "default"}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != 9090 {
		t.Errorf("port = %d, want 9090", s.Port)
	}
	if s.Name != "default" {
		t.Errorf("name = %q, default should survive", s.Name)
	}
	if len(s.Items) != 2 {
		t.Errorf("items = %v", s.Items)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	p := writeFile(t, "port: 1\nprot: 2\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := writeFile(t, "name: x\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	def := writeFile(t, "port: 7\n")
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Port != 7 {
		t.Errorf("port = %d, want 7", s.Port)
	}
}

func TestLoadWithDefaults_NoFallback(t *testing.T) {
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &s); err == nil {
		t.Fatal("expected error for missing file without fallback")
	}
}
