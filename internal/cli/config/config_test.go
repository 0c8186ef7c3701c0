package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{name: "bare host gets https", input: "admin.example.com", expected: "https://admin.example.com"},
		{name: "trailing slash stripped", input: "http://localhost:8080/", expected: "http://localhost:8080"},
		{name: "path kept", input: "https://example.com/admin/", expected: "https://example.com/admin"},
		{name: "surrounding spaces", input: "  http://127.0.0.1:8080 ", expected: "http://127.0.0.1:8080"},
		{name: "empty", input: "", shouldError: true},
		{name: "bad scheme", input: "ftp://example.com", shouldError: true},
		{name: "missing host", input: "http://", shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := &Config{Servers: []Server{
		{URL: "https://admin.example.com", Alias: "production"},
		{URL: "http://localhost:8080", Alias: "local", Insecure: true},
	}}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(loaded.Servers))
	}
	if !loaded.Servers[1].Insecure {
		t.Error("expected insecure flag to round trip")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := Save(filepath.Join(root, ConfigFileName), &Config{}); err != nil {
		t.Fatal(err)
	}

	chdir(t, nested)

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("expected config to be found: %v", err)
	}

	// Resolve symlinks so temp dirs on macOS compare equal
	want, _ := filepath.EvalSymlinks(filepath.Join(root, ConfigFileName))
	got, _ := filepath.EvalSymlinks(found)
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFindConfigFile_NotFound(t *testing.T) {
	chdir(t, t.TempDir())

	if _, err := FindConfigFile(); err == nil {
		t.Error("expected error when no config exists")
	}
}

func TestLookups(t *testing.T) {
	cfg := &Config{Servers: []Server{
		{URL: "https://a.example.com", Alias: "a"},
		{URL: "https://b.example.com", Alias: "b"},
	}}

	server, err := cfg.GetServerByAlias("b")
	if err != nil || server.URL != "https://b.example.com" {
		t.Errorf("alias lookup failed: %v %v", server, err)
	}

	server, err = cfg.GetServerByURL("https://a.example.com/")
	if err != nil || server.Alias != "a" {
		t.Errorf("URL lookup failed: %v %v", server, err)
	}

	if _, err := cfg.GetServerByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias")
	}

	server, err = cfg.GetDefaultServer()
	if err != nil || server.Alias != "a" {
		t.Errorf("default server: %v %v", server, err)
	}

	if _, err := (&Config{}).GetDefaultServer(); err == nil {
		t.Error("expected error for empty config")
	}
}
