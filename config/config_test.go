package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
entry = "app/Hello.class"
classpath = ["classes", "lib"]
max-attribute-depth = 4

[properties]
"java.version" = "17"
user = "jolt"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Entry != "app/Hello.class" {
		t.Errorf("entry = %q, want app/Hello.class", cfg.Entry)
	}
	if cfg.EntryPath() != filepath.Join(dir, "app", "Hello.class") {
		t.Errorf("entry path = %q", cfg.EntryPath())
	}
	if len(cfg.Classpath) != 2 {
		t.Fatalf("classpath count = %d, want 2", len(cfg.Classpath))
	}
	dirs := cfg.ClasspathDirs()
	if dirs[0] != filepath.Join(dir, "classes") || dirs[1] != filepath.Join(dir, "lib") {
		t.Errorf("classpath dirs = %v", dirs)
	}
	if cfg.MaxAttributeDepth != 4 {
		t.Errorf("max-attribute-depth = %d, want 4", cfg.MaxAttributeDepth)
	}
	if cfg.Properties["java.version"] != "17" || cfg.Properties["user"] != "jolt" {
		t.Errorf("properties = %v", cfg.Properties)
	}
	if got := strings.Join(cfg.PropertyList(), " "); got != "java.version=17 user=jolt" {
		t.Errorf("property list = %q", got)
	}
	if len(cfg.DecodeOptions()) != 1 {
		t.Errorf("decode options = %d, want 1", len(cfg.DecodeOptions()))
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Entry != "Main.class" || cfg.MaxAttributeDepth != 8 {
			t.Errorf("defaults = %+v", cfg)
		}
		if cfg.Dir != dir {
			t.Errorf("dir = %q, want %q", cfg.Dir, dir)
		}
		if got := cfg.ClasspathDirs(); len(got) != 1 || got[0] != dir {
			t.Errorf("classpath dirs = %v, want [%s]", got, dir)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, `entry = "Other.class"`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Entry != "Other.class" {
			t.Errorf("entry = %q, want Other.class", cfg.Entry)
		}
		if cfg.MaxAttributeDepth != 8 || len(cfg.Classpath) != 1 || cfg.Classpath[0] != "." {
			t.Errorf("defaults lost: %+v", cfg)
		}
	})
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty entry", `entry = ""`, "entry must not be empty"},
		{"zero depth", `max-attribute-depth = 0`, "max-attribute-depth"},
		{"unknown key", `entrypoint = "Main.class"`, "unknown key"},
		{"bad syntax", `entry = `, "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
