package urp

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(conf, DefaultConfig()) {
		t.Fatalf("LoadConfig of a missing file = %#v, want defaults", conf)
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urp.yaml")
	data := "ignored_dirs: [vendor, tmp]\nmin_content_length: 4\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	conf, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(conf.IgnoredDirs, []string{"vendor", "tmp"}) {
		t.Errorf("IgnoredDirs = %q", conf.IgnoredDirs)
	}
	if conf.MinContentLength != 4 {
		t.Errorf("MinContentLength = %d, want 4", conf.MinContentLength)
	}
	if conf.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", conf.SlogLevel())
	}
	def := DefaultConfig()
	if !reflect.DeepEqual(conf.ProsePrefixes, def.ProsePrefixes) {
		t.Errorf("ProsePrefixes should keep defaults, got %q", conf.ProsePrefixes)
	}
	if !reflect.DeepEqual(conf.ScriptExtensions, def.ScriptExtensions) {
		t.Errorf("ScriptExtensions should keep defaults, got %q", conf.ScriptExtensions)
	}
}

func TestLoadConfigRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urp.yaml")
	if err := os.WriteFile(path, []byte("ignored_dirs: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestParserCopiesConfigTables(t *testing.T) {
	conf := DefaultConfig()
	p := NewParser(conf)
	conf.IgnoredDirs[0] = "src"
	if p.policy.IsIgnored("src/a.ts") {
		t.Fatal("mutating the Config after NewParser changed the parser")
	}
}

func TestExtensionSet(t *testing.T) {
	set := extensionSet([]string{"ts", ".TSX", " ", ".js"})
	for _, e := range []string{".ts", ".tsx", ".js"} {
		if _, ok := set[e]; !ok {
			t.Errorf("extensionSet missing %q", e)
		}
	}
	if len(set) != 3 {
		t.Errorf("extensionSet has %d entries, want 3", len(set))
	}
}
