package urp

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = ".urp.yaml"

// Config holds the tables the parser consults. Every table is copied into
// the components at construction, so mutating a Config after NewParser has
// no effect on that parser.
type Config struct {
	IgnoredDirs        []string `yaml:"ignored_dirs"`
	IgnoreGlobs        []string `yaml:"ignore_globs"`
	BareSpecifierDirs  []string `yaml:"bare_specifier_dirs"`
	ProsePrefixes      []string `yaml:"prose_prefixes"`
	LanguageTags       []string `yaml:"language_tags"`
	MinContentLength   int      `yaml:"min_content_length"`
	ScriptExtensions   []string `yaml:"script_extensions"`
	MarkdownExtensions []string `yaml:"markdown_extensions"`
	LogLevel           string   `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		IgnoredDirs: []string{
			".git", ".svn", ".hg", "node_modules", "dist", "build", ".next",
			".nuxt", ".svelte-kit", ".turbo", ".cache", ".parcel-cache",
			".vercel", ".output", "coverage", "__pycache__",
		},
		BareSpecifierDirs: []string{
			"components", "hooks", "utils", "lib", "pages", "styles",
			"services", "context", "store", "types", "assets",
		},
		ProsePrefixes: []string{"Here is", "Here's", "Sure,", "I'll", "Let me", "The following"},
		LanguageTags: []string{
			"js", "jsx", "ts", "tsx", "javascript", "typescript", "json", "css",
			"scss", "html", "md", "markdown", "bash", "sh", "python", "py",
			"go", "yaml", "yml", "text", "plaintext", "diff",
		},
		MinContentLength:   10,
		ScriptExtensions:   []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".vue", ".svelte"},
		MarkdownExtensions: []string{".md", ".mdx", ".markdown"},
		LogLevel:           "warn",
	}
}

// LoadConfig reads a YAML config from path over DefaultConfig. A missing
// file is not an error; fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(file)
	return cfg, nil
}

func (c *Config) merge(o Config) {
	mergeList := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	mergeList(&c.IgnoredDirs, o.IgnoredDirs)
	mergeList(&c.IgnoreGlobs, o.IgnoreGlobs)
	mergeList(&c.BareSpecifierDirs, o.BareSpecifierDirs)
	mergeList(&c.ProsePrefixes, o.ProsePrefixes)
	mergeList(&c.LanguageTags, o.LanguageTags)
	mergeList(&c.ScriptExtensions, o.ScriptExtensions)
	mergeList(&c.MarkdownExtensions, o.MarkdownExtensions)
	if o.MinContentLength > 0 {
		c.MinContentLength = o.MinContentLength
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if e[0] != '.' {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}
