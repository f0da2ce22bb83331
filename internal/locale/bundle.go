// Package locale loads YAML translation bundles and serves them through the
// cmd.Locale interface.
//
// A bundle file is a nested YAML mapping. Keys are addressed by their dotted
// path, e.g. "common.noGuildPerms" or "commands.role.commands.add.rolesAdded".
package locale

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

type catalog struct {
	strings  map[string]string
	prefixes map[string]struct{}
}

func newCatalog() *catalog {
	return &catalog{strings: make(map[string]string), prefixes: make(map[string]struct{})}
}

func (c *catalog) flatten(prefix string, v any) error {
	switch t := v.(type) {
	case map[string]any:
		if prefix != "" {
			c.prefixes[prefix] = struct{}{}
		}
		for k, child := range t {
			if err := c.flatten(join(prefix, k), child); err != nil {
				return err
			}
		}
	case []any:
		lines := make([]string, len(t))
		for i, item := range t {
			lines[i] = fmt.Sprint(item)
		}
		c.strings[prefix] = strings.Join(lines, "\n")
	case nil:
		c.strings[prefix] = ""
	default:
		if prefix == "" {
			return fmt.Errorf("top level must be a mapping, got %T", v)
		}
		c.strings[prefix] = fmt.Sprint(t)
	}
	return nil
}

// Bundle holds one catalog per language tag. Missing keys fall back to the
// fallback language before rendering as their own path.
type Bundle struct {
	mu       sync.RWMutex
	fallback string
	catalogs map[string]*catalog
	matcher  language.Matcher
	tags     []string
}

// NewBundle loads the embedded catalogs. fallback must be one of them.
func NewBundle(fallback string) (*Bundle, error) {
	b := &Bundle{fallback: fallback, catalogs: make(map[string]*catalog)}

	files, err := fs.Glob(embedded, "locales/*.yaml")
	if err != nil {
		return nil, err
	}
	for _, name := range files {
		f, err := embedded.Open(name)
		if err != nil {
			return nil, err
		}
		err = b.Load(strings.TrimSuffix(path.Base(name), ".yaml"), f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	if !b.Has(fallback) {
		return nil, fmt.Errorf("fallback locale %q is not bundled", fallback)
	}
	return b, nil
}

// Load parses a YAML catalog for tag, replacing any previous one.
func (b *Bundle) Load(tag string, r io.Reader) error {
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("locale %q: %w", tag, err)
	}

	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return fmt.Errorf("locale %q: %w", tag, err)
	}
	c := newCatalog()
	if err := c.flatten("", doc); err != nil {
		return fmt.Errorf("locale %q: %w", tag, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[tag] = c
	b.rebuildMatcher()
	return nil
}

// LoadFile loads a single *.yaml file named after its tag.
func (b *Bundle) LoadFile(file string) error {
	f, err := openFile(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.Load(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)), f)
}

// LoadDir loads every *.yaml file in dir.
func (b *Bundle) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := b.LoadFile(f); err != nil {
			return err
		}
	}
	return nil
}

// rebuildMatcher keeps the fallback first so unmatched tags resolve to it.
func (b *Bundle) rebuildMatcher() {
	b.tags = b.tags[:0]
	for tag := range b.catalogs {
		if tag != b.fallback {
			b.tags = append(b.tags, tag)
		}
	}
	sort.Strings(b.tags)
	if _, ok := b.catalogs[b.fallback]; ok {
		b.tags = append([]string{b.fallback}, b.tags...)
	}

	parsed := make([]language.Tag, len(b.tags))
	for i, t := range b.tags {
		parsed[i] = language.Make(t)
	}
	b.matcher = language.NewMatcher(parsed)
}

// Tags lists the loaded languages, fallback first.
func (b *Bundle) Tags() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.tags...)
}

func (b *Bundle) Has(tag string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.catalogs[tag]
	return ok
}

// Match returns the loaded tag closest to want, e.g. "ru-RU" gives "ru".
// Unknown or malformed input gives the fallback.
func (b *Bundle) Match(want string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.catalogs[want]; ok {
		return want
	}
	t, err := language.Parse(want)
	if err != nil || b.matcher == nil {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(t)
	if conf == language.No {
		return b.fallback
	}
	return b.tags[idx]
}

// Locale returns the root view of the language closest to tag.
func (b *Bundle) Locale(tag string) *Locale {
	return &Locale{bundle: b, tag: b.Match(tag)}
}

func (b *Bundle) lookup(tag, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if c, ok := b.catalogs[tag]; ok {
		if s, ok := c.strings[key]; ok {
			return s, true
		}
	}
	if c, ok := b.catalogs[b.fallback]; ok && tag != b.fallback {
		s, ok := c.strings[key]
		return s, ok
	}
	return "", false
}

func (b *Bundle) hasPrefix(tag, prefix string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, t := range []string{tag, b.fallback} {
		if c, ok := b.catalogs[t]; ok {
			if _, ok := c.prefixes[prefix]; ok {
				return true
			}
		}
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
