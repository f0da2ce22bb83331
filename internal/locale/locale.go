package locale

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/keshon/guild-dispatch/pkg/cmd"
)

// Locale is a view of one language rooted at a key path.
type Locale struct {
	bundle *Bundle
	tag    string
	path   string
}

var _ cmd.Locale = (*Locale)(nil)

// Tag is the language of the view.
func (l *Locale) Tag() string { return l.tag }

// Path is the key prefix of the view, "" at the root.
func (l *Locale) Path() string { return l.path }

// Root returns the view of the same language at the top of the catalog.
func (l *Locale) Root() cmd.Locale {
	return &Locale{bundle: l.bundle, tag: l.tag}
}

func (l *Locale) Lookup(key string) (string, bool) {
	return l.bundle.lookup(l.tag, join(l.path, key))
}

// Get returns the text under key, or the full key path when it is missing.
func (l *Locale) Get(key string) string {
	if s, ok := l.Lookup(key); ok {
		return s
	}
	return join(l.path, key)
}

func (l *Locale) GetFormatted(key string, args ...any) string {
	return Format(l.Get(key), args...)
}

// GetCommon resolves key under "common" regardless of the view's path.
func (l *Locale) GetCommon(key string) string {
	full := join("common", key)
	if s, ok := l.bundle.lookup(l.tag, full); ok {
		return s
	}
	return full
}

func (l *Locale) GetCommonFormatted(key string, args ...any) string {
	return Format(l.GetCommon(key), args...)
}

// GetSubLocale narrows the view to path, relative to the view's own path
// unless path is under "common", which always starts at the root. With
// allowMissing it returns nil when nothing is defined below path.
func (l *Locale) GetSubLocale(path string, allowMissing bool) cmd.Locale {
	full := join(l.path, path)
	if isCommon(path) {
		full = path
	}
	if allowMissing && !l.bundle.hasPrefix(l.tag, full) {
		return nil
	}
	return &Locale{bundle: l.bundle, tag: l.tag, path: full}
}

func isCommon(path string) bool {
	return path == "common" || strings.HasPrefix(path, "common.")
}

// GetCommandLocale is GetSubLocale("commands." + name).
func (l *Locale) GetCommandLocale(name string, allowMissing bool) cmd.Locale {
	return l.GetSubLocale("commands."+name, allowMissing)
}

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// Format replaces {0}, {1}, ... with the matching argument. Placeholders
// without an argument are left as they are.
func Format(s string, args ...any) string {
	if len(args) == 0 {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		i, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || i >= len(args) {
			return m
		}
		return fmt.Sprint(args[i])
	})
}

// FormatNamed replaces {name} placeholders from values.
func FormatNamed(s string, values map[string]string) string {
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
