// Package locale holds the language context shared by every provider
// client. It is an explicit dependency injected at construction time;
// there is no package-level global. Reads pick whichever value is
// current at call time.
package locale

import (
	"os"
	"strings"
	"sync/atomic"
)

// DefaultLanguage is used when no usable locale can be determined.
const DefaultLanguage = "en"

// Context is a process-wide language setting. Mutation is rare (an
// explicit user action) and reads are lock-free.
type Context struct {
	code atomic.Value
}

// New creates a Context with the given language code. Invalid codes
// fall back to DefaultLanguage.
func New(code string) *Context {
	c := &Context{}
	c.Set(code)
	return c
}

// FromEnv creates a Context from LC_ALL / LANG, e.g. "de_DE.UTF-8" -> "de".
func FromEnv() *Context {
	for _, key := range []string{"LC_ALL", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return New(parseLocale(v))
		}
	}
	return New(DefaultLanguage)
}

// Get returns the current language code.
func (c *Context) Get() string {
	if v, ok := c.code.Load().(string); ok {
		return v
	}
	return DefaultLanguage
}

// Set updates the language code. Invalid codes are replaced by
// DefaultLanguage rather than rejected.
func (c *Context) Set(code string) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !validCode(code) {
		code = DefaultLanguage
	}
	c.code.Store(code)
}

// parseLocale extracts the language part of a POSIX locale string.
func parseLocale(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "_.@"); i != -1 {
		v = v[:i]
	}
	return strings.ToLower(v)
}

// validCode accepts two- or three-letter ISO 639 codes.
func validCode(code string) bool {
	if len(code) < 2 || len(code) > 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'a' || code[i] > 'z' {
			return false
		}
	}
	return true
}
