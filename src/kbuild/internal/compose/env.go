package compose

import (
	"maps"
	"runtime"
	"strings"
)

// DefaultAllowList names the caller variables forwarded to every child:
// executable lookup, temporary directories and the Windows system root.
var DefaultAllowList = []string{"PATH", "TMP", "TEMP", "TMPDIR", "SystemRoot"}

// Environment is a snapshot of the caller's environment variables
type Environment map[string]string

// FromEnviron parses KEY=VALUE pairs as returned by os.Environ.
// Later duplicates win; entries without '=' are ignored.
func FromEnviron(environ []string) Environment {
	env := make(Environment, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Clone returns an independent copy of e
func (e Environment) Clone() Environment {
	if e == nil {
		return Environment{}
	}
	return maps.Clone(e)
}

// Merge returns a copy of e overlaid with extra. Existing keys keep their
// value unless override is set.
func (e Environment) Merge(extra map[string]string, override bool) Environment {
	merged := e.Clone()
	for k, v := range extra {
		if _, exists := merged[k]; exists && !override {
			continue
		}
		merged[k] = v
	}
	return merged
}

// Lookup returns the value of name. On Windows, where variable names are
// case-insensitive, a differently cased entry also matches.
func (e Environment) Lookup(name string) (string, bool) {
	if v, ok := e[name]; ok {
		return v, true
	}
	if runtime.GOOS != "windows" {
		return "", false
	}
	for k, v := range e {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
