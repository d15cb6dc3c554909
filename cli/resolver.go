package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/log"
)

// resolve is a [kong.ConfigurationLoader] that reads a YAML configuration
// file.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Top-level keys name flags. Flag names with hyphens (e.g., "log-level") may
// also be written with underscores (e.g., "log_level"). A mapping keyed by a
// command name holds values for that command's flags and takes precedence
// over top-level keys:
//
//	log_level: debug
//	log-pretty: false
//	render:
//	  format: yaml
//	  indent: 2
//
// Command-line flags override config file values. An empty or invalid file
// contributes nothing; the latter is reported as a warning.
func resolve(r io.Reader) (kong.Resolver, error) {
	var m map[string]any

	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn("ignoring invalid configuration", log.Err(err))
		}

		return config{}, nil
	}

	return config(m), nil
}

// config implements [kong.Resolver] for YAML configuration.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	parent *kong.Path,
	flag *kong.Flag,
) (any, error) {
	scopes := make([]config, 0, 2)

	if parent != nil && parent.Command != nil {
		if sub, ok := c.lookup(parent.Command.Name); ok {
			if m, ok := sub.(map[string]any); ok {
				scopes = append(scopes, config(m))
			}
		}
	}

	scopes = append(scopes, c)

	for _, scope := range scopes {
		if v, ok := scope.lookup(flag.Name); ok {
			return flagValue(v), nil
		}
	}

	// Not found: let kong use the default.
	return nil, nil //nolint:nilnil
}

// lookup finds name, or name with hyphens replaced by underscores.
func (c config) lookup(name string) (any, bool) {
	if v, ok := c[name]; ok {
		return v, true
	}

	v, ok := c[strings.ReplaceAll(name, "-", "_")]

	return v, ok
}

// flagValue converts a decoded YAML value into a form kong can parse.
// Kong parses numbers from strings.
func flagValue(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case []any:
		s := make([]string, len(n))
		for i, e := range n {
			s[i], _ = flagValue(e).(string)
		}

		return strings.Join(s, ",")
	default:
		return v
	}
}
