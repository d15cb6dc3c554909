package compiler

// Builtins are the helper values and functions available to deferred node
// bodies beneath every other name. The set is built once per process and
// cloned on every access so callers may mutate the returned map.

import (
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// EnvBuiltin is the name of the builtin function returning process
// environment variables.
const EnvBuiltin = "env"

//nolint:gochecknoglobals
var (
	builtinOnce  sync.Once
	builtinCache map[string]any
)

func makeBuiltins() map[string]any {
	builtinOnce.Do(func() {
		builtinCache = map[string]any{
			"platform": getPlatform(),
			"hostname": getHostname(),

			EnvBuiltin: envFunc(buildProcessEnvMap(nil)),

			"path": map[string]any{
				"abs":  pathAbs,
				"base": filepath.Base,
				"cat":  pathCat,
				"dir":  filepath.Dir,
				"ext":  filepath.Ext,
				"rel":  pathRel,
			},

			"file": map[string]any{
				"exists": fileExists,
				"isDir":  fileIsDir,
			},

			// PATH-like list manipulation via mung.
			"list": map[string]any{
				"prefix":   listPrefix,
				"prefixif": listPrefixIf,
			},
		}
	})

	return maps.Clone(builtinCache)
}

// Builtins returns a copy of the builtin helper environment.
func Builtins() map[string]any {
	return makeBuiltins()
}

// BuiltinNames returns the top-level builtin names in sorted order.
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(makeBuiltins()))
}

// BuiltinLookup returns the sorted member names of the builtin namespace at
// the dot-separated path, or nil if path does not name a namespace.
// The empty path yields [BuiltinNames].
func BuiltinLookup(path string) []string {
	if path == "" {
		return BuiltinNames()
	}

	var current any = makeBuiltins()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		if current, ok = m[seg]; !ok {
			return nil
		}
	}

	if m, ok := current.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// target identifies an operating system and architecture.
type target struct {
	OS   string
	Arch string
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	var (
		o, a string
		ok   bool
	)

	if o, ok = os.LookupEnv("GOHOSTOS"); !ok {
		o = runtime.GOOS
	}

	if a, ok = os.LookupEnv("GOHOSTARCH"); !ok {
		a = runtime.GOARCH
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// listPrefix moves the given items to the front of the list, removing any
// duplicates.
func listPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// listPrefixIf is like listPrefix, but keeps only items satisfying predicate.
func listPrefixIf(
	list string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// buildProcessEnvMap converts "KEY=VALUE" entries to a map.
// If envList is nil, os.Environ() is used.
func buildProcessEnvMap(envList []string) map[string]string {
	if envList == nil {
		envList = os.Environ()
	}

	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string {
		return processEnv[key]
	}
}
