package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/rablc/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config.yaml"

// defaultDirMode is the permission mode for created directories.
const defaultDirMode os.FileMode = 0o700

// configPath returns the path formed by joining the configuration directory
// with the given path elements.
//
// If no elements are given, it is equivalent to calling [pkg.ConfigDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates the runtime directories used by commands.
// The configuration directory is not created; a missing config file is
// simply ignored.
func mkdirAllRequired() error {
	return os.MkdirAll(pkg.CacheDir(), defaultDirMode)
}
