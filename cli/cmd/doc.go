// Package cmd implements the rablc subcommands.
//
// Each command is a kong command struct whose Run method receives the
// [context.Context] prepared by the cli package. [WithContext] stores the
// parsed [kong.Context] and [WithStreams] redirects the standard streams a
// command reads its template from and writes its result to.
//
// Commands that compile templates embed [Naming], which builds the naming
// context (assigns, explicit bindings, and virtual path) from flags.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
