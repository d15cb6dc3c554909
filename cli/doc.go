// Package cli contains the command line interface for rablc.
//
// # Commands
//
//   - compile: compile a template and print a description of its keys
//   - render: compile a template and render it against a YAML or JSON
//     document
//   - fmt: rewrite a template in canonical form
//   - directives: list the template directives or the builtin helpers
//     available to node expressions
//   - repl: build a template interactively
//   - init: write the current global flags to the configuration file
//
// Commands that compile a template accept the naming context flags:
// --assigns (-a) for YAML or JSON files of assigns, --bind (-b) for explicit
// bindings, --path for the virtual path, and --max-depth.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory. Top-level keys set global flags and a mapping named after a
// command sets that command's flags:
//
//	log-level: debug
//	render:
//	  format: yaml
//	  indent: 2
//
// An invalid configuration file is ignored with a warning. A config.json
// next to it is read with kong's JSON loader.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o rablc .
//
// Then:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
//
// # Examples
//
//	# Describe a compiled template as JSON
//	rablc compile -f json user.rabl
//
//	# Render with assigns and a data document
//	rablc render -a assigns.yaml -d user.yaml -i 2 user.rabl
//
//	# Debug logging with CPU profiling
//	rablc --log-level=debug --pprof-mode=cpu render user.rabl
package cli
