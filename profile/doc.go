// Package profile provides optional runtime profiling for rablc.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] to collect runtime
// profiles. Profiling must be enabled at build time with the "pprof" build
// tag; see [Enabled].
//
// Without the tag, [Config.Start] returns a no-op [Stopper] and [Modes]
// reports nothing.
//
// # Available Profiling Modes
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Usage
//
//	stop := profile.New(
//	    profile.WithMode("cpu"),
//	    profile.WithPath("/tmp/profiles"),
//	).Start()
//	defer stop.Stop()
//
// Profile files are written to the configured directory with names matching
// the mode (e.g., cpu.pprof, mem.pprof).
//
// # Command-Line Usage
//
//	go build -tags pprof -o rablc .
//
//	# Profile compilation of a large template
//	./rablc --pprof-mode cpu compile big.rabl
//
//	# Heap profile with a custom output directory
//	./rablc --pprof-mode heap --pprof-dir ./profiles render -d data.yaml t.rabl
//
// The default output directory is:
//
//	$XDG_CACHE_HOME/rablc/pprof   (Linux/Unix)
//	~/Library/Caches/rablc/pprof  (macOS)
//	%LocalAppData%\rablc\pprof    (Windows)
//
// # Analyzing Profile Data
//
//	go tool pprof ./rablc /tmp/profiles/cpu.pprof
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
//	go tool pprof -http=: -base=old.pprof new.pprof
//
// # Performance Overhead
//
//   - CPU profiling: ~5% overhead
//   - Heap profiling: minimal overhead (sampled)
//   - Block profiling: can add significant overhead if rate is too high
//   - Mutex profiling: can add significant overhead if rate is too high
//   - Trace profiling: high overhead, use for short durations only
//
// Adjust sampling rates using [runtime.SetBlockProfileRate],
// [runtime.SetMutexProfileFraction], and [runtime.MemProfileRate].
package profile
