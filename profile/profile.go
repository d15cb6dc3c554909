package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Config describes a profiling session.
type Config struct {
	// Mode names the profile to collect. See [Modes].
	Mode string
	// Path is the directory profile output is written to.
	Path string
	// Quiet suppresses the profiler's own log messages.
	Quiet bool
}

// Option modifies a Config.
type Option func(Config) Config

// WithMode returns an option setting the profile mode.
func WithMode(mode string) Option {
	return func(c Config) Config {
		c.Mode = mode

		return c
	}
}

// WithPath returns an option setting the output directory.
func WithPath(path string) Option {
	return func(c Config) Config {
		c.Path = path

		return c
	}
}

// WithQuiet returns an option setting the quiet flag.
func WithQuiet(quiet bool) Option {
	return func(c Config) Config {
		c.Quiet = quiet

		return c
	}
}

// New returns a Config with opts applied in order.
func New(opts ...Option) Config {
	var c Config

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// Start begins profiling and returns the session's [Stopper].
//
// If the binary was built without the pprof tag, or c.Mode is empty or
// unknown, Start returns a no-op Stopper. Both Start and Stop are always safe
// to call.
func (c Config) Start() Stopper {
	if c.Mode == "" {
		return ignore{}
	}

	return start(c)
}

type ignore struct{}

func (ignore) Stop() {}
