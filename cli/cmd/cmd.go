package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// varFrom returns the kong variable named id, or def if there is none.
func varFrom(ctx context.Context, id, def string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return def
	}

	if v, ok := ktx.Model.Vars()[id]; ok {
		return v
	}

	return def
}

type streamsKey struct{}

// Streams are the standard input and output of a command.
type Streams struct {
	In  io.Reader
	Out io.Writer
}

// WithStreams returns a new context.Context whose commands read stdin from in
// and write their results to out.
func WithStreams(ctx context.Context, in io.Reader, out io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, Streams{In: in, Out: out})
}

// streamsFrom returns the Streams stored in ctx, defaulting each unset
// stream to the process's stdin or stdout.
func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	return s
}

var errNotMapping = errors.New("document is not a mapping")

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readSource returns the content of the file named src, or of stdin if src
// is [stdinSource].
func readSource(ctx context.Context, src string) ([]byte, error) {
	if src == stdinSource {
		data, err := io.ReadAll(streamsFrom(ctx).In)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).With(slog.String("file", src))
		}

		return data, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, ErrReadSource.Wrap(err).With(slog.String("file", src))
	}

	return data, nil
}

// loadData decodes the YAML or JSON document in src. Mappings decode as
// map[string]any so deferred expressions can address their keys.
func loadData(ctx context.Context, src string) (any, error) {
	data, err := readSource(ctx, src)
	if err != nil {
		return nil, ErrLoadData.Wrap(err)
	}

	var v any

	if err := yaml.UnmarshalContext(ctx, data, &v); err != nil {
		return nil, ErrLoadData.Wrap(err).With(slog.String("file", src))
	}

	return v, nil
}

// loadMapping decodes src like [loadData] but requires a mapping at the top
// level. An empty document yields an empty mapping.
func loadMapping(ctx context.Context, src string) (map[string]any, error) {
	v, err := loadData(ctx, src)
	if err != nil {
		return nil, err
	}

	switch m := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	default:
		return nil, ErrLoadData.
			With(slog.String("file", src), slog.String("type", fmt.Sprintf("%T", v))).
			Wrap(errNotMapping)
	}
}
