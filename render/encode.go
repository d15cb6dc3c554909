package render

//go:generate go tool stringer --linecomment --type Format --output format_string.go

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/template"
)

// Format is an output encoding of rendered values.
type Format int

const (
	FormatJSON Format = iota // json
	FormatYAML               // yaml
)

// Formats returns an iterator over the names of all formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range []Format{FormatJSON, FormatYAML} {
			if !yield(f.String()) {
				return
			}
		}
	}
}

// ParseFormat parses the name of a format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

// Encode writes v to w in format f. Ordered maps keep their key order.
// A positive indent pretty-prints JSON and sets the YAML indentation;
// otherwise JSON is compact and YAML uses flow style.
func Encode(ctx context.Context, w io.Writer, v any, f Format, indent int) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case FormatJSON:
		data, err = template.MarshalJSON(ctx, v, indent)
		data = append(data, '\n')

	case FormatYAML:
		opt := yaml.Flow(true)
		if indent > 0 {
			opt = yaml.Indent(indent)
		}

		data, err = yaml.MarshalContext(ctx, v, opt)

	default:
		err = fmt.Errorf("unknown format %v", f)
	}

	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
