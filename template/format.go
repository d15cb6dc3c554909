package template

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// DataKey is the key under which ToMap describes the data source of an
// association or of the root template.
const DataKey = "_data"

// ToMap describes t as an ordered map suitable for display. Field references
// map to the field name, associations to a nested map whose [DataKey] entry
// names the source, and deferred computations to a short description.
func (t *CompiledTemplate) ToMap() yaml.MapSlice {
	desc := make(yaml.MapSlice, 0, t.Len()+1)

	if src, ok := t.Data(); ok {
		v := src.String()
		if t.IsCollection() {
			v = "[" + v + "]"
		}

		desc = append(desc, yaml.MapItem{Key: DataKey, Value: v})
	}

	for key, spec := range t.All() {
		desc = append(desc, yaml.MapItem{Key: key, Value: describe(spec)})
	}

	return desc
}

func describe(spec Spec) any {
	switch s := spec.(type) {
	case FieldRef:
		return s.Field

	case Association:
		nested := yaml.MapSlice{{Key: DataKey, Value: s.Source.String()}}

		return append(nested, s.Nested.ToMap()...)

	case Deferred:
		var sb strings.Builder

		sb.WriteString("<deferred")

		if params := s.Computation.Params(); len(params) > 0 {
			fmt.Fprintf(&sb, " |%s|", strings.Join(params, ", "))
		}

		if src := strings.Join(strings.Fields(s.Computation.Source()), " "); src != "" {
			sb.WriteString(": ")
			sb.WriteString(src)
		}

		sb.WriteString(">")

		return sb.String()

	default:
		return nil
	}
}

// FormatYAML writes the description of t as YAML. A non-positive indent
// writes flow style.
func (t *CompiledTemplate) FormatYAML(
	ctx context.Context,
	w io.Writer,
	indent int,
) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// FormatJSON writes the description of t as JSON, preserving key order.
func (t *CompiledTemplate) FormatJSON(
	ctx context.Context,
	w io.Writer,
	indent int,
) error {
	data, err := MarshalJSON(ctx, t.ToMap(), indent)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// MarshalJSON encodes v as JSON. Ordered maps ([yaml.MapSlice]) keep their
// key order. A positive indent pretty-prints the result.
func MarshalJSON(ctx context.Context, v any, indent int) ([]byte, error) {
	data, err := yaml.MarshalContext(ctx, v, yaml.JSON())
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)

	var out bytes.Buffer

	if indent > 0 {
		err = json.Indent(&out, data, "", strings.Repeat(" ", indent))
	} else {
		err = json.Compact(&out, data)
	}

	if err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
