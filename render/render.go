package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/template"
)

// Predefined errors (sentinel values).
var (
	ErrField    = lang.NewError("field not found")
	ErrDeferred = lang.NewError("deferred computation failed")
	ErrSource   = lang.NewError("invalid data source")
)

// Option configures rendering.
type Option func(*renderer)

// WithLogger sets the logger used for render tracing.
func WithLogger(logger log.Logger) Option {
	return func(r *renderer) { r.logger = logger }
}

// WithMissingAsNil renders fields missing from the object as nil instead of
// failing with [ErrField].
func WithMissingAsNil(enable bool) Option {
	return func(r *renderer) { r.missingAsNil = enable }
}

type renderer struct {
	logger       log.Logger
	missingAsNil bool
}

// Render applies tpl to obj. The result is a [yaml.MapSlice] whose keys are
// in template order, a []any when the object is a collection, or nil when
// there is nothing to render.
//
// When obj is nil, the object declared by the template with object or
// collection is rendered. A declared field is read from obj, so it requires
// a non-nil obj.
func Render(
	ctx context.Context,
	tpl *template.CompiledTemplate,
	obj any,
	opts ...Option,
) (any, error) {
	r := &renderer{}
	for _, opt := range opts {
		opt(r)
	}

	r.logger.TraceContext(ctx, "render start",
		slog.Int("key_count", tpl.Len()),
		slog.String("object_type", fmt.Sprintf("%T", obj)))

	obj, err := r.root(tpl, obj)
	if err != nil {
		return nil, err
	}

	out, err := r.value(ctx, tpl, obj, tpl.IsCollection())
	if err != nil {
		return nil, err
	}

	r.logger.TraceContext(ctx, "render complete")

	return out, nil
}

// root returns the object tpl renders when given obj.
func (r *renderer) root(tpl *template.CompiledTemplate, obj any) (any, error) {
	src, ok := tpl.Data()
	if !ok {
		return obj, nil
	}

	if name, isField := src.Field(); isField {
		if obj == nil {
			return nil, ErrSource.Wrap(
				fmt.Errorf("field %q declared as template data, but no object given", name))
		}

		return r.lookup(obj, name)
	}

	if obj != nil {
		return obj, nil
	}

	v, _ := src.Value()

	return v, nil
}

// value renders obj with tpl, element-wise when obj is a collection.
// A non-nil obj that is not a collection fails when collection is true.
func (r *renderer) value(
	ctx context.Context,
	tpl *template.CompiledTemplate,
	obj any,
	collection bool,
) (any, error) {
	if isNil(obj) {
		return nil, nil
	}

	items, ok := elements(obj)
	if !ok {
		if collection {
			return nil, ErrSource.Wrap(fmt.Errorf("expected a collection, got %T", obj))
		}

		return r.object(ctx, tpl, obj)
	}

	out := make([]any, 0, len(items))

	for _, item := range items {
		v, err := r.value(ctx, tpl, item, false)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

// object renders each key of tpl against obj.
func (r *renderer) object(
	ctx context.Context,
	tpl *template.CompiledTemplate,
	obj any,
) (yaml.MapSlice, error) {
	out := make(yaml.MapSlice, 0, tpl.Len())

	for key, spec := range tpl.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := r.spec(ctx, spec, obj)
		if err != nil {
			var le *lang.Error
			if errors.As(err, &le) {
				return nil, le.With(slog.String("key", key))
			}

			return nil, err
		}

		out = append(out, yaml.MapItem{Key: key, Value: v})
	}

	return out, nil
}

func (r *renderer) spec(ctx context.Context, spec template.Spec, obj any) (any, error) {
	switch s := spec.(type) {
	case template.FieldRef:
		return r.lookup(obj, s.Field)

	case template.Association:
		var src any

		if name, ok := s.Source.Field(); ok {
			v, err := r.lookup(obj, name)
			if err != nil {
				return nil, err
			}

			src = v
		} else {
			src, _ = s.Source.Value()
		}

		return r.value(ctx, s.Nested, src, false)

	case template.Deferred:
		v, err := s.Computation.Invoke(obj)
		if err != nil {
			return nil, ErrDeferred.Wrap(err).
				With(slog.String("source", s.Computation.Source()))
		}

		return v, nil

	default:
		return nil, ErrSource.Wrap(fmt.Errorf("unsupported spec %T", spec))
	}
}

// lookup reads field name of obj, honoring the missing-as-nil option.
func (r *renderer) lookup(obj any, name string) (any, error) {
	v, err := Field(obj, name)
	if err != nil && r.missingAsNil {
		return nil, nil
	}

	return v, err
}

// elements returns the elements of obj if it is a slice or array other than
// a byte slice or an ordered map.
func elements(obj any) ([]any, bool) {
	switch o := obj.(type) {
	case yaml.MapSlice, []byte, string:
		return nil, false

	case []any:
		return o, true
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}

	return out, true
}

func isNil(obj any) bool {
	if obj == nil {
		return true
	}

	v := reflect.ValueOf(obj)

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}
