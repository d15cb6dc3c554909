package render

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/template"
)

type address struct {
	City string `json:"city"`
	Zip  string `json:"postal_code,omitempty"`
}

type person struct {
	ID        int
	FirstName string
	Address   *address
	Friends   []person
	secret    string
}

func (p person) Initials() string { return p.FirstName[:1] }

func (p *person) Lookup() (string, error) {
	if p.secret == "" {
		return "", errors.New("no secret")
	}

	return p.secret, nil
}

func compile(t *testing.T, source string, assigns map[string]any) *template.CompiledTemplate {
	t.Helper()

	c := compiler.New(compiler.MapContext{Path: "/people", Assigns: assigns})

	tpl, err := c.Compile(t.Context(), source)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	return tpl
}

func TestRender(t *testing.T) {
	ada := person{
		ID:        1,
		FirstName: "Ada",
		Address:   &address{City: "London", Zip: "N1"},
		Friends:   []person{{ID: 2, FirstName: "Charles"}},
	}

	tests := []struct {
		name   string
		source string
		obj    any
		want   any
	}{
		{
			name:   "fields in template order",
			source: "attributes :FirstName => :name, :ID => :id",
			obj:    ada,
			want:   yaml.MapSlice{{Key: "name", Value: "Ada"}, {Key: "id", Value: 1}},
		},
		{
			name:   "camel case and tags",
			source: "attribute :first_name\nchild :address { attributes :city, :postal_code }",
			obj:    &ada,
			want: yaml.MapSlice{
				{Key: "first_name", Value: "Ada"},
				{Key: "address", Value: yaml.MapSlice{
					{Key: "city", Value: "London"},
					{Key: "postal_code", Value: "N1"},
				}},
			},
		},
		{
			name:   "association of slice",
			source: "child :friends { attribute :first_name => :name }",
			obj:    ada,
			want: yaml.MapSlice{
				{Key: "friends", Value: []any{yaml.MapSlice{{Key: "name", Value: "Charles"}}}},
			},
		},
		{
			name:   "nil association",
			source: "child :address { attribute :city }",
			obj:    person{},
			want:   yaml.MapSlice{{Key: "address", Value: nil}},
		},
		{
			name:   "method",
			source: "attribute :initials",
			obj:    ada,
			want:   yaml.MapSlice{{Key: "initials", Value: "A"}},
		},
		{
			name:   "deferred",
			source: `node :label { |p| p.FirstName + " #" + string(p.ID) }`,
			obj:    ada,
			want:   yaml.MapSlice{{Key: "label", Value: "Ada #1"}},
		},
		{
			name:   "map object",
			source: "attribute :a\nnode :b { a * 2 }",
			obj:    map[string]any{"a": 21},
			want:   yaml.MapSlice{{Key: "a", Value: 21}, {Key: "b", Value: 42}},
		},
		{
			name:   "ordered map object",
			source: "attribute :b",
			obj:    yaml.MapSlice{{Key: "a", Value: 1}, {Key: "b", Value: 2}},
			want:   yaml.MapSlice{{Key: "b", Value: 2}},
		},
		{
			name:   "collection object",
			source: "attribute :ID => :id",
			obj:    []person{{ID: 1}, {ID: 2}},
			want: []any{
				yaml.MapSlice{{Key: "id", Value: 1}},
				yaml.MapSlice{{Key: "id", Value: 2}},
			},
		},
		{
			name:   "captured association",
			source: "child @extra => :extra { attribute :city }",
			obj:    map[string]any{},
			want: yaml.MapSlice{
				{Key: "extra", Value: yaml.MapSlice{{Key: "city", Value: "Paris"}}},
			},
		},
		{
			name:   "nil object",
			source: "attribute :id",
			obj:    nil,
			want:   nil,
		},
	}

	assigns := map[string]any{"extra": address{City: "Paris"}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := compile(t, tt.source, assigns)

			got, err := Render(t.Context(), tpl, tt.obj)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}

func TestRender_TemplateData(t *testing.T) {
	users := []map[string]any{{"name": "ada"}, {"name": "grace"}}
	assigns := map[string]any{"user": map[string]any{"name": "ada"}, "users": users}

	tests := []struct {
		name   string
		source string
		obj    any
		want   any
	}{
		{
			name:   "object binding",
			source: "object @user; attribute :name",
			want:   yaml.MapSlice{{Key: "name", Value: "ada"}},
		},
		{
			name:   "object binding overridden by argument",
			source: "object @user; attribute :name",
			obj:    map[string]any{"name": "grace"},
			want:   yaml.MapSlice{{Key: "name", Value: "grace"}},
		},
		{
			name:   "collection binding",
			source: "collection @users; attribute :name",
			want: []any{
				yaml.MapSlice{{Key: "name", Value: "ada"}},
				yaml.MapSlice{{Key: "name", Value: "grace"}},
			},
		},
		{
			name:   "collection field",
			source: "collection :people; attribute :name",
			obj:    map[string]any{"people": []any{map[string]any{"name": "x"}}},
			want:   []any{yaml.MapSlice{{Key: "name", Value: "x"}}},
		},
		{
			name:   "object field",
			source: "object :owner; attribute :name",
			obj:    map[string]any{"owner": map[string]any{"name": "y"}},
			want:   yaml.MapSlice{{Key: "name", Value: "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := compile(t, tt.source, assigns)

			got, err := Render(t.Context(), tpl, tt.obj)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}

func TestRender_Errors(t *testing.T) {
	assigns := map[string]any{
		"fail": func() (any, error) { return nil, errors.New("boom") },
		"user": map[string]any{"name": "ada"},
	}

	tests := []struct {
		name   string
		source string
		obj    any
		want   error
	}{
		{"missing field", "attribute :nope", person{}, ErrField},
		{"unexported field", "attribute :secret", person{}, ErrField},
		{"missing nested field", "child :address { attribute :street }", person{Address: &address{}}, ErrField},
		{"missing association", "child :boss { attribute :name }", person{}, ErrField},
		{"failing accessor", "attribute :lookup", &person{}, ErrField},
		{"failing computation", "node :x { fail() }", person{}, ErrDeferred},
		{"field data without object", "object :owner; attribute :name", nil, ErrSource},
		{"collection of non-slice", "collection @user; attribute :name", nil, ErrSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := compile(t, tt.source, assigns)

			got, err := Render(t.Context(), tpl, tt.obj)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v (%v)", tt.want, err, got)
			}
		})
	}
}

func TestRender_ErrorKeys(t *testing.T) {
	tpl := compile(t, "child :address { attribute :street }", nil)

	_, err := Render(t.Context(), tpl, person{Address: &address{}})

	var le *lang.Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *lang.Error, got %T (%v)", err, err)
	}

	var keys []string

	for _, attr := range le.Attrs() {
		if attr.Key == "key" {
			keys = append(keys, attr.Value.String())
		}
	}

	if !reflect.DeepEqual(keys, []string{"street", "address"}) {
		t.Errorf("expected keys [street address], got %v", keys)
	}
}

func TestRender_MissingAsNil(t *testing.T) {
	tpl := compile(t, "attributes :FirstName, :nope", nil)

	got, err := Render(t.Context(), tpl, person{FirstName: "Ada"}, WithMissingAsNil(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := yaml.MapSlice{{Key: "FirstName", Value: "Ada"}, {Key: "nope", Value: nil}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("\n got: %#v\nwant: %#v", got, want)
	}
}

func TestRender_Canceled(t *testing.T) {
	tpl := compile(t, "attribute :a", nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := Render(ctx, tpl, map[string]any{"a": 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected %v, got %v", context.Canceled, err)
	}
}

func TestRender_Trace(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf, log.WithLevel(log.LevelTrace), log.WithPretty(false))
	tpl := compile(t, "attribute :a", nil)

	if _, err := Render(t.Context(), tpl, map[string]any{"a": 1}, WithLogger(logger)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "render complete") {
		t.Errorf("expected trace output, got %q", buf.String())
	}
}

func TestField(t *testing.T) {
	type tagged struct {
		Value int `json:"value_tag"`
		Other int `json:"-"`
	}

	tests := []struct {
		name  string
		obj   any
		field string
		want  any
	}{
		{"string map", map[string]int{"a": 1}, "a", 1},
		{"any map", map[string]any{"a": "x"}, "a", "x"},
		{"ordered map", yaml.MapSlice{{Key: "k", Value: true}}, "k", true},
		{"exact struct field", person{ID: 7}, "ID", 7},
		{"camel struct field", person{FirstName: "Ada"}, "first_name", "Ada"},
		{"pointer to struct", &person{ID: 3}, "ID", 3},
		{"json tag", tagged{Value: 5}, "value_tag", 5},
		{"method", person{FirstName: "Grace"}, "initials", "G"},
		{"pointer method", &person{secret: "s"}, "lookup", "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Field(tt.obj, tt.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	for _, obj := range []any{nil, (*person)(nil), map[int]int{1: 1}, 42, "str"} {
		if _, err := Field(obj, "x"); !errors.Is(err, ErrField) {
			t.Errorf("expected %v for %T, got %v", ErrField, obj, err)
		}
	}
}
