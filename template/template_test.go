package template

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestBuilder_Order(t *testing.T) {
	b := NewBuilder()
	b.Set("id", FieldRef{Field: "id"})
	b.Set("name", FieldRef{Field: "name"})
	b.Set("id", FieldRef{Field: "uid"})

	tpl := b.Build()

	if got, want := tpl.Keys(), []string{"id", "name"}; !slices.Equal(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	spec, ok := tpl.Get("id")
	if !ok {
		t.Fatal("Get(id) not found")
	}

	if ref, ok := spec.(FieldRef); !ok || ref.Field != "uid" {
		t.Errorf("Get(id) = %#v, want FieldRef{uid}", spec)
	}
}

func TestBuilder_UseAfterBuild(t *testing.T) {
	b := NewBuilder()
	b.Build()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on Set after Build")
		}
	}()

	b.Set("id", FieldRef{Field: "id"})
}

func TestCompiledTemplate_Nil(t *testing.T) {
	var tpl *CompiledTemplate

	if tpl.Len() != 0 || tpl.Has("x") || tpl.IsCollection() {
		t.Error("nil template should be empty")
	}

	for range tpl.All() {
		t.Error("nil template yielded a key")
	}

	if !Equal(tpl, Empty()) {
		t.Error("nil template should equal an empty template")
	}
}

func TestEqual(t *testing.T) {
	comp := NewComputation("1 + 1", nil, func(any) (any, error) { return 2, nil })
	other := NewComputation("1 + 1", nil, func(any) (any, error) { return 2, nil })

	build := func(specs ...any) *CompiledTemplate {
		b := NewBuilder()
		for i := 0; i < len(specs); i += 2 {
			b.Set(specs[i].(string), specs[i+1].(Spec))
		}

		return b.Build()
	}

	nested := func(key string) *CompiledTemplate {
		return build(key, FieldRef{Field: key})
	}

	user := &struct{ Name string }{"ann"}

	tests := []struct {
		name string
		a, b *CompiledTemplate
		want bool
	}{
		{
			name: "empty",
			a:    Empty(),
			b:    NewBuilder().Build(),
			want: true,
		},
		{
			name: "same fields",
			a:    build("id", FieldRef{"id"}, "name", FieldRef{"name"}),
			b:    build("id", FieldRef{"id"}, "name", FieldRef{"name"}),
			want: true,
		},
		{
			name: "different order",
			a:    build("id", FieldRef{"id"}, "name", FieldRef{"name"}),
			b:    build("name", FieldRef{"name"}, "id", FieldRef{"id"}),
			want: false,
		},
		{
			name: "different field",
			a:    build("bar", FieldRef{"foo"}),
			b:    build("bar", FieldRef{"bar"}),
			want: false,
		},
		{
			name: "nested equal",
			a:    build("address", Association{FieldSource("address"), nested("city")}),
			b:    build("address", Association{FieldSource("address"), nested("city")}),
			want: true,
		},
		{
			name: "nested differs",
			a:    build("address", Association{FieldSource("address"), nested("city")}),
			b:    build("address", Association{FieldSource("address"), nested("zip")}),
			want: false,
		},
		{
			name: "captured value same pointer",
			a:    build("author", Association{ValueSource(user), nested("name")}),
			b:    build("author", Association{ValueSource(user), nested("name")}),
			want: true,
		},
		{
			name: "captured value versus field",
			a:    build("author", Association{ValueSource("author"), nested("name")}),
			b:    build("author", Association{FieldSource("author"), nested("name")}),
			want: false,
		},
		{
			name: "uncomparable captured values",
			a:    build("tags", Association{ValueSource([]string{"a"}), Empty()}),
			b:    build("tags", Association{ValueSource([]string{"a"}), Empty()}),
			want: false,
		},
		{
			name: "deferred identity",
			a:    build("foo", Deferred{comp}),
			b:    build("foo", Deferred{comp}),
			want: true,
		},
		{
			name: "deferred distinct",
			a:    build("foo", Deferred{comp}),
			b:    build("foo", Deferred{other}),
			want: false,
		},
		{
			name: "kind mismatch",
			a:    build("foo", FieldRef{"foo"}),
			b:    build("foo", Deferred{comp}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputation_Invoke(t *testing.T) {
	calls := 0
	comp := NewComputation("obj", []string{"o"}, func(obj any) (any, error) {
		calls++

		return obj, nil
	})

	if calls != 0 {
		t.Fatal("computation invoked on construction")
	}

	got, err := comp.Invoke(42)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if got != 42 || calls != 1 {
		t.Errorf("Invoke() = %v (calls %d), want 42 (calls 1)", got, calls)
	}

	if p := comp.Params(); !slices.Equal(p, []string{"o"}) {
		t.Errorf("Params() = %v", p)
	}
}

func TestFormatJSON_Order(t *testing.T) {
	b := NewBuilder()
	b.Set("zeta", FieldRef{"z"})
	b.Set("alpha", FieldRef{"a"})

	nb := NewBuilder()
	nb.Set("city", FieldRef{"city"})
	b.Set("address", Association{FieldSource("addr"), nb.Build()})

	var buf bytes.Buffer
	if err := b.Build().FormatJSON(context.Background(), &buf, 0); err != nil {
		t.Fatalf("FormatJSON() error = %v", err)
	}

	want := `{"zeta":"z","alpha":"a","address":{"_data":"addr","city":"city"}}`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("FormatJSON() = %s, want %s", got, want)
	}
}

func TestMarshalJSON_NoTrailingSpace(t *testing.T) {
	v := yaml.MapSlice{{Key: "a", Value: []any{1}}}

	tests := []struct {
		indent int
		want   string
	}{
		{0, `{"a":[1]}`},
		{2, "{\n  \"a\": [\n    1\n  ]\n}"},
	}

	for _, tt := range tests {
		got, err := MarshalJSON(context.Background(), v, tt.indent)
		if err != nil {
			t.Fatalf("MarshalJSON(%d) error = %v", tt.indent, err)
		}

		if string(got) != tt.want {
			t.Errorf("MarshalJSON(%d) = %q, want %q", tt.indent, got, tt.want)
		}
	}

	var buf bytes.Buffer
	if err := NewBuilder().Build().FormatJSON(context.Background(), &buf, 2); err != nil {
		t.Fatalf("FormatJSON() error = %v", err)
	}

	if got := buf.String(); got != "{}\n" {
		t.Errorf("FormatJSON() = %q, want %q", got, "{}\n")
	}
}

func TestFormatYAML(t *testing.T) {
	b := NewBuilder()
	b.SetData(ValueSource(map[string]any{}), true)
	b.Set("id", FieldRef{"id"})
	b.Set("greeting", Deferred{NewComputation(`"hi " + name`, nil, nil)})

	var buf bytes.Buffer
	if err := b.Build().FormatYAML(context.Background(), &buf, 2); err != nil {
		t.Fatalf("FormatYAML() error = %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}

	want := map[string]any{
		DataKey:    "[<map[string]interface {}>]",
		"id":       "id",
		"greeting": `<deferred: "hi " + name>`,
	}

	for key, value := range want {
		if got[key] != value {
			t.Errorf("%s = %#v, want %#v", key, got[key], value)
		}
	}
}
