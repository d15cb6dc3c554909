package repl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/render"
)

func testSession(assigns map[string]any) *session {
	c := compiler.New(compiler.MapContext{Path: "/test", Assigns: assigns})

	return newSession(c, log.Default())
}

func TestSession_Enter(t *testing.T) {
	s := testSession(nil)
	ctx := t.Context()

	changed, complete, err := s.enter(ctx, "attribute :a")
	if err != nil || !complete {
		t.Fatalf("enter: complete=%v err=%v", complete, err)
	}

	if want := (yaml.MapSlice{{Key: "a", Value: "a"}}); !reflect.DeepEqual(changed, want) {
		t.Errorf("changed = %#v, want %#v", changed, want)
	}

	// A repeated statement changes nothing.
	changed, _, err = s.enter(ctx, "attribute :a")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	if len(changed) != 0 {
		t.Errorf("expected no change, got %#v", changed)
	}

	// Rebinding a key reports the new description.
	changed, _, err = s.enter(ctx, "attribute :b => :a")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}

	if want := (yaml.MapSlice{{Key: "a", Value: "b"}}); !reflect.DeepEqual(changed, want) {
		t.Errorf("changed = %#v, want %#v", changed, want)
	}

	if s.source != "attribute :a\nattribute :a\nattribute :b => :a" {
		t.Errorf("unexpected source %q", s.source)
	}
}

func TestSession_EnterBlock(t *testing.T) {
	s := testSession(nil)
	ctx := t.Context()

	for _, line := range []string{"child :owner {", "attribute :name"} {
		_, complete, err := s.enter(ctx, line)
		if err != nil {
			t.Fatalf("enter %q: %v", line, err)
		}

		if complete {
			t.Fatalf("enter %q: expected open block", line)
		}
	}

	if s.pending != "child :owner {\nattribute :name" {
		t.Errorf("unexpected pending %q", s.pending)
	}

	changed, complete, err := s.enter(ctx, "}")
	if err != nil || !complete {
		t.Fatalf("enter: complete=%v err=%v", complete, err)
	}

	if s.pending != "" {
		t.Errorf("expected pending cleared, got %q", s.pending)
	}

	if len(changed) != 1 || changed[0].Key != "owner" {
		t.Errorf("unexpected change %#v", changed)
	}

	if !s.tpl.Has("owner") {
		t.Error("expected owner in template")
	}
}

func TestSession_EnterError(t *testing.T) {
	s := testSession(nil)
	ctx := t.Context()

	if _, _, err := s.enter(ctx, "attribute :a"); err != nil {
		t.Fatalf("enter: %v", err)
	}

	_, complete, err := s.enter(ctx, "bogus :b")
	if !errors.Is(err, lang.ErrUnknownDirective) {
		t.Errorf("expected %v, got %v", lang.ErrUnknownDirective, err)
	}

	if !complete {
		t.Error("a failed statement is complete")
	}

	if s.source != "attribute :a" || s.tpl.Len() != 1 {
		t.Errorf("failed statement kept: source=%q len=%d", s.source, s.tpl.Len())
	}
}

func TestSession_LoadReset(t *testing.T) {
	s := testSession(nil)
	ctx := t.Context()

	if err := s.load(ctx, "attributes :a, :b\n"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if s.source != "attributes :a, :b" || s.tpl.Len() != 2 {
		t.Errorf("unexpected session %q (%d keys)", s.source, s.tpl.Len())
	}

	if err := s.load(ctx, "bogus"); err == nil {
		t.Error("expected error loading invalid source")
	}

	if s.tpl.Len() != 2 {
		t.Error("failed load replaced the template")
	}

	s.pending = "child :x {"
	s.reset()

	if s.source != "" || s.pending != "" || s.tpl.Len() != 0 {
		t.Errorf("reset left %q %q %d", s.source, s.pending, s.tpl.Len())
	}
}

func TestSession_Format(t *testing.T) {
	s := testSession(nil)

	if err := s.load(t.Context(), "attribute   :a;attribute :b"); err != nil {
		t.Fatalf("load: %v", err)
	}

	got, err := s.format(t.Context(), 2)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if !strings.Contains(got, "attribute :a") || !strings.Contains(got, "attribute :b") {
		t.Errorf("unexpected format %q", got)
	}
}

func TestSession_Describe(t *testing.T) {
	s := testSession(nil)

	if err := s.load(t.Context(), "attribute :a => :x"); err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		format render.Format
		want   string
	}{
		{render.FormatYAML, "x: a"},
		{render.FormatJSON, `"x": "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			got, err := s.describe(t.Context(), tt.format)
			if err != nil {
				t.Fatalf("describe: %v", err)
			}

			if !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestSession_Render(t *testing.T) {
	s := testSession(nil)

	if err := s.load(t.Context(), "attribute :name"); err != nil {
		t.Fatalf("load: %v", err)
	}

	file := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(file, []byte("name: ada\nage: 36\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := s.render(t.Context(), file)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if want := "{\n  \"name\": \"ada\"\n}"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	if _, err := s.render(t.Context(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSession_Bind(t *testing.T) {
	s := testSession(map[string]any{"x": 1})

	if err := s.bind(t.Context(), "user", "{name: ada}"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if err := s.load(t.Context(), "object @user; attribute :name"); err != nil {
		t.Fatalf("load: %v", err)
	}

	got, err := s.render(t.Context(), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(got, `"name": "ada"`) {
		t.Errorf("unexpected render %q", got)
	}

	var keys []any
	for _, item := range s.bindings() {
		keys = append(keys, item.Key)
	}

	if !reflect.DeepEqual(keys, []any{"user", compiler.PathBinding, "x"}) {
		t.Errorf("unexpected bindings %v", keys)
	}

	if err := s.bind(t.Context(), "bad", "{unterminated"); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDiff(t *testing.T) {
	prev := yaml.MapSlice{{Key: "a", Value: "a"}, {Key: "b", Value: "b"}}
	next := yaml.MapSlice{
		{Key: "a", Value: "a"},
		{Key: "b", Value: "c"},
		{Key: "d", Value: yaml.MapSlice{{Key: "e", Value: "e"}}},
	}

	want := yaml.MapSlice{next[1], next[2]}
	if got := diff(prev, next); !reflect.DeepEqual(got, want) {
		t.Errorf("diff = %#v, want %#v", got, want)
	}

	if got := diff(next, next); got != nil {
		t.Errorf("expected no difference, got %#v", got)
	}
}

func TestOpenBlocks(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"attribute :a", 0},
		{"child :a {", 1},
		{"child :a { child :b {", 2},
		{"child :a { attribute :b }", 0},
		{`node :a { "{" + x`, 1},
		{`node :a { '}' }`, 0},
		{"node :a { `{{` }", 0},
		{`node :a { "\"{" }`, 0},
		{"}", -1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := openBlocks(tt.in); got != tt.want {
				t.Errorf("openBlocks(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
