package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/rablc/lang"
)

// writeFile writes content to name in a new temporary directory and returns
// its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// withOutput returns a context whose command output is captured in the
// returned buffer and whose stdin reads in.
func withOutput(t *testing.T, in string) (context.Context, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	return WithStreams(t.Context(), strings.NewReader(in), &out), &out
}

func TestCompile(t *testing.T) {
	src := writeFile(t, "user.rabl", "attribute :name => :full_name\nattribute :id")

	tests := []struct {
		name   string
		format string
		indent int
		want   string
	}{
		{
			name:   "yaml",
			format: "yaml",
			indent: 2,
			want:   "full_name: name\nid: id\n",
		},
		{
			name:   "compact json",
			format: "json",
			want:   `{"full_name":"name","id":"id"}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := withOutput(t, "")

			c := &Compile{Format: tt.format, Indent: tt.indent, Source: src}
			if err := c.Run(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("\n got: %q\nwant: %q", out.String(), tt.want)
			}
		})
	}
}

func TestCompile_Stdin(t *testing.T) {
	ctx, out := withOutput(t, "attribute :id")

	c := &Compile{Format: "json", Source: stdinSource}
	if err := c.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := out.String(); got != `{"id":"id"}`+"\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.rabl"), ErrReadSource},
		{"unknown directive", writeFile(t, "bad.rabl", "bogus :a"), lang.ErrUnknownDirective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := withOutput(t, "")

			c := &Compile{Format: "yaml", Indent: 2, Source: tt.source}
			if err := c.Run(ctx); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	src := writeFile(t, "user.rabl", "attributes :name, :id\nnode :tag { name + \"#\" + string(id) }")
	data := writeFile(t, "user.yaml", "id: 7\nname: ada\nextra: true\n")

	ctx, out := withOutput(t, "")

	r := &Render{Data: data, Format: "json", Source: src}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := `{"name":"ada","id":7,"tag":"ada#7"}` + "\n"; out.String() != want {
		t.Errorf("\n got: %q\nwant: %q", out.String(), want)
	}
}

func TestRender_StdinData(t *testing.T) {
	src := writeFile(t, "user.rabl", "attribute :name")
	ctx, out := withOutput(t, `{"name": "grace"}`)

	r := &Render{Data: stdinSource, Format: "yaml", Indent: 2, Source: src}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "name: grace\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRender_StdinTwice(t *testing.T) {
	ctx, _ := withOutput(t, "")

	r := &Render{Data: stdinSource, Format: "json", Source: stdinSource}
	if err := r.Run(ctx); !errors.Is(err, ErrStdin) {
		t.Errorf("expected %v, got %v", ErrStdin, err)
	}
}

func TestRender_MissingField(t *testing.T) {
	src := writeFile(t, "user.rabl", "attributes :name, :nope")
	data := writeFile(t, "user.yaml", "name: ada\n")

	ctx, _ := withOutput(t, "")

	r := &Render{Data: data, Format: "json", Source: src}
	if err := r.Run(ctx); err == nil {
		t.Error("expected error for missing field")
	}

	ctx, out := withOutput(t, "")

	r.MissingNil = true
	if err := r.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := `{"name":"ada","nope":null}` + "\n"; out.String() != want {
		t.Errorf("\n got: %q\nwant: %q", out.String(), want)
	}
}

func TestNaming_Bindings(t *testing.T) {
	assigns := writeFile(t, "assigns.yaml", "user: {name: from-assigns}\nother: 1\n")
	src := writeFile(t, "user.rabl", "object @user\nattribute :name")

	tests := []struct {
		name   string
		naming Naming
		want   string
	}{
		{
			name:   "assigns",
			naming: Naming{Assigns: []string{assigns}},
			want:   `{"name":"from-assigns"}`,
		},
		{
			name: "bindings replace assigns",
			naming: Naming{
				Assigns: []string{assigns},
				Bind:    map[string]string{"user": "{name: bound}"},
			},
			want: `{"name":"bound"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := withOutput(t, "")

			r := &Render{Naming: tt.naming, Format: "json", Source: src}
			if err := r.Run(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	n := Naming{Bind: map[string]string{"user": "{name: bound}"}}

	c, err := n.compiler(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Binding("other"); ok {
		t.Error("assign visible next to explicit bindings")
	}
}

func TestNaming_Errors(t *testing.T) {
	tests := []struct {
		name   string
		naming Naming
		want   error
	}{
		{
			name:   "invalid binding",
			naming: Naming{Bind: map[string]string{"x": "{unterminated"}},
			want:   ErrBinding,
		},
		{
			name:   "assigns not a mapping",
			naming: Naming{Assigns: []string{writeFile(t, "list.yaml", "- a\n- b\n")}},
			want:   ErrLoadData,
		},
		{
			name:   "missing assigns",
			naming: Naming{Assigns: []string{filepath.Join(t.TempDir(), "none.yaml")}},
			want:   ErrReadSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.naming.compiler(t.Context()); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMapping(t *testing.T) {
	ctx, _ := withOutput(t, "")

	m, err := loadMapping(ctx, writeFile(t, "empty.yaml", ""))
	if err != nil || m == nil || len(m) != 0 {
		t.Errorf("empty document: %v, %v", m, err)
	}

	m, err = loadMapping(ctx, writeFile(t, "map.json", `{"a": [1, 2]}`))
	if err != nil || len(m) != 1 {
		t.Errorf("json document: %v, %v", m, err)
	}

	_, err = loadMapping(ctx, writeFile(t, "scalar.yaml", "42"))
	if !errors.Is(err, ErrLoadData) || !errors.Is(err, errNotMapping) {
		t.Errorf("expected %v wrapping %v, got %v", ErrLoadData, errNotMapping, err)
	}
}

func TestDirectives(t *testing.T) {
	tests := []struct {
		name     string
		builtins bool
		contains []string
	}{
		{
			name:     "directives",
			contains: []string{"attribute ", "attributes :field", "child ", "collection ", "node :key", "object "},
		},
		{
			name:     "builtins",
			builtins: true,
			contains: []string{"path ", "abs, base, cat", "file ", "exists, isDir", "env"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := withOutput(t, "")

			if err := (&Directives{Builtins: tt.builtins}).Run(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, s := range tt.contains {
				if !strings.Contains(out.String(), s) {
					t.Errorf("expected %q in output:\n%s", s, out.String())
				}
			}
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("cause")

	wrapped := ErrLoadData.Wrap(cause).With(slog.String("file", "x"))

	if !errors.Is(wrapped, ErrLoadData) {
		t.Error("wrapped error does not match its sentinel")
	}

	if errors.Is(wrapped, ErrReadSource) {
		t.Error("wrapped error matches another sentinel")
	}

	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error does not match its cause")
	}

	if got := wrapped.Error(); got != "load data: cause" {
		t.Errorf("unexpected message %q", got)
	}

	if got := NewError("").Wrap(cause).Error(); got != "cause" {
		t.Errorf("unexpected message %q", got)
	}

	attrs := wrapped.LogValue().Group()
	if len(attrs) != 3 || attrs[2].Key != "file" {
		t.Errorf("unexpected log value %v", attrs)
	}

	// With does not modify the receiver.
	if len(ErrLoadData.attrs) != 0 {
		t.Error("sentinel modified")
	}
}

type initCLI struct {
	Level  string `default:"info"`
	Name   string
	Tags   []string
	Secret string `hidden:""`

	Init Init `cmd:""`
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	run := func(args ...string) error {
		var cli initCLI

		parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: path})
		if err != nil {
			t.Fatal(err)
		}

		ktx, err := parser.Parse(args)
		if err != nil {
			t.Fatal(err)
		}

		return cli.Init.Run(WithContext(t.Context(), ktx))
	}

	if err := run("--name=ada", "--secret=x", "init"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(data); got != "level: info\nname: ada\n" {
		t.Errorf("unexpected config %q", got)
	}

	if err := run("init"); !errors.Is(err, ErrFileExists) {
		t.Errorf("expected %v, got %v", ErrFileExists, err)
	}

	if err := run("--level=debug", "init", "--force"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data, _ := os.ReadFile(path); string(data) != "level: debug\n" {
		t.Errorf("unexpected config %q", data)
	}
}

func TestInit_NoContext(t *testing.T) {
	if err := (&Init{}).Run(t.Context()); !errors.Is(err, ErrWriteConfig) {
		t.Errorf("expected %v, got %v", ErrWriteConfig, err)
	}
}

func TestVarFrom(t *testing.T) {
	if got := varFrom(t.Context(), CacheIdentifier, "def"); got != "def" {
		t.Errorf("expected default, got %q", got)
	}
}
