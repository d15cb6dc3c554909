package repl

import (
	"bytes"
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/render"
	"github.com/ardnew/rablc/template"
)

// session is the template built up by a REPL run. Each accepted line is
// appended to source, and the whole source is compiled again so that later
// directives see the keys and bindings of earlier ones.
type session struct {
	compiler *compiler.Compiler
	logger   log.Logger
	source   string
	pending  string // lines of a statement whose block is still open
	tpl      *template.CompiledTemplate
}

func newSession(c *compiler.Compiler, logger log.Logger) *session {
	return &session{compiler: c, logger: logger, tpl: template.Empty()}
}

// load replaces the session source with src if it compiles.
func (s *session) load(ctx context.Context, src string) error {
	tpl, err := s.compiler.Compile(ctx, src)
	if err != nil {
		return err
	}

	s.source = strings.TrimRight(src, "\n")
	s.pending = ""
	s.tpl = tpl

	return nil
}

// enter adds line to the session. While line leaves a block open it is held
// back and complete is false. Otherwise the statement is compiled with the
// rest of the session and changed describes the keys it added or replaced.
// A statement that fails to compile is discarded.
func (s *session) enter(
	ctx context.Context,
	line string,
) (changed yaml.MapSlice, complete bool, err error) {
	text := line
	if s.pending != "" {
		text = s.pending + "\n" + line
	}

	if openBlocks(text) > 0 {
		s.pending = text

		return nil, false, nil
	}

	s.pending = ""

	src := text
	if s.source != "" {
		src = s.source + "\n" + text
	}

	tpl, err := s.compiler.Compile(ctx, src)
	if err != nil {
		return nil, true, err
	}

	changed = diff(s.tpl.ToMap(), tpl.ToMap())
	s.source, s.tpl = src, tpl

	return changed, true, nil
}

// reset discards the session template.
func (s *session) reset() {
	s.source, s.pending = "", ""
	s.tpl = template.Empty()
}

// format returns the session source in canonical form.
func (s *session) format(ctx context.Context, indent int) (string, error) {
	prog, err := lang.ParseString(ctx, s.source)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	f := lang.Formatter{Indent: indent, Nested: compiler.NestedBlock}
	if err := f.Format(ctx, &buf, prog); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// describe returns the description of the session template.
func (s *session) describe(ctx context.Context, f render.Format) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)

	if f == render.FormatJSON {
		err = s.tpl.FormatJSON(ctx, &buf, 2)
	} else {
		err = s.tpl.FormatYAML(ctx, &buf, 2)
	}

	return strings.TrimRight(buf.String(), "\n"), err
}

// render renders the session template against the document in file, or
// against the template's own object if file is empty.
func (s *session) render(ctx context.Context, file string) (string, error) {
	var obj any

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}

		if err := yaml.UnmarshalContext(ctx, data, &obj); err != nil {
			return "", err
		}
	}

	v, err := render.Render(ctx, s.tpl, obj, render.WithLogger(s.logger))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := render.Encode(ctx, &buf, v, render.FormatJSON, 2); err != nil {
		return "", err
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// bind decodes text as YAML and binds the result to name.
func (s *session) bind(ctx context.Context, name, text string) error {
	var v any

	if err := yaml.UnmarshalContext(ctx, []byte(text), &v); err != nil {
		return err
	}

	s.compiler.Bind(name, v)

	return nil
}

// bindings describes every binding of the session compiler.
func (s *session) bindings() yaml.MapSlice {
	names := s.compiler.BindingNames()
	desc := make(yaml.MapSlice, 0, len(names))

	for _, name := range names {
		v, _ := s.compiler.Binding(name)
		desc = append(desc, yaml.MapItem{Key: name, Value: v})
	}

	return desc
}

// diff returns the items of next that are missing from prev or differ from
// the item of prev with the same key.
func diff(prev, next yaml.MapSlice) yaml.MapSlice {
	old := make(map[any]any, len(prev))
	for _, item := range prev {
		old[item.Key] = item.Value
	}

	var changed yaml.MapSlice

	for _, item := range next {
		if v, ok := old[item.Key]; !ok || !reflect.DeepEqual(v, item.Value) {
			changed = append(changed, item)
		}
	}

	return changed
}

// openBlocks returns the number of braces in s left open, ignoring braces in
// quoted strings.
func openBlocks(s string) int {
	var (
		depth   int
		quote   rune
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case quote != 0:
			switch r {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '{':
			depth++
		case r == '}':
			depth--
		}
	}

	return depth
}
