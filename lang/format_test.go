package lang

import (
	"context"
	"strings"
	"testing"
)

// nestedUnlessNode treats every block except node bodies as a nested program.
func nestedUnlessNode(call *Call) bool { return call.Name != "node" }

func TestFormatter_Format(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		indent int
		want   string
	}{
		{
			name:   "empty",
			input:  "",
			indent: 2,
			want:   "",
		},
		{
			name:   "arguments and aliases",
			input:  "attributes(:id,:foo=>:bar,'x y')",
			indent: 2,
			want:   "attributes :id, :foo => :bar, \"x y\"\n",
		},
		{
			name:   "nested block",
			input:  "child(:address){attribute :city;attribute :zip}",
			indent: 2,
			want:   "child :address {\n  attribute :city\n  attribute :zip\n}\n",
		},
		{
			name:   "do block becomes braces",
			input:  "child @user => :author do\n      attribute :name\nend",
			indent: 4,
			want:   "child @user => :author {\n    attribute :name\n}\n",
		},
		{
			name:   "single line",
			input:  "attribute :id\nchild :a do\n attribute :b\nend",
			indent: 0,
			want:   "attribute :id; child :a { attribute :b }\n",
		},
		{
			name:   "deferred body kept verbatim",
			input:  "node(:full) {|u|   u.first + \" \" + u.last   }",
			indent: 2,
			want:   "node :full { |u| u.first + \" \" + u.last }\n",
		},
		{
			name:   "multi-line deferred body",
			input:  "node :x do\n        let a = 1;\n          a + 1\n      end",
			indent: 2,
			want:   "node :x {\n  let a = 1;\n    a + 1\n}\n",
		},
		{
			name:   "symbols needing quotes",
			input:  `attribute :"first name"`,
			indent: 2,
			want:   "attribute :\"first name\"\n",
		},
		{
			name:   "empty blocks",
			input:  "child :a {}\nnode :b {   }",
			indent: 2,
			want:   "child :a { }\nnode :b { }\n",
		},
	}

	f := Formatter{Nested: nestedUnlessNode}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseString(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			var sb strings.Builder

			f.Indent = tt.indent
			if err := f.Format(context.Background(), &sb, prog); err != nil {
				t.Fatalf("format error: %v", err)
			}

			if got := sb.String(); got != tt.want {
				t.Errorf("unexpected output:\ngot:  %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestFormatter_RoundTrip(t *testing.T) {
	inputs := []string{
		"object @user\nattributes :id, :name => :full_name\n",
		"child :address do\n  child(:geo) { attribute :lat; attribute :lng }\nend",
		"node(:greeting) { |u|\n  \"Hello, \" +\n    u.name\n}",
		"collection @users; attribute :id",
	}

	ctx := context.Background()

	for _, indent := range []int{0, 2} {
		f := Formatter{Indent: indent, Nested: nestedUnlessNode}

		for _, input := range inputs {
			prog, err := ParseString(ctx, input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			var first strings.Builder
			if err := f.Format(ctx, &first, prog); err != nil {
				t.Fatalf("format error: %v", err)
			}

			again, err := ParseString(ctx, first.String())
			if err != nil {
				t.Fatalf("formatted output does not parse: %v\n%s", err, first.String())
			}

			if again.Len() != prog.Len() {
				t.Errorf("call count changed from %d to %d", prog.Len(), again.Len())
			}

			var second strings.Builder
			if err := f.Format(ctx, &second, again); err != nil {
				t.Fatalf("format error: %v", err)
			}

			if first.String() != second.String() {
				t.Errorf("formatting is not stable (indent %d):\nfirst:  %q\nsecond: %q",
					indent, first.String(), second.String())
			}
		}
	}
}

func TestFormat_NilNested(t *testing.T) {
	prog, err := ParseString(context.Background(), "child :a {\n    attribute :b\n}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var sb strings.Builder
	if err := Format(context.Background(), &sb, prog, 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if want := "child :a { attribute :b }\n"; sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}
