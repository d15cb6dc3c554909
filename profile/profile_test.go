package profile

import (
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want Config
	}{
		{"zero", nil, Config{}},
		{"all", []Option{WithMode("cpu"), WithPath("/tmp/p"), WithQuiet(true)}, Config{"cpu", "/tmp/p", true}},
		{"last wins", []Option{WithMode("cpu"), WithMode("heap")}, Config{Mode: "heap"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.opts...); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestStart_NoMode(t *testing.T) {
	s := New(WithPath(t.TempDir())).Start()
	if _, ok := s.(ignore); !ok {
		t.Errorf("expected no-op stopper, got %T", s)
	}

	s.Stop()
}

func TestStart_UnknownMode(t *testing.T) {
	s := New(WithMode("bogus"), WithPath(t.TempDir()), WithQuiet(true)).Start()
	if _, ok := s.(ignore); !ok {
		t.Errorf("expected no-op stopper, got %T", s)
	}

	s.Stop()
}

func TestModes(t *testing.T) {
	modes := Modes()

	if !Enabled {
		if len(modes) != 0 {
			t.Errorf("expected no modes, got %v", modes)
		}

		return
	}

	if !slices.IsSorted(modes) || !slices.Contains(modes, "cpu") {
		t.Errorf("unexpected modes %v", modes)
	}
}
