package theme

import (
	"strings"
	"testing"
)

func TestParseGPL(t *testing.T) {
	src := `GIMP Palette
Name: test
Columns: 2
#
  0   0   0	black
255 255 255	white
bogus line
`
	p, err := ParseGPL(strings.NewReader(src), "inline")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "test" || len(p.Colors) != 2 {
		t.Fatalf("got %q with %d colors", p.Name, len(p.Colors))
	}

	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n"), "empty"); err == nil {
		t.Error("empty palette parsed")
	}
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}, {255, 255, 255}}}

	tests := []struct {
		norm float64
		want RGB
	}{
		{-1, RGB{0, 0, 0}},
		{0, RGB{0, 0, 0}},
		{0.25, RGB{100, 50, 25}},
		{0.5, RGB{200, 100, 50}},
		{1, RGB{255, 255, 255}},
		{2, RGB{255, 255, 255}},
	}

	for _, tt := range tests {
		if got := p.Lookup(tt.norm); got != tt.want {
			t.Errorf("Lookup(%v) = %v, want %v", tt.norm, got, tt.want)
		}
	}
}

func TestBuiltinPalettes(t *testing.T) {
	names := BuiltinNames()
	if len(names) < 2 {
		t.Fatalf("BuiltinNames() = %v", names)
	}
	for _, name := range names {
		p, err := Load(name)
		if err != nil {
			t.Errorf("Load(%q): %v", name, err)
			continue
		}
		if len(p.Colors) == 0 {
			t.Errorf("%s has no colors", name)
		}
	}

	p, err := Load("")
	if err != nil || p.Name != DefaultPalette {
		t.Errorf("Load(\"\") = %v, %v; want the default palette", p, err)
	}
	if _, err := Load("no-such-palette"); err == nil {
		t.Error("unknown palette loaded")
	}
}

func TestHex(t *testing.T) {
	if got := (RGB{255, 16, 0}).Hex(); got != "#ff1000" {
		t.Errorf("Hex() = %q", got)
	}
}
