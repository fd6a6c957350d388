package keymap

import "testing"

func TestCode(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"f1", 0x70},
		{"F1", 0x70},
		{"f12", 0x7B},
		{"f24", 0x87},
		{"escape", 0x1B},
		{" space ", 0x20},
		{"a", 'A'},
		{"z", 'Z'},
		{"0", '0'},
		{"9", '9'},
		{"numpad0", 0x60},
		{"numpad9", 0x69},
		{"lshift", 0xA0},
		{"oem_period", 0xBE},
	}
	for _, tc := range cases {
		got, ok := Code(tc.name)
		if !ok {
			t.Errorf("Code(%q) not found", tc.name)
			continue
		}
		if got != tc.want {
			t.Errorf("Code(%q) = %#x, want %#x", tc.name, got, tc.want)
		}
	}
}

func TestCodeUnknown(t *testing.T) {
	if _, ok := Code("no-such-key"); ok {
		t.Error("unknown key name resolved")
	}
	if _, ok := Code(""); ok {
		t.Error("empty key name resolved")
	}
}

func TestNameRoundTrip(t *testing.T) {
	for _, name := range []string{"f1", "escape", "a", "numpad5", "return"} {
		code, ok := Code(name)
		if !ok {
			t.Fatalf("Code(%q) not found", name)
		}
		got, ok := Name(code)
		if !ok {
			t.Fatalf("Name(%#x) not found", code)
		}
		if got != name {
			t.Errorf("Name(Code(%q)) = %q", name, got)
		}
	}
}

func TestNameUnknown(t *testing.T) {
	if _, ok := Name(0xFFFF); ok {
		t.Error("unknown code resolved")
	}
}
