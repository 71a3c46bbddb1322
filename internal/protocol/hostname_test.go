package protocol

import "testing"

func TestNormalizeHostname(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"mc.host///1.2.3.4", "mc.host"},
		{"mc.hostFML2", "mc.host"},
		{"mc.hostFML", "mc.host"},
		{"mc.host\x00", "mc.host"},
		{"mc.host", "mc.host"},
		{"a///198.51.100.7", "a"},
	}

	for _, c := range cases {
		got := NormalizeHostname(c.in)
		if got != c.want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeHostnameIdempotent(t *testing.T) {
	inputs := []string{
		"mc.host///1.2.3.4",
		"mc.hostFML2",
		"mc.hostFML",
		"mc.host\x00",
		"plain.example.com",
	}

	for _, in := range inputs {
		once := NormalizeHostname(in)
		twice := NormalizeHostname(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
