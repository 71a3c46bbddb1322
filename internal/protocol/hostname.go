package protocol

import "strings"

// NormalizeHostname strips known client-mod prefixes/suffixes from a
// handshake's server_address to produce the routing key. The rewrites
// are applied in order, each at most once. For an address carrying at
// most one Forge marker and one trailing NUL, NormalizeHostname(
// NormalizeHostname(x)) == NormalizeHostname(x); an address with more
// (such as "host\x00FML2\x00", which normalizes to "host\x00") still
// changes when normalized a second time.
func NormalizeHostname(addr string) string {
	// TCPShield multiplexer prefix: the real client IP rides after
	// "///" but the proxy already knows the TCP peer, so it's dropped.
	if idx := strings.Index(addr, "///"); idx != -1 {
		addr = addr[:idx]
	}

	// Forge mod handshake suffixes.
	if idx := strings.Index(addr, "FML2"); idx != -1 {
		addr = addr[:idx] + addr[idx+len("FML2"):]
	} else if idx := strings.Index(addr, "FML"); idx != -1 {
		addr = addr[:idx] + addr[idx+len("FML"):]
	}

	// Only one trailing NUL is stripped, not all of them: a real
	// Forge-1.13+ address like "host\x00FML2\x00" still carries one
	// NUL afterward and won't route. Matches spec.md's literal
	// single-strip algorithm rather than the teacher's truncate-at-
	// first-NUL behavior.
	addr = strings.TrimSuffix(addr, "\x00")

	return addr
}
