package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// proxyV2Magic is the fixed 12-byte PROXY protocol v2 signature.
var proxyV2Magic = [12]byte{0x0D, 0x0A, 0x0D, 0x0A, 0x00, 0x0D, 0x0A, 0x51, 0x55, 0x49, 0x54, 0x0A}

const (
	proxyV2VersionCommand = 0x21 // version 2, command PROXY (real connection)
	proxyV2FamilyTCPv4    = 0x11 // AF_INET, STREAM
	proxyV2FamilyTCPv6    = 0x21 // AF_INET6, STREAM
)

// WriteProxyV2Header encodes and writes the binary PROXY protocol v2
// preamble for the connection from src to dst. Both addresses must
// resolve to the same address family, or ErrMixedFamilies is returned
// and nothing is written.
func WriteProxyV2Header(w io.Writer, src, dst *net.TCPAddr) error {
	srcIP4, srcIs4 := addrTo4(src.IP)
	dstIP4, dstIs4 := addrTo4(dst.IP)

	if srcIs4 != dstIs4 {
		return fmt.Errorf("src=%s dst=%s: %w", src, dst, ErrMixedFamilies)
	}

	buf := make([]byte, 0, 28)
	buf = append(buf, proxyV2Magic[:]...)

	if srcIs4 {
		buf = append(buf, proxyV2VersionCommand, proxyV2FamilyTCPv4)
		buf = binary.BigEndian.AppendUint16(buf, 12) // address block length
		buf = append(buf, srcIP4[:]...)
		buf = append(buf, dstIP4[:]...)
		buf = binary.BigEndian.AppendUint16(buf, uint16(src.Port))
		buf = binary.BigEndian.AppendUint16(buf, uint16(dst.Port))
	} else {
		srcIP16 := src.IP.To16()
		dstIP16 := dst.IP.To16()
		if srcIP16 == nil || dstIP16 == nil {
			return fmt.Errorf("src=%s dst=%s: %w", src, dst, ErrMixedFamilies)
		}
		buf = append(buf, proxyV2VersionCommand, proxyV2FamilyTCPv6)
		buf = binary.BigEndian.AppendUint16(buf, 36) // address block length
		buf = append(buf, srcIP16...)
		buf = append(buf, dstIP16...)
		buf = binary.BigEndian.AppendUint16(buf, uint16(src.Port))
		buf = binary.BigEndian.AppendUint16(buf, uint16(dst.Port))
	}

	_, err := w.Write(buf)
	return err
}

// addrTo4 reports whether ip is expressible as IPv4 and its 4-byte form.
func addrTo4(ip net.IP) (addr [4]byte, ok bool) {
	v4 := ip.To4()
	if v4 == nil {
		return addr, false
	}
	copy(addr[:], v4)
	return addr, true
}
