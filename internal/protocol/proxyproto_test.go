package protocol

import (
	"bytes"
	"errors"
	"net"
	"testing"
)

func TestProxyV2HeaderByteExact(t *testing.T) {
	src := &net.TCPAddr{IP: net.ParseIP("10.1.1.1"), Port: 40000}
	dst := &net.TCPAddr{IP: net.ParseIP("10.2.2.2"), Port: 25565}

	var buf bytes.Buffer
	if err := WriteProxyV2Header(&buf, src, dst); err != nil {
		t.Fatalf("WriteProxyV2Header: %v", err)
	}

	want := []byte{
		0x0D, 0x0A, 0x0D, 0x0A, 0x00, 0x0D, 0x0A, 0x51, 0x55, 0x49, 0x54, 0x0A,
		0x21, 0x11, 0x00, 0x0C,
		0x0A, 0x01, 0x01, 0x01,
		0x0A, 0x02, 0x02, 0x02,
		0x9C, 0x40,
		0x63, 0xDD,
	}

	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("header mismatch\ngot:  % X\nwant: % X", buf.Bytes(), want)
	}
}

func TestProxyV2HeaderMixedFamilies(t *testing.T) {
	src := &net.TCPAddr{IP: net.ParseIP("10.1.1.1"), Port: 40000}
	dst := &net.TCPAddr{IP: net.ParseIP("2001:db8::1"), Port: 25565}

	var buf bytes.Buffer
	err := WriteProxyV2Header(&buf, src, dst)
	if err == nil {
		t.Fatal("expected error for mixed address families")
	}
	if !errors.Is(err, ErrMixedFamilies) {
		t.Errorf("expected ErrMixedFamilies, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no bytes written, got %d", buf.Len())
	}
}

func TestProxyV2HeaderIPv6(t *testing.T) {
	src := &net.TCPAddr{IP: net.ParseIP("2001:db8::1"), Port: 1234}
	dst := &net.TCPAddr{IP: net.ParseIP("2001:db8::2"), Port: 25565}

	var buf bytes.Buffer
	if err := WriteProxyV2Header(&buf, src, dst); err != nil {
		t.Fatalf("WriteProxyV2Header: %v", err)
	}

	got := buf.Bytes()
	if len(got) != 12+4+36 {
		t.Fatalf("unexpected header length %d", len(got))
	}
	if got[12] != proxyV2VersionCommand || got[13] != proxyV2FamilyTCPv6 {
		t.Errorf("version/command or family byte wrong: % X", got[12:14])
	}
}
