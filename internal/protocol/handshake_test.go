package protocol

import (
	"bytes"
	"testing"
)

// buildHandshakeBytes constructs a literal handshake packet buffer the
// way a real client would send it.
func buildHandshakeBytes(t *testing.T, protocolVersion VarInt, addr string, port uint16, next VarInt) []byte {
	t.Helper()

	var body bytes.Buffer
	if err := WriteVarInt(&body, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := WriteVarInt(&body, protocolVersion); err != nil {
		t.Fatal(err)
	}
	if err := WriteVarInt(&body, VarInt(len(addr))); err != nil {
		t.Fatal(err)
	}
	body.WriteString(addr)
	body.WriteByte(byte(port >> 8))
	body.WriteByte(byte(port))
	if err := WriteVarInt(&body, next); err != nil {
		t.Fatal(err)
	}

	var packet bytes.Buffer
	if err := WriteVarInt(&packet, VarInt(body.Len())); err != nil {
		t.Fatal(err)
	}
	packet.Write(body.Bytes())

	return packet.Bytes()
}

func TestReadHandshake(t *testing.T) {
	raw := buildHandshakeBytes(t, 760, "mc.example.com", 25565, 1)

	hs, err := ReadHandshake(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadHandshake: %v", err)
	}

	if hs.ProtocolVersion != 760 {
		t.Errorf("ProtocolVersion = %d, want 760", hs.ProtocolVersion)
	}
	if hs.ServerAddress != "mc.example.com" {
		t.Errorf("ServerAddress = %q", hs.ServerAddress)
	}
	if hs.ServerPort != 25565 {
		t.Errorf("ServerPort = %d, want 25565", hs.ServerPort)
	}
	if hs.NextState != NextStateStatus {
		t.Errorf("NextState = %d, want Status", hs.NextState)
	}
}

func TestHandshakeRoundTrip(t *testing.T) {
	raw := buildHandshakeBytes(t, 47, "a///198.51.100.7", 25565, 2)

	hs, err := ReadHandshake(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadHandshake: %v", err)
	}

	var out bytes.Buffer
	if err := WriteRaw(&out, hs); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}

	if !bytes.Equal(out.Bytes(), raw) {
		t.Errorf("WriteRaw did not reproduce the original bytes\ngot:  % x\nwant: % x", out.Bytes(), raw)
	}
}

func TestReadHandshakeWrongPacketID(t *testing.T) {
	var body bytes.Buffer
	WriteVarInt(&body, 0x01) // wrong id

	var packet bytes.Buffer
	WriteVarInt(&packet, VarInt(body.Len()))
	packet.Write(body.Bytes())

	if _, err := ReadHandshake(&packet); err == nil {
		t.Fatal("expected error for wrong packet id")
	}
}

func TestReadHandshakeTrailingBytesUntouched(t *testing.T) {
	raw := buildHandshakeBytes(t, 760, "mc.example.com", 25565, 1)
	trailer := []byte("subsequent client bytes")

	buf := bytes.NewBuffer(append(append([]byte{}, raw...), trailer...))

	if _, err := ReadHandshake(buf); err != nil {
		t.Fatalf("ReadHandshake: %v", err)
	}

	if !bytes.Equal(buf.Bytes(), trailer) {
		t.Errorf("ReadHandshake consumed bytes beyond the single packet: left %q, want %q", buf.Bytes(), trailer)
	}
}
