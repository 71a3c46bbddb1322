package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// NextState enumerates the handshake's declared intent for the
// session that follows it.
type NextState VarInt

const (
	NextStateStatus   NextState = 1
	NextStateLogin    NextState = 2
	NextStateTransfer NextState = 3 // treated as Login
)

const maxServerAddressLen = 255

// Handshake is the decoded form of the first packet a client sends,
// plus the raw body bytes needed to reproduce it byte-for-byte when
// forwarding to a backend.
type Handshake struct {
	ProtocolVersion VarInt
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState

	// RawBody is packet id 0x00 followed by the four fields above, as
	// they were actually received. Re-framing RawBody with its own
	// length reproduces the original client bytes exactly.
	RawBody []byte
}

// ReadHandshake reads exactly one Handshake packet (id 0x00) from a
// fresh client stream. It reads nothing beyond that single packet.
func ReadHandshake(r io.Reader) (*Handshake, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("read packet length: %w", err)
	}
	if length < 1 || length > 2097151 {
		return nil, fmt.Errorf("invalid packet length %d: %w", length, ErrMalformed)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read packet body: %w", err)
	}

	buf := bytes.NewReader(body)

	packetID, err := ReadVarInt(buf)
	if err != nil {
		return nil, fmt.Errorf("read packet id: %w", err)
	}
	if packetID != 0x00 {
		return nil, fmt.Errorf("expected handshake id 0x00, got %#x: %w", packetID, ErrMalformed)
	}

	h := &Handshake{}

	h.ProtocolVersion, err = ReadVarInt(buf)
	if err != nil {
		return nil, fmt.Errorf("read protocol version: %w", err)
	}

	addrLen, err := ReadVarInt(buf)
	if err != nil {
		return nil, fmt.Errorf("read address length: %w", err)
	}
	if addrLen < 0 || int(addrLen) > maxServerAddressLen*4 {
		// UTF-8 bytes can run up to 4x the code-unit count; reject
		// anything that couldn't possibly decode to <= 255 code units.
		return nil, fmt.Errorf("invalid address length %d: %w", addrLen, ErrMalformed)
	}

	addrBytes := make([]byte, addrLen)
	if _, err := io.ReadFull(buf, addrBytes); err != nil {
		return nil, fmt.Errorf("read address: %w", err)
	}
	if !utf8.Valid(addrBytes) {
		return nil, fmt.Errorf("server address is not valid utf-8: %w", ErrMalformed)
	}
	h.ServerAddress = string(addrBytes)

	if err := binary.Read(buf, binary.BigEndian, &h.ServerPort); err != nil {
		return nil, fmt.Errorf("read server port: %w", err)
	}

	next, err := ReadVarInt(buf)
	if err != nil {
		return nil, fmt.Errorf("read next state: %w", err)
	}
	h.NextState = NextState(next)

	h.RawBody = body
	return h, nil
}

// WriteRaw re-frames the handshake's original raw body and writes it
// to w: VarInt(len(raw_body)) followed by raw_body, byte-for-byte.
func WriteRaw(w io.Writer, h *Handshake) error {
	if err := WriteVarInt(w, VarInt(len(h.RawBody))); err != nil {
		return fmt.Errorf("write packet length: %w", err)
	}
	_, err := w.Write(h.RawBody)
	return err
}
