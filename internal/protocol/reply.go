package protocol

import (
	"bytes"
	"encoding/json"
	"io"
)

// statusVersion and statusPlayers are fixed across all synthesized
// Status Response replies; only the description text and protocol
// name vary.
type statusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type statusPlayers struct {
	Max    int      `json:"max"`
	Online int      `json:"online"`
	Sample []string `json:"sample"`
}

type statusDescription struct {
	Text string `json:"text"`
}

type statusResponse struct {
	Version     statusVersion     `json:"version"`
	Players     statusPlayers     `json:"players"`
	Description statusDescription `json:"description"`
}

type disconnectMessage struct {
	Text string `json:"text"`
}

// WriteDisconnect writes a synthetic Disconnect reply (used on the
// Login path): a packet id 0x00 whose payload is {"text": kickMessage}.
func WriteDisconnect(w io.Writer, kickMessage string) error {
	payload, err := json.Marshal(disconnectMessage{Text: kickMessage})
	if err != nil {
		return err
	}
	return writeFramedString(w, payload)
}

// WriteStatusResponse writes a synthetic Status Response reply (used
// on the Status path). The handler closes the connection immediately
// after; no Ping/Pong exchange is implemented.
func WriteStatusResponse(w io.Writer, protocolName, motdText string) error {
	resp := statusResponse{
		Version: statusVersion{Name: protocolName, Protocol: -1},
		Players: statusPlayers{Max: 0, Online: 0, Sample: []string{}},
		Description: statusDescription{
			Text: motdText,
		},
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeFramedString(w, payload)
}

// writeFramedString emits VarInt(total_size) || VarInt(0x00) ||
// VarInt(strlen) || payload, where total_size covers everything after
// itself.
func writeFramedString(w io.Writer, payload []byte) error {
	var inner bytes.Buffer
	if err := WriteVarInt(&inner, 0x00); err != nil {
		return err
	}
	if err := WriteVarInt(&inner, VarInt(len(payload))); err != nil {
		return err
	}
	inner.Write(payload)

	if err := WriteVarInt(w, VarInt(inner.Len())); err != nil {
		return err
	}
	_, err := w.Write(inner.Bytes())
	return err
}
