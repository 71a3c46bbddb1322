package protocol

import "errors"

// Error kinds of the proxy core. Where this package returns one, it
// wraps it via fmt.Errorf("%w"), so callers can use errors.Is against
// these sentinels to classify a failure. The connection handler does
// not branch on them: it decides from the resolver's result and the
// dial error directly, and ErrUnknownHost and ErrBackendUnreachable
// are not returned anywhere.
var (
	// ErrMalformed covers a bad VarInt, wrong packet id, truncated
	// UTF-8, or an oversized length prefix. The peer may not speak
	// the protocol at all, so the connection is dropped silently.
	ErrMalformed = errors.New("malformed packet")

	// ErrUnknownHost means normalization yielded no routing match.
	ErrUnknownHost = errors.New("unknown host")

	// ErrBackendUnreachable means the dial failed, DNS failed, or the
	// remote reset before any bytes flowed.
	ErrBackendUnreachable = errors.New("backend unreachable")

	// ErrMixedFamilies means the client and backend addresses are not
	// the same address family, so PROXY v2 cannot be emitted.
	ErrMixedFamilies = errors.New("mixed address families")
)
