// Package server implements the per-connection state machine (S0-S6
// in the design notes) and the acceptors that feed it.
package server

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/nickheyer/madproxy/internal/config"
	"github.com/nickheyer/madproxy/internal/controller"
	"github.com/nickheyer/madproxy/internal/protocol"
	"github.com/nickheyer/madproxy/pkg/logger"
)

const (
	handshakeTimeout = 5 * time.Second
	dialTimeout      = 5 * time.Second
)

// Handler sequences the connection state machine for one listener:
// parse the handshake, resolve a backend via resolver, and either
// synthesize a reply or splice to the backend after a PROXY v2
// preamble.
type Handler struct {
	cfg        *config.Config
	resolver   Resolver
	wake       *controller.BackendController
	log        *logger.Logger
	listenPort int
}

// NewHandler builds a Handler bound to one listener's port (used by
// port-span mode to pick the backend port; ignored by hostname mode).
func NewHandler(cfg *config.Config, resolver Resolver, wake *controller.BackendController, log *logger.Logger, listenPort int) *Handler {
	return &Handler{cfg: cfg, resolver: resolver, wake: wake, log: log, listenPort: listenPort}
}

// Handle runs the full state machine for one accepted connection. It
// always closes clientConn before returning.
func (h *Handler) Handle(clientConn net.Conn) {
	defer clientConn.Close()

	cid := uuid.NewString()[:8]
	peer := clientConn.RemoteAddr()

	clientConn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	hs, err := protocol.ReadHandshake(clientConn)
	if err != nil {
		h.log.Debug("[%s] %s: dropping, failed to read handshake: %v", cid, peer, err)
		return
	}
	clientConn.SetReadDeadline(time.Time{})

	host := protocol.NormalizeHostname(hs.ServerAddress)
	h.log.Debug("[%s] %s: handshake for host=%q next_state=%d", cid, peer, host, hs.NextState)

	backend, ok := h.resolver.Resolve(host, h.listenPort)
	if !ok {
		h.log.Debug("[%s] %s: no route for host=%q", cid, peer, host)
		h.replyUnknownHost(clientConn, hs.NextState)
		return
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	backendConn, err := dialer.Dial("tcp", backend.Addr)
	if err != nil {
		h.log.Debug("[%s] %s: backend %s unreachable: %v", cid, peer, backend.Addr, err)
		h.replyBackendUnreachable(clientConn, hs.NextState, backend.ServerID)
		return
	}
	defer backendConn.Close()

	if tc, ok := clientConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	if tc, ok := backendConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	if err := h.writeProxyHeader(clientConn, backendConn); err != nil {
		h.log.Warn("[%s] %s: %v", cid, peer, err)
		return
	}

	if err := protocol.WriteRaw(backendConn, hs); err != nil {
		h.log.Warn("[%s] %s: failed to forward handshake to backend: %v", cid, peer, err)
		return
	}

	h.resolver.Increment(host)
	defer h.resolver.Decrement(host)

	h.log.Info("[%s] %s: routed to %s", cid, peer, backend.Addr)
	splice(clientConn, backendConn)
	h.log.Debug("[%s] %s: connection closed", cid, peer)
}

func (h *Handler) writeProxyHeader(clientConn, backendConn net.Conn) error {
	srcAddr, ok := clientConn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("client remote address is not TCP: %v", clientConn.RemoteAddr())
	}
	dstAddr, ok := backendConn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("backend remote address is not TCP: %v", backendConn.RemoteAddr())
	}

	if err := protocol.WriteProxyV2Header(backendConn, srcAddr, dstAddr); err != nil {
		return fmt.Errorf("write proxy v2 header: %w", err)
	}
	return nil
}

func (h *Handler) replyUnknownHost(conn net.Conn, next protocol.NextState) {
	switch next {
	case protocol.NextStateStatus:
		protocol.WriteStatusResponse(conn, h.cfg.UnknownHost.MOTD.ProtocolName, h.cfg.UnknownHost.MOTD.Text)
	default:
		protocol.WriteDisconnect(conn, h.cfg.UnknownHost.KickMessage)
	}
}

func (h *Handler) replyBackendUnreachable(conn net.Conn, next protocol.NextState, serverID string) {
	switch next {
	case protocol.NextStateStatus:
		protocol.WriteStatusResponse(conn, h.cfg.OfflineServer.MOTD.ProtocolName, h.cfg.OfflineServer.MOTD.Text)
	default:
		if h.cfg.AutoStart && serverID != "" {
			h.wake.Start(serverID)
			protocol.WriteDisconnect(conn, h.cfg.OfflineServer.StartingMessage)
		} else {
			protocol.WriteDisconnect(conn, h.cfg.OfflineServer.KickMessage)
		}
	}
}

// splice runs two independent half-duplex copies, client->backend and
// backend->client, and returns as soon as either direction hits EOF or
// an error. Each copy closes the write half of its destination when it
// ends; the copy still running is unblocked when the caller closes
// both connections after splice returns.
func splice(client, backend net.Conn) {
	done := make(chan struct{}, 2)

	go func() {
		io.Copy(backend, client)
		closeWrite(backend)
		done <- struct{}{}
	}()

	go func() {
		io.Copy(client, backend)
		closeWrite(client)
		done <- struct{}{}
	}()

	<-done
}

type writeCloser interface {
	CloseWrite() error
}

func closeWrite(conn net.Conn) {
	if wc, ok := conn.(writeCloser); ok {
		wc.CloseWrite()
		return
	}
	conn.Close()
}
