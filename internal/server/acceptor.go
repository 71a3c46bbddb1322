package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/nickheyer/madproxy/internal/config"
	"github.com/nickheyer/madproxy/internal/controller"
	"github.com/nickheyer/madproxy/internal/routing"
	"github.com/nickheyer/madproxy/pkg/logger"
)

// Acceptor binds one listener and dispatches every accepted
// connection to its own Handler goroutine. Transient accept errors
// are logged and the loop continues; the acceptor only stops when ctx
// is cancelled or the listener is closed.
type Acceptor struct {
	listener net.Listener
	handler  *Handler
	log      *logger.Logger
}

// Listen binds addr and returns an Acceptor dispatching to handler.
func Listen(addr string, handler *Handler, log *logger.Logger) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Acceptor{listener: ln, handler: handler, log: log}, nil
}

// Addr returns the bound address.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Serve runs the accept loop until ctx is cancelled or Close is
// called. It never returns an error for expected shutdown.
func (a *Acceptor) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		a.listener.Close()
	}()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
				a.log.Error("accept on %s: %v", a.listener.Addr(), err)
				continue
			}
		}
		go a.handler.Handle(conn)
	}
}

// Close stops the acceptor's listener.
func (a *Acceptor) Close() error {
	return a.listener.Close()
}

// BuildAcceptors constructs one Acceptor per listener implied by
// cfg.Mode(): a single hostname-mode listener at cfg.ListenAddr, or
// one port-span-mode listener per port in [cfg.PortRange.Start,
// cfg.PortRange.End].
func BuildAcceptors(cfg *config.Config, table *routing.Table, wake *controller.BackendController, log *logger.Logger) ([]*Acceptor, error) {
	var acceptors []*Acceptor

	switch cfg.Mode() {
	case config.ModePortSpan:
		for port := cfg.PortRange.Start; port <= cfg.PortRange.End; port++ {
			resolver := &PortSpanResolver{BackendHost: cfg.BackendServer}
			addr := fmt.Sprintf("0.0.0.0:%d", port)
			handler := NewHandler(cfg, resolver, wake, log, port)
			acc, err := Listen(addr, handler, log)
			if err != nil {
				for _, a := range acceptors {
					a.Close()
				}
				return nil, err
			}
			acceptors = append(acceptors, acc)
		}
	default:
		resolver := &HostnameResolver{Table: table}
		handler := NewHandler(cfg, resolver, wake, log, 0)
		acc, err := Listen(cfg.ListenAddr, handler, log)
		if err != nil {
			return nil, err
		}
		acceptors = append(acceptors, acc)
	}

	return acceptors, nil
}
