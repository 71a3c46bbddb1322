package server

import (
	"fmt"
	"net"

	"github.com/nickheyer/madproxy/internal/routing"
)

// Backend is the resolved destination for a connection: the address
// to dial, and the opaque id used to call the control plane.
type Backend struct {
	ServerID string
	Addr     string
}

// Resolver is the capability the connection handler is parametric
// over, letting hostname mode and port-span mode share the rest of
// the state machine. Increment/Decrement are no-ops in port-span
// mode, which consults no routing table and has no player counters.
type Resolver interface {
	Resolve(host string, listenerPort int) (Backend, bool)
	Increment(host string)
	Decrement(host string)
}

// HostnameResolver implements Resolver for hostname mode: a single
// listener fronting many virtual hosts, consulting the routing table
// per connection.
type HostnameResolver struct {
	Table *routing.Table
}

func (r *HostnameResolver) Resolve(host string, _ int) (Backend, bool) {
	entry := r.Table.Lookup(host)
	if entry == nil {
		return Backend{}, false
	}
	return Backend{ServerID: entry.ID, Addr: entry.BackendServer}, true
}

func (r *HostnameResolver) Increment(host string) { r.Table.Increment(host) }
func (r *HostnameResolver) Decrement(host string) { r.Table.Decrement(host) }

// PortSpanResolver implements Resolver for port-span mode: a
// contiguous listener port range where each port statically maps to
// the same-numbered port on a single backend host. No routing table
// is consulted and no wake-up is ever attempted, since there's no
// ServerID to identify a backend by.
type PortSpanResolver struct {
	BackendHost string
}

func (r *PortSpanResolver) Resolve(_ string, listenerPort int) (Backend, bool) {
	return Backend{
		ServerID: "",
		Addr:     net.JoinHostPort(r.BackendHost, fmt.Sprintf("%d", listenerPort)),
	}, true
}

func (r *PortSpanResolver) Increment(string) {}
func (r *PortSpanResolver) Decrement(string) {}
