/*
Package trans is the transport of the packed DIDComm messages. A Dispatcher
delivers the message to the endpoint URL. The Router selects the Dispatcher by
the URL scheme: http(s) goes to HTTP, ws(s) to WS and mem to the in process
Memory transport.

A dispatch reports the delivery, not the processing of the message. The
Memory transport is the exception: it runs the receiving handler in the
sender's goroutine and returns the handler's error, including the errors of
the replies the handler sends and receives in turn. Over HTTP the handler's
error only maps to the status code of the endpoint.
*/
package trans

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/golang/glog"
)

//go:generate mockgen -source=transport.go -destination=mock_trans/mock_dispatcher.go Dispatcher

// Dispatcher delivers the packed message to the endpoint.
type Dispatcher interface {
	DispatchToEndpoint(ctx context.Context, endpoint string, epm *didcomm.EndpointMessage) error
}

// Handler is the inbound side of the transport. It receives the packed
// message and its transport headers.
type Handler func(ctx context.Context, body []byte, headers map[string]string) error

// Router is a Dispatcher which routes by the URL scheme.
type Router struct {
	lk     sync.RWMutex
	routes map[string]Dispatcher
}

// NewRouter returns the router with the HTTP and WS dispatchers. Memory
// transport must be added with Handle.
func NewRouter() *Router {
	r := &Router{routes: make(map[string]Dispatcher)}
	h := NewHTTP()
	r.Handle("http", h)
	r.Handle("https", h)
	ws := &WS{}
	r.Handle("ws", ws)
	r.Handle("wss", ws)
	return r
}

// Handle sets the dispatcher of the scheme.
func (r *Router) Handle(scheme string, d Dispatcher) {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.routes[scheme] = d
}

func (r *Router) DispatchToEndpoint(ctx context.Context, endpoint string, epm *didcomm.EndpointMessage) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", endpoint, err)
	}
	r.lk.RLock()
	d, ok := r.routes[u.Scheme]
	r.lk.RUnlock()
	if !ok {
		return fmt.Errorf("no transport for scheme %q of %s", u.Scheme, endpoint)
	}
	glog.V(3).Infof("dispatch %s -> %s", epm.ID(), endpoint)
	return d.DispatchToEndpoint(ctx, endpoint, epm)
}
