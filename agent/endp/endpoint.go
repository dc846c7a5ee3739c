/*
Package endp is the inbound side of the agent's transport. Addr is the
endpoint address of a wallet and Server serves the endpoints of the mounted
wallets over HTTP POST and WebSocket.
*/
package endp

import (
	"fmt"
	"net/url"
	"strings"
)

// Service names, i.e. the first path element of the endpoint.
const (
	ServiceHTTP = "a"
	ServiceWS   = "ws"
)

/*
Addr is the endpoint address of a wallet. The URL format is

	<scheme>://<host>/<service>/<wallet>

where service is `a` for HTTP POST and `ws` for WebSocket.
*/
type Addr struct {
	BasePath string // The base address of the URL, scheme and host
	Service  string
	Wallet   string
}

// NewServerAddr creates and fills new object from the path of the HTTP
// request. For that reason it cannot fill base address field.
func NewServerAddr(path string) (ea *Addr) {
	ea = new(Addr)
	parts := strings.Split(path, "/")
	for i, part := range parts {
		switch i {
		case 1:
			ea.Service = part
		case 2:
			ea.Wallet = part
		}
	}
	return ea
}

// NewClientAddr creates and fills new object from string which holds full URL
// of the address, including base address as well.
func NewClientAddr(s string) (ea *Addr, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q isn't absolute URL", s)
	}
	ea = NewServerAddr(u.Path)
	ea.BasePath = u.Scheme + "://" + u.Host
	return ea, nil
}

// Address returns the HTTP POST endpoint URL.
func (e *Addr) Address() string {
	return strings.TrimSuffix(fmt.Sprintf("%s/%s/%s", e.BasePath, ServiceHTTP, e.Wallet), "/")
}

// WSAddress returns the WebSocket endpoint URL.
func (e *Addr) WSAddress() string {
	base := e.BasePath
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimSuffix(fmt.Sprintf("%s/%s/%s", base, ServiceWS, e.Wallet), "/")
}

// TestAddress returns the path part of the address.
func (e *Addr) TestAddress() string {
	return strings.TrimSuffix(fmt.Sprintf("/%s/%s", e.Service, e.Wallet), "/")
}

func (e *Addr) String() string {
	return e.Address()
}
