/*
Package prot is the protocol layer of the message exchange. Protocol packages
register their constructors by the protocol URI from their init(). The Service
binds protocol instances to exchanges, routes inbound messages to them by the
message type URI, and packs and dispatches the outbound messages.
*/
package prot

import (
	"context"
	"fmt"
	"strings"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/golang/glog"
)

// Protocol is bound to one exchange. InvokeMethod is called by the inbound
// dispatch for each message of the protocol's namespace. It must handle every
// message type the protocol declares and fail with unsupported message type
// for the rest.
type Protocol interface {
	ProtocolURI() string
	InvokeMethod(ctx context.Context, to *ssi.Wallet, messageType string) (bool, error)
}

// Key is a typed protocol key. With returns the protocol as P.
type Key[P Protocol] struct {
	URI string
}

func (k Key[P]) String() string {
	return k.URI
}

// Creator constructs the protocol instance for the exchange.
type Creator func(s *Service, x *mex.Exchange) Protocol

// creators is the fixed URI to constructor map. It's filled by the protocol
// packages' init() functions and only read after that.
var creators = map[string]Creator{}

// AddCreator registers the protocol constructor by the protocol URI.
func AddCreator(uri string, c Creator) {
	creators[uri] = c
}

// GetProtocol returns the protocol instance bound to the exchange. The
// instance is constructed and bound at the first call.
func (s *Service) GetProtocol(uri string, x *mex.Exchange) (Protocol, error) {
	if p, ok := x.Protocol(uri); ok {
		if proto, ok := p.(Protocol); ok {
			return proto, nil
		}
	}
	create, ok := creators[uri]
	if !ok {
		return nil, didcomm.UnknownProtocol(uri)
	}
	p := create(s, x)
	x.BindProtocol(uri, p)
	glog.V(3).Infof("mex %s bound to %s", x.ID(), uri)
	return p, nil
}

// GetProtocolKey returns the URI of the protocol owning the message type.
// The longest registered URI which is the type itself or its path prefix
// wins.
func (s *Service) GetProtocolKey(messageType string) (uri string, ok bool) {
	for key := range creators {
		if key != messageType && !strings.HasPrefix(messageType, key+"/") {
			continue
		}
		if len(key) > len(uri) {
			uri = key
		}
	}
	return uri, uri != ""
}

// With returns the protocol of the key bound to the exchange and makes it
// the exchange's current protocol.
func With[P Protocol](s *Service, x *mex.Exchange, key Key[P]) (p P, err error) {
	proto, err := s.GetProtocol(key.URI, x)
	if err != nil {
		return p, err
	}
	p, ok := proto.(P)
	if !ok {
		return p, fmt.Errorf("%w: %s is %T", didcomm.ErrUnknownProtocol, key.URI, proto)
	}
	x.SetCurrentProtocol(key.URI)
	return p, nil
}
