package prot

import (
	"context"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/packager"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Base is embedded by the protocol implementations. It holds the service and
// the exchange the protocol is bound to.
type Base struct {
	uri string
	svc *Service
	x   *mex.Exchange
}

func NewBase(uri string, s *Service, x *mex.Exchange) Base {
	return Base{uri: uri, svc: s, x: x}
}

func (b *Base) ProtocolURI() string {
	return b.uri
}

func (b *Base) Service() *Service {
	return b.svc
}

func (b *Base) Exchange() *mex.Exchange {
	return b.x
}

// Wallet returns the wallet attached to the exchange.
func (b *Base) Wallet() (*ssi.Wallet, error) {
	return mex.Require(b.x, WalletKey)
}

// Connection returns the connection attached to the exchange.
func (b *Base) Connection() (*psm.Connection, error) {
	return mex.Require(b.x, ConnectionKey)
}

// Inbound returns the inbound message of the type the running dispatch of
// ctx invokes the protocol with. Without a dispatch it's the latest inbound
// message of the type in the exchange.
func (b *Base) Inbound(ctx context.Context, messageType string) (*didcomm.EndpointMessage, error) {
	m := b.x.LastOfType(messageType)
	if d, ok := dispatchedOf(ctx); ok {
		m = d.epm
	}
	if m == nil || m.Direction() != didcomm.Inbound || m.Type() != messageType {
		return nil, didcomm.PreconditionFailed("inbound " + messageType)
	}
	return m, nil
}

// InboundConnection returns the connection the running dispatch of ctx
// matched to the inbound message, or the connection of the exchange.
// Deliveries of several connections can share an exchange.
func (b *Base) InboundConnection(ctx context.Context) (*psm.Connection, error) {
	if d, ok := dispatchedOf(ctx); ok && d.conn != nil {
		return d.conn, nil
	}
	return b.Connection()
}

// SendTo appends the outbound message to the exchange, and packs and
// dispatches it over the connection.
func (b *Base) SendTo(
	ctx context.Context,
	w *ssi.Wallet,
	conn *psm.Connection,
	msg any,
	protection packager.Protection,
) (
	epm *didcomm.EndpointMessage,
	err error,
) {
	defer err2.Handle(&err)

	epm = try.To1(didcomm.NewJSON(msg, didcomm.Outbound))
	b.x.AddMessage(epm)
	try.To(b.svc.Send(ctx, w, epm, RouteOf(conn, protection)))
	return epm, nil
}

// Await waits the message completing the future of the key. Zero timeout
// means the default await timeout of the settings.
func (b *Base) Await(ctx context.Context, key mex.FutureKey, timeout time.Duration) (*didcomm.EndpointMessage, error) {
	if timeout == 0 {
		timeout = utils.Settings.AwaitTimeout()
	}
	return b.x.AwaitMessage(ctx, key.Type, key.CorrID, timeout)
}
