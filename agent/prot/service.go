package prot

import (
	"context"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/packager"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/trans"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Attachment keys shared by the protocols.
var (
	WalletKey        = mex.NewKey[*ssi.Wallet]("wallet")
	InviterWalletKey = mex.NewKey[*ssi.Wallet]("inviter-wallet")
	InviteeWalletKey = mex.NewKey[*ssi.Wallet]("invitee-wallet")
	ConnectionKey    = mex.NewKey[*psm.Connection]("connection")
	InvitationKey    = mex.NewKey[*psm.Invitation]("invitation")
)

// Service is the protocol service of the agent process. All the wallets of
// the process can share it.
type Service struct {
	transport trans.Dispatcher
	exchanges *mex.Registry
}

// NewService creates the service. If reg is nil a new registry is created.
func NewService(transport trans.Dispatcher, reg *mex.Registry) *Service {
	if reg == nil {
		reg = mex.NewRegistry()
	}
	return &Service{transport: transport, exchanges: reg}
}

func (s *Service) Exchanges() *mex.Registry {
	return s.exchanges
}

func (s *Service) Transport() trans.Dispatcher {
	return s.transport
}

// NewExchange creates an exchange registered to the service's registry.
func (s *Service) NewExchange() *mex.Exchange {
	return s.exchanges.New()
}

// ExchangeFor returns the exchange of the connection. It's the exchange found
// by our verkey of the connection if the exchange belongs to the wallet, or a
// new one. The wallet and the connection are attached to it.
func (s *Service) ExchangeFor(w *ssi.Wallet, conn *psm.Connection) *mex.Exchange {
	x := s.exchangeOf(w, conn.MyVerkey())
	mex.Put(x, WalletKey, w)
	mex.Put(x, ConnectionKey, conn)
	return x
}

func (s *Service) exchangeOf(w *ssi.Wallet, verkey string) *mex.Exchange {
	if verkey != "" {
		if x, ok := s.exchanges.FindByVerkey(verkey); ok {
			owner, owned := mex.Get(x, WalletKey)
			if !owned || owner == w {
				return x
			}
			glog.V(3).Infof("mex %s of %s isn't %s's, new one", x.ID(), verkey, w.Name())
		}
	}
	x := s.NewExchange()
	if verkey != "" {
		x.Associate(verkey)
	}
	return x
}

// Route tells how the outbound message is packed and where it goes. From
// and To are the verkeys of the sender and the recipient.
type Route struct {
	From       string
	To         string
	Endpoint   string
	Protection packager.Protection
}

// RouteOf returns the route of the connection.
func RouteOf(conn *psm.Connection, protection packager.Protection) Route {
	return Route{
		From:       conn.MyVerkey(),
		To:         conn.TheirVerkey(),
		Endpoint:   conn.TheirEndpoint,
		Protection: protection,
	}
}

// Send packs the message with the wallet's keys and dispatches it to the
// route's endpoint. The packed message carries the header metadata of the
// original.
func (s *Service) Send(ctx context.Context, w *ssi.Wallet, epm *didcomm.EndpointMessage, r Route) (err error) {
	defer err2.Handle(&err, "send %s to %s", epm.Type(), r.Endpoint)

	data := try.To1(packager.New(w).Pack(epm.Body(), r.Protection, r.From, r.To))
	packed := didcomm.New(data, map[string]string{
		didcomm.HeaderID:           epm.ID(),
		didcomm.HeaderType:         epm.Type(),
		didcomm.HeaderThid:         epm.Thid(),
		didcomm.HeaderPthid:        epm.Pthid(),
		didcomm.HeaderSenderKey:    r.From,
		didcomm.HeaderRecipientKey: r.To,
		didcomm.HeaderContentType:  r.Protection.MediaType(),
	}, didcomm.Outbound)

	glog.V(1).Infof("%s sends %s (%s)", w.Name(), epm.Type(), r.Protection)
	try.To(s.transport.DispatchToEndpoint(ctx, r.Endpoint, packed))
	return nil
}
