package prot

import (
	"context"
	"encoding/json"

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

type dispatchKey struct{}

// dispatched is the inbound message and its connection in the context of
// the running dispatch. Concurrent deliveries to one exchange each see
// their own.
type dispatched struct {
	epm  *didcomm.EndpointMessage
	conn *psm.Connection
}

func dispatchedOf(ctx context.Context) (*dispatched, bool) {
	if ctx == nil {
		return nil, false
	}
	d, ok := ctx.Value(dispatchKey{}).(*dispatched)
	return d, ok
}

// v2Hdr is the sender and recipient information of a DIDComm V2 plaintext
// message.
type v2Hdr struct {
	From string   `json:"from"`
	To   []string `json:"to"`
}

// Handler returns the inbound transport handler of the wallet.
func (s *Service) Handler(w *ssi.Wallet) trans.Handler {
	return func(ctx context.Context, body []byte, headers map[string]string) error {
		return s.Receive(ctx, w, body, headers)
	}
}

// Receive unpacks the message with the wallet's keys and dispatches it. The
// sender and recipient verkeys of the envelope are added to the headers of
// the inbound message.
func (s *Service) Receive(ctx context.Context, w *ssi.Wallet, body []byte, headers map[string]string) (err error) {
	defer err2.Handle(&err, "%s receive", w.Name())

	msg, md := try.To2(packager.New(w).Unpack(body))

	hdrs := make(map[string]string, len(headers)+3)
	for k, v := range headers {
		hdrs[k] = v
	}
	hdrs[didcomm.HeaderContentType] = md.Protection.MediaType()
	hdrs[didcomm.HeaderSenderKey] = md.SenderKey
	hdrs[didcomm.HeaderRecipientKey] = md.RecipientKey
	if md.SenderKey == "" || md.RecipientKey == "" {
		resolveV2Keys(w, msg, hdrs)
	}

	epm := didcomm.New(msg, hdrs, didcomm.Inbound)
	glog.V(3).Infof("%s received %s", w.Name(), epm)
	_, err = s.Dispatch(ctx, w, epm)
	return err
}

// resolveV2Keys fills the missing verkeys from the from and to DIDs of the
// message. Unresolvable DIDs are skipped.
func resolveV2Keys(w *ssi.Wallet, msg []byte, hdrs map[string]string) {
	var h v2Hdr
	if err := json.Unmarshal(msg, &h); err != nil {
		return
	}
	if hdrs[didcomm.HeaderSenderKey] == "" && h.From != "" {
		if doc, err := w.ResolveDid(h.From); err == nil {
			hdrs[didcomm.HeaderSenderKey] = doc.VerKey()
		}
	}
	if hdrs[didcomm.HeaderRecipientKey] != "" {
		return
	}
	for _, to := range h.To {
		doc, err := w.ResolveDid(to)
		if err == nil && w.HasKey(doc.VerKey()) {
			hdrs[didcomm.HeaderRecipientKey] = doc.VerKey()
			return
		}
	}
}

// Dispatch routes the inbound message to its protocol. The message is merged
// into the exchange found by the recipient verkey, or by our verkey of the
// sender's connection for signed messages, or a new one, and the
// wallet and the matching connection are attached to the exchange before the
// protocol's InvokeMethod is called. The context of InvokeMethod carries the
// message and the connection, see Base.Inbound.
func (s *Service) Dispatch(ctx context.Context, w *ssi.Wallet, epm *didcomm.EndpointMessage) (ok bool, err error) {
	defer err2.Handle(&err, "dispatch %s", epm.Type())

	uri, found := s.GetProtocolKey(epm.Type())
	if !found {
		glog.Warningln("no protocol for", epm.Type())
		return false, didcomm.UnsupportedMessageType(epm.Type())
	}

	verkey := epm.Header(didcomm.HeaderRecipientKey)
	conn, connFound := connectionFor(w, epm)
	if verkey == "" && connFound {
		verkey = conn.MyVerkey()
	}
	x := s.exchangeOf(w, verkey)
	mex.Put(x, WalletKey, w)
	if connFound {
		mex.Put(x, ConnectionKey, conn)
	}
	x.AddMessage(epm)

	p := try.To1(s.GetProtocol(uri, x))
	x.SetCurrentProtocol(uri)
	d := &dispatched{epm: epm}
	if connFound {
		d.conn = conn
	}
	return p.InvokeMethod(context.WithValue(ctx, dispatchKey{}, d), w, epm.Type())
}

func connectionFor(w *ssi.Wallet, epm *didcomm.EndpointMessage) (*psm.Connection, bool) {
	my := epm.Header(didcomm.HeaderRecipientKey)
	their := epm.Header(didcomm.HeaderSenderKey)
	switch {
	case my != "" && their != "":
		return w.FindConnectionPair(my, their)
	case my != "":
		return w.FindConnection(my)
	case their != "":
		return w.FindTheirConnection(their)
	}
	return nil, false
}
