/*
Package didexchange is the RFC0023 DID Exchange 1.0 protocol.

The requester is the invitee. It sends the request, which has its DID
document in the signed did_doc~attach, and waits for the response with the
inviter's document. The exchange completes when the requester sends the
complete message. The connection moves REQUEST -> RESPONSE -> COMPLETED on
both sides.

The request's @id is its thread ID and its pthid is the invitation ID. The
requester awaits the response by the (response type, thread ID) future.
*/
package didexchange

import (
	"context"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/packager"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/std/decorator"
	"github.com/findy-network/findy-exchange/std/did"
	"github.com/findy-network/findy-exchange/std/didexchange1"
	"github.com/golang/glog"
	aries "github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var Key = prot.Key[*Protocol]{URI: pltype.DIDExchangeV1}

type Protocol struct {
	prot.Base
}

func init() {
	prot.AddCreator(Key.URI, func(s *prot.Service, x *mex.Exchange) prot.Protocol {
		return &Protocol{Base: prot.NewBase(Key.URI, s, x)}
	})
}

func (p *Protocol) InvokeMethod(ctx context.Context, to *ssi.Wallet, messageType string) (bool, error) {
	var err error
	switch messageType {
	case pltype.DIDExchangeRequest:
		err = p.receiveRequest(ctx, to)
	case pltype.DIDExchangeResponse:
		err = p.receiveResponse(ctx, to)
	case pltype.DIDExchangeComplete:
		err = p.receiveComplete(ctx, to)
	default:
		return false, didcomm.UnsupportedMessageType(messageType)
	}
	return err == nil, err
}

// SendRequest sends the request of the invitee's INVITED connection. The
// connection moves to REQUEST before the dispatch and stays there when the
// dispatch fails, so a failed request needs a new invitation.
func (p *Protocol) SendRequest(ctx context.Context) (_ *Protocol, err error) {
	defer err2.Handle(&err, "send DID exchange request")

	x := p.Exchange()
	w := try.To1(mex.Require(x, prot.InviteeWalletKey))
	conn := try.To1(p.Connection())
	inv := try.To1(mex.Require(x, prot.InvitationKey))
	try.To(conn.RequireState(psm.Invited))

	id := utils.UUID()
	req := &didexchange1.Request{
		Type:   pltype.DIDExchangeRequest,
		ID:     id,
		DID:    conn.MyDID.Qualified(),
		DIDDoc: try.To1(newDIDDocAttach(w, conn)),
		Thread: &decorator.Thread{ID: id, PID: inv.ID},
		Label:  conn.MyLabel,
	}

	try.To(conn.SetState(psm.Request))
	try.To(w.SaveConnection(conn))
	try.To(x.PlaceFuture(pltype.DIDExchangeResponse, id))
	if _, err := p.SendTo(ctx, w, conn, req, packager.Authcrypt); err != nil {
		x.RemoveFuture(pltype.DIDExchangeResponse, id)
		return nil, err
	}
	return p, nil
}

// AwaitResponse waits the response to our request.
func (p *Protocol) AwaitResponse(ctx context.Context, timeout time.Duration) (_ *Protocol, err error) {
	defer err2.Handle(&err, "await DID exchange response")

	req := try.To1(p.request())
	try.To1(p.Await(ctx, mex.FutureKey{Type: pltype.DIDExchangeResponse, CorrID: req.Thid()}, timeout))
	return p, nil
}

// SendResponse answers the received request. The inviter's connection moves
// to RESPONSE. It's called automatically when the settings auto accept.
func (p *Protocol) SendResponse(ctx context.Context) (_ *Protocol, err error) {
	defer err2.Handle(&err, "send DID exchange response")

	x := p.Exchange()
	w := try.To1(p.Wallet())
	conn := try.To1(p.Connection())
	req := try.To1(p.request())
	try.To(conn.RequireState(psm.Request))

	res := &didexchange1.Response{
		Type:   pltype.DIDExchangeResponse,
		ID:     utils.UUID(),
		DID:    conn.MyDID.Qualified(),
		DIDDoc: try.To1(newDIDDocAttach(w, conn)),
		Thread: &decorator.Thread{ID: req.Thid(), PID: req.Pthid()},
	}

	try.To(conn.SetState(psm.Response))
	try.To(w.SaveConnection(conn))
	if !x.HasFuture(pltype.DIDExchangeComplete, req.Thid()) {
		try.To(x.PlaceFuture(pltype.DIDExchangeComplete, req.Thid()))
	}
	try.To1(p.SendTo(ctx, w, conn, res, packager.Authcrypt))
	return p, nil
}

// SendComplete completes the exchange. The invitee's connection moves to
// COMPLETED.
func (p *Protocol) SendComplete(ctx context.Context) (_ *Protocol, err error) {
	defer err2.Handle(&err, "send DID exchange complete")

	x := p.Exchange()
	w := try.To1(mex.Require(x, prot.InviteeWalletKey))
	conn := try.To1(p.Connection())
	req := try.To1(p.request())
	try.To(conn.RequireState(psm.Response))

	c := &didexchange1.Complete{
		Type:   pltype.DIDExchangeComplete,
		ID:     utils.UUID(),
		Thread: &decorator.Thread{ID: req.Thid(), PID: req.Pthid()},
	}

	try.To(conn.SetState(psm.Completed))
	try.To(w.SaveConnection(conn))
	try.To1(p.SendTo(ctx, w, conn, c, packager.Authcrypt))
	return p, nil
}

// AwaitComplete waits the complete message of the requester.
func (p *Protocol) AwaitComplete(ctx context.Context, timeout time.Duration) (_ *Protocol, err error) {
	defer err2.Handle(&err, "await DID exchange complete")

	req := try.To1(p.request())
	try.To1(p.Await(ctx, mex.FutureKey{Type: pltype.DIDExchangeComplete, CorrID: req.Thid()}, timeout))
	return p, nil
}

func (p *Protocol) receiveRequest(ctx context.Context, w *ssi.Wallet) (err error) {
	defer err2.Handle(&err, "DID exchange request")

	x := p.Exchange()
	epm := try.To1(p.Inbound(ctx, pltype.DIDExchangeRequest))
	var req didexchange1.Request
	try.To(epm.Decode(&req))

	inv := try.To1(w.GetInvitation(epm.Pthid()))
	if rk := epm.Header(didcomm.HeaderRecipientKey); rk != "" && rk != inv.RecipientDID.Verkey {
		return didcomm.Verification("request to %s, invitation key is %s", rk, inv.RecipientDID.Verkey)
	}
	doc := try.To1(verifiedDoc(epm, req.DIDDoc))
	if req.DID != "" && req.DID != doc.ID {
		return didcomm.Verification("request DID %s, document of %s", req.DID, doc.ID)
	}
	their := try.To1(doc.DID())
	if old, ok := w.FindConnectionPair(inv.RecipientDID.Verkey, their.Verkey); ok {
		// a redelivered request of an ongoing exchange is answered already
		try.To(old.RequireState(psm.Request, psm.Response))
		glog.V(1).Infof("%s got request %s again for %s", w.Name(), epm.ID(), old.ID)
		return nil
	}
	try.To(w.Resolver().Register(doc))

	conn := psm.NewConnection(psm.Record{
		ID:            utils.UUID(),
		State:         psm.Request,
		MyDID:         inv.RecipientDID,
		TheirDID:      their,
		TheirEndpoint: doc.Endpoint(),
		MyLabel:       inv.Label,
		TheirLabel:    req.Label,
		InvitationID:  inv.ID,
	})
	try.To(w.AddConnection(conn))
	mex.Put(x, prot.ConnectionKey, conn)
	mex.Put(x, prot.InvitationKey, inv)
	x.Associate(conn.MyVerkey())

	glog.V(1).Infof("%s got request from %s (%s)", w.Name(), req.Label, their)
	if utils.Settings.AutoAccept() {
		try.To1(p.SendResponse(ctx))
	}
	return nil
}

func (p *Protocol) receiveResponse(ctx context.Context, w *ssi.Wallet) (err error) {
	defer err2.Handle(&err, "DID exchange response")

	x := p.Exchange()
	epm := try.To1(p.Inbound(ctx, pltype.DIDExchangeResponse))
	var res didexchange1.Response
	try.To(epm.Decode(&res))

	conn := try.To1(p.Connection())
	req := try.To1(p.request())
	if req.Thid() != epm.Thid() {
		return didcomm.PreconditionFailed("request of thread " + epm.Thid())
	}
	doc := try.To1(verifiedDoc(epm, res.DIDDoc))
	if doc.VerKey() != conn.TheirVerkey() {
		return didcomm.Verification("response key %s, connection is to %s",
			doc.VerKey(), conn.TheirVerkey())
	}
	try.To(w.Resolver().Register(doc))

	try.To(conn.SetState(psm.Response))
	try.To(w.SaveConnection(conn))
	x.CompleteFuture(pltype.DIDExchangeResponse, epm.Thid(), epm)
	return nil
}

func (p *Protocol) receiveComplete(ctx context.Context, w *ssi.Wallet) (err error) {
	defer err2.Handle(&err, "DID exchange complete")

	x := p.Exchange()
	epm := try.To1(p.Inbound(ctx, pltype.DIDExchangeComplete))
	conn := try.To1(p.InboundConnection(ctx))
	try.To(conn.RequireState(psm.Response))

	try.To(conn.SetState(psm.Completed))
	try.To(w.SaveConnection(conn))
	x.CompleteFuture(pltype.DIDExchangeComplete, epm.Thid(), epm)
	glog.V(1).Infoln(w.Name(), "completed", conn)
	return nil
}

// request returns the request of the exchange, sent or received.
func (p *Protocol) request() (*didcomm.EndpointMessage, error) {
	req := p.Exchange().LastOfType(pltype.DIDExchangeRequest)
	if req == nil {
		return nil, didcomm.PreconditionFailed("DID exchange request")
	}
	return req, nil
}

func newDIDDocAttach(w *ssi.Wallet, conn *psm.Connection) (*aries.Attachment, error) {
	return didexchange1.NewDIDDocAttach(w.DIDDoc(conn.MyDID), conn.MyVerkey(), w.Sign)
}

// verifiedDoc returns the DID document of the attachment after its JWS is
// verified and the signer is the sender of the envelope.
func verifiedDoc(epm *didcomm.EndpointMessage, a *aries.Attachment) (*did.Doc, error) {
	doc, signer, err := didexchange1.DIDDocument(a, ssi.Verify)
	if err != nil {
		return nil, didcomm.Verification("did_doc~attach: %v", err)
	}
	if sk := epm.Header(didcomm.HeaderSenderKey); sk != "" && sk != signer {
		return nil, didcomm.Verification("did_doc~attach signed by %s, sender is %s", signer, sk)
	}
	return doc, nil
}
