/*
Package outofband is the RFC0434 Out-of-Band 1.1 protocol. The inviter creates
an invitation with a fresh did:key and its inline service, and the invitee
receives it, which creates the invitee's DID and its connection in INVITED
state. The connection is then continued with the DID exchange protocol.
*/
package outofband

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/core"
	"github.com/findy-network/findy-exchange/std/did"
	"github.com/findy-network/findy-exchange/std/outofband"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var Key = prot.Key[*Protocol]{URI: pltype.OutOfBandV1}

type Protocol struct {
	prot.Base
}

func init() {
	prot.AddCreator(Key.URI, func(s *prot.Service, x *mex.Exchange) prot.Protocol {
		return &Protocol{Base: prot.NewBase(Key.URI, s, x)}
	})
}

// InvokeMethod receives an invitation delivered to the wallet's endpoint.
func (p *Protocol) InvokeMethod(ctx context.Context, to *ssi.Wallet, messageType string) (bool, error) {
	switch messageType {
	case pltype.OutOfBandV1Invitation:
		if _, err := p.ReceiveInvitation(ctx, to); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, didcomm.UnsupportedMessageType(messageType)
}

// CreateInvitation creates the invitation of the inviter with a new did:key
// and appends it to the exchange. The exchange is associated with the
// invitation's key, so the DID exchange request finds it.
func (p *Protocol) CreateInvitation(ctx context.Context, inviter *ssi.Wallet, label string) (_ *Protocol, err error) {
	defer err2.Handle(&err, "create invitation")

	if inviter == nil {
		return nil, didcomm.PreconditionFailed(prot.InviterWalletKey.String())
	}
	if label == "" {
		label = inviter.Name()
	}
	d := try.To1(inviter.CreateDid(core.MethodKey, nil))
	id := utils.UUID()
	inv := &outofband.Invitation{
		Type:               pltype.OutOfBandV1Invitation,
		ID:                 id,
		Label:              label,
		Accept:             []string{pltype.MediaTypeProfileV1},
		HandshakeProtocols: []string{pltype.DIDExchangeV1},
		Services: []outofband.Service{{
			ID:              "#inline",
			Type:            did.ServiceTypeAgent,
			RecipientKeys:   []string{d.Qualified()},
			ServiceEndpoint: inviter.EndpointURL(),
		}},
	}
	epm := try.To1(didcomm.NewJSON(inv, didcomm.Outbound))

	rec := &psm.Invitation{
		ID:           id,
		RecipientDID: d,
		Endpoint:     inviter.EndpointURL(),
		Label:        label,
		Created:      true,
	}
	try.To(inviter.AddInvitation(rec))

	x := p.Exchange()
	x.AddMessage(epm)
	mex.Put(x, prot.InviterWalletKey, inviter)
	mex.Put(x, prot.WalletKey, inviter)
	mex.Put(x, prot.InvitationKey, rec)
	x.Associate(d.Verkey)

	glog.V(1).Infof("%s created invitation %s", inviter.Name(), id)
	return p, nil
}

// Invitation returns the latest invitation of the exchange.
func (p *Protocol) Invitation() (inv *outofband.Invitation, err error) {
	defer err2.Handle(&err, "invitation")

	m := p.Exchange().LastOfType(pltype.OutOfBandV1Invitation)
	if m == nil {
		return nil, didcomm.PreconditionFailed("invitation message")
	}
	inv = new(outofband.Invitation)
	try.To(m.Decode(inv))
	return inv, nil
}

// ReceiveInvitation receives the latest invitation of the exchange with a
// did:key DID of the invitee.
func (p *Protocol) ReceiveInvitation(ctx context.Context, invitee *ssi.Wallet) (*Protocol, error) {
	return p.ReceiveInvitationAs(ctx, invitee, core.MethodKey)
}

// ReceiveInvitationAs validates the latest invitation of the exchange,
// creates the invitee's DID of the method and the connection in INVITED
// state, and attaches them to the exchange.
func (p *Protocol) ReceiveInvitationAs(ctx context.Context, invitee *ssi.Wallet, method core.Method) (_ *Protocol, err error) {
	defer err2.Handle(&err, "receive invitation")

	if invitee == nil {
		return nil, didcomm.PreconditionFailed(prot.InviteeWalletKey.String())
	}
	inv := try.To1(p.Invitation())
	try.To(Validate(inv))

	svc := inv.Services[0]
	their := try.To1(RecipientDID(svc.RecipientKeys[0]))
	my := try.To1(invitee.CreateDid(method, nil))

	conn := psm.NewConnection(psm.Record{
		ID:            utils.UUID(),
		State:         psm.Invited,
		MyDID:         my,
		TheirDID:      their,
		TheirEndpoint: svc.ServiceEndpoint,
		MyLabel:       invitee.Name(),
		TheirLabel:    inv.Label,
		InvitationID:  inv.ID,
	})
	rec := &psm.Invitation{
		ID:           inv.ID,
		RecipientDID: their,
		Endpoint:     svc.ServiceEndpoint,
		Label:        inv.Label,
	}
	try.To(invitee.AddInvitation(rec))
	try.To(invitee.AddConnection(conn))

	x := p.Exchange()
	mex.Put(x, prot.InviteeWalletKey, invitee)
	mex.Put(x, prot.WalletKey, invitee)
	mex.Put(x, prot.ConnectionKey, conn)
	mex.Put(x, prot.InvitationKey, rec)
	x.Associate(my.Verkey)

	glog.V(1).Infof("%s received invitation %s from %s", invitee.Name(), inv.ID, inv.Label)
	return p, nil
}

// Validate checks that the invitation can be continued with DID exchange.
func Validate(inv *outofband.Invitation) error {
	switch {
	case inv.ID == "":
		return errors.New("invitation has no @id")
	case inv.Type != pltype.OutOfBandV1Invitation:
		return didcomm.InvalidMessageType(pltype.OutOfBandV1Invitation, inv.Type)
	case len(inv.Services) == 0:
		return errors.New("invitation has no services")
	case len(inv.Services[0].RecipientKeys) == 0:
		return errors.New("invitation service has no recipient keys")
	case inv.Services[0].ServiceEndpoint == "":
		return errors.New("invitation service has no endpoint")
	}
	for _, hp := range inv.HandshakeProtocols {
		if hp == pltype.DIDExchangeV1 {
			return nil
		}
	}
	return fmt.Errorf("invitation doesn't offer %s", pltype.DIDExchangeV1)
}

// RecipientDID returns the DID of the invitation's recipient key. The key is
// a did:key reference or a raw base58 verkey.
func RecipientDID(key string) (core.DID, error) {
	if strings.HasPrefix(key, "did:key:") {
		if i := strings.Index(key, "#"); i > 0 {
			key = key[:i]
		}
		return ssi.ParseKeyDID(key)
	}
	return ssi.KeyDID(key)
}

// AddInvitation decodes the invitation from JSON or URL form and appends it
// to the exchange as an inbound message.
func AddInvitation(x *mex.Exchange, s string) (inv *outofband.Invitation, err error) {
	defer err2.Handle(&err, "add invitation")

	inv = try.To1(outofband.Decode(s))
	x.AddMessage(try.To1(didcomm.NewJSON(inv, didcomm.Inbound)))
	return inv, nil
}
