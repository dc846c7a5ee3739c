/*
Package handshake chains the connection protocols into one flow: Out-of-Band
invitation, DID exchange and trust ping. Connect runs the whole flow between
two wallets of the same process, Accept runs the invitee's part of it with a
received invitation.
*/
package handshake

import (
	"context"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/protocol/didexchange"
	"github.com/findy-network/findy-exchange/protocol/outofband"
	"github.com/findy-network/findy-exchange/protocol/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Result has the both ends of the connection. Inviter is nil when the
// inviter isn't in this process.
type Result struct {
	Exchange *mex.Exchange
	Invitee  *psm.Connection
	Inviter  *psm.Connection
}

// Connect connects the invitee to the inviter. Both connections are ACTIVE
// when it returns without an error.
func Connect(
	ctx context.Context,
	svc *prot.Service,
	inviter, invitee *ssi.Wallet,
	timeout time.Duration,
) (
	r *Result,
	err error,
) {
	defer err2.Handle(&err, "connect %s to %s", invitee.Name(), inviter.Name())

	x := svc.NewExchange()
	oob := try.To1(prot.With(svc, x, outofband.Key))
	try.To1(oob.CreateInvitation(ctx, inviter, ""))
	try.To1(oob.ReceiveInvitation(ctx, invitee))

	r = try.To1(run(ctx, svc, x, timeout, func() error {
		if utils.Settings.AutoAccept() {
			return nil
		}
		xi, err := inviterExchange(svc, x)
		if err != nil {
			return err
		}
		didex, err := prot.With(svc, xi, didexchange.Key)
		if err != nil {
			return err
		}
		_, err = didex.SendResponse(ctx)
		return err
	}))

	xi := try.To1(inviterExchange(svc, x))
	didex := try.To1(prot.With(svc, xi, didexchange.Key))
	try.To1(didex.AwaitComplete(ctx, timeout))
	r.Inviter = try.To1(mex.Require(xi, prot.ConnectionKey))

	glog.V(1).Infof("connected %s <-> %s", r.Invitee.ID, r.Inviter.ID)
	return r, nil
}

// Accept receives the invitation, given in JSON or URL form, and connects to
// the inviter. The inviter must accept the request automatically.
func Accept(
	ctx context.Context,
	svc *prot.Service,
	invitee *ssi.Wallet,
	invitation string,
	timeout time.Duration,
) (
	r *Result,
	err error,
) {
	defer err2.Handle(&err, "accept invitation")

	x := svc.NewExchange()
	try.To1(outofband.AddInvitation(x, invitation))
	oob := try.To1(prot.With(svc, x, outofband.Key))
	try.To1(oob.ReceiveInvitation(ctx, invitee))

	return run(ctx, svc, x, timeout, nil)
}

// run continues the invitee's exchange from INVITED to ACTIVE. The respond
// is called after the request is sent, when the response isn't automatic.
func run(
	ctx context.Context,
	svc *prot.Service,
	x *mex.Exchange,
	timeout time.Duration,
	respond func() error,
) (
	r *Result,
	err error,
) {
	defer err2.Handle(&err)

	didex := try.To1(prot.With(svc, x, didexchange.Key))
	try.To1(didex.SendRequest(ctx))
	if respond != nil {
		try.To(respond())
	}
	try.To1(didex.AwaitResponse(ctx, timeout))
	try.To1(didex.SendComplete(ctx))

	ping := try.To1(prot.With(svc, x, trustping.Key))
	try.To1(ping.SendPing(ctx))
	try.To1(ping.AwaitResponse(ctx, timeout))

	return &Result{
		Exchange: x,
		Invitee:  try.To1(mex.Require(x, prot.ConnectionKey)),
	}, nil
}

// inviterExchange returns the inviter's exchange of the invitee's
// invitation. It's found by the invitation's key.
func inviterExchange(svc *prot.Service, x *mex.Exchange) (*mex.Exchange, error) {
	inv, err := mex.Require(x, prot.InvitationKey)
	if err != nil {
		return nil, err
	}
	xi, ok := svc.Exchanges().FindByVerkey(inv.RecipientDID.Verkey)
	if !ok || xi == x {
		return nil, didcomm.PreconditionFailed("inviter exchange of " + inv.RecipientDID.Verkey)
	}
	return xi, nil
}
