package didexchange_test

import (
	"context"
	"testing"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/packager"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/prot/prottest"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/core"
	"github.com/findy-network/findy-exchange/protocol/didexchange"
	"github.com/findy-network/findy-exchange/protocol/outofband"
	"github.com/findy-network/findy-exchange/std/decorator"
	"github.com/findy-network/findy-exchange/std/didexchange1"
	aries "github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/decorator"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timeout = 2 * time.Second

type invited struct {
	env     *prottest.Env
	inviter *ssi.Wallet
	invitee *ssi.Wallet
	xi      *mex.Exchange
	x       *mex.Exchange
	inv     *psm.Invitation
}

// invite runs the out-of-band part on separate exchanges of the wallets.
func invite(t *testing.T) *invited {
	t.Helper()
	env := prottest.New()
	s := &invited{
		env:     env,
		inviter: env.Wallet(t, "alice"),
		invitee: env.Wallet(t, "bob"),
		xi:      env.Svc.NewExchange(),
		x:       env.Svc.NewExchange(),
	}
	ctx := context.Background()

	oob := try.To1(prot.With(env.Svc, s.xi, outofband.Key))
	try.To1(oob.CreateInvitation(ctx, s.inviter, ""))
	inv := try.To1(oob.Invitation())
	s.inv = try.To1(mex.Require(s.xi, prot.InvitationKey))

	url := try.To1(inv.URL("https://example.org/"))
	try.To1(outofband.AddInvitation(s.x, url))
	oobB := try.To1(prot.With(env.Svc, s.x, outofband.Key))
	try.To1(oobB.ReceiveInvitation(ctx, s.invitee))
	return s
}

func setAutoAccept(t *testing.T, yes bool) {
	old := utils.Settings.AutoAccept()
	utils.Settings.SetAutoAccept(yes)
	t.Cleanup(func() { utils.Settings.SetAutoAccept(old) })
}

func TestExchange_autoAccept(t *testing.T) {
	setAutoAccept(t, true)
	s := invite(t)
	ctx := context.Background()

	didex, err := prot.With(s.env.Svc, s.x, didexchange.Key)
	require.NoError(t, err)
	_, err = didex.SendRequest(ctx)
	require.NoError(t, err)
	_, err = didex.AwaitResponse(ctx, timeout)
	require.NoError(t, err)

	invitee := try.To1(mex.Require(s.x, prot.ConnectionKey))
	assert.Equal(t, psm.Response, invitee.State())

	xi, ok := s.env.Svc.Exchanges().FindByVerkey(s.inv.RecipientDID.Verkey)
	require.True(t, ok)
	inviter := try.To1(mex.Require(xi, prot.ConnectionKey))
	assert.Equal(t, psm.Response, inviter.State())
	assert.Equal(t, s.inv.RecipientDID, inviter.MyDID)
	assert.Equal(t, invitee.MyVerkey(), inviter.TheirVerkey())
	assert.Equal(t, invitee.TheirVerkey(), inviter.MyVerkey())
	assert.Equal(t, "bob", inviter.TheirLabel)
	assert.Equal(t, s.invitee.EndpointURL(), inviter.TheirEndpoint)

	_, err = didex.SendComplete(ctx)
	require.NoError(t, err)
	assert.Equal(t, psm.Completed, invitee.State())
	assert.Equal(t, psm.Completed, inviter.State())

	didexI := try.To1(prot.With(s.env.Svc, xi, didexchange.Key))
	_, err = didexI.AwaitComplete(ctx, timeout)
	require.NoError(t, err)

	doc, err := s.invitee.ResolveDid(inviter.MyDID.Qualified())
	require.NoError(t, err)
	assert.Equal(t, inviter.MyVerkey(), doc.VerKey())
	doc, err = s.inviter.ResolveDid(invitee.MyDID.Qualified())
	require.NoError(t, err)
	assert.Equal(t, invitee.MyVerkey(), doc.VerKey())

	assert.Equal(t, 0, s.x.PendingFutures())
	assert.Equal(t, 0, xi.PendingFutures())
}

func TestExchange_manualAccept(t *testing.T) {
	setAutoAccept(t, false)
	s := invite(t)
	ctx := context.Background()

	didex := try.To1(prot.With(s.env.Svc, s.x, didexchange.Key))
	_, err := didex.SendRequest(ctx)
	require.NoError(t, err)
	invitee := try.To1(mex.Require(s.x, prot.ConnectionKey))
	assert.Equal(t, psm.Request, invitee.State())
	assert.Equal(t, 1, s.x.PendingFutures())

	_, err = didex.SendRequest(ctx)
	assert.ErrorIs(t, err, didcomm.ErrInvalidConnectionState)

	xi, ok := s.env.Svc.Exchanges().FindByVerkey(s.inv.RecipientDID.Verkey)
	require.True(t, ok)
	didexI := try.To1(prot.With(s.env.Svc, xi, didexchange.Key))
	inviter := try.To1(mex.Require(xi, prot.ConnectionKey))
	assert.Equal(t, psm.Request, inviter.State())

	_, err = didexI.SendComplete(ctx)
	assert.ErrorIs(t, err, didcomm.ErrPreconditionFailed)

	_, err = didexI.SendResponse(ctx)
	require.NoError(t, err)
	assert.Equal(t, psm.Response, inviter.State())
	_, err = didex.AwaitResponse(ctx, timeout)
	require.NoError(t, err)

	_, err = didex.SendComplete(ctx)
	require.NoError(t, err)
	_, err = didexI.AwaitComplete(ctx, timeout)
	require.NoError(t, err)
	assert.Equal(t, psm.Completed, inviter.State())
}

func TestReceiveRequest_redelivered(t *testing.T) {
	setAutoAccept(t, true)
	s := invite(t)
	ctx := context.Background()

	didex := try.To1(prot.With(s.env.Svc, s.x, didexchange.Key))
	try.To1(didex.SendRequest(ctx))
	try.To1(didex.AwaitResponse(ctx, timeout))
	invitee := try.To1(mex.Require(s.x, prot.ConnectionKey))
	req := s.x.LastOfType(pltype.DIDExchangeRequest)
	require.NotNil(t, req)

	redeliver := func() error {
		return s.env.Svc.Send(ctx, s.invitee, req, prot.RouteOf(invitee, packager.Authcrypt))
	}
	responses := func() (n int) {
		for _, m := range s.x.Messages() {
			if m.Type() == pltype.DIDExchangeResponse {
				n++
			}
		}
		return n
	}

	require.NoError(t, redeliver())
	require.Len(t, s.inviter.Connections(), 1)
	inviter := s.inviter.Connections()[0]
	assert.Equal(t, psm.Response, inviter.State())
	_, ok := s.inviter.FindConnectionPair(invitee.TheirVerkey(), invitee.MyVerkey())
	assert.True(t, ok)
	assert.Equal(t, 1, responses())

	try.To1(didex.SendComplete(ctx))
	err := redeliver()
	assert.ErrorIs(t, err, didcomm.ErrInvalidConnectionState)
	assert.Len(t, s.inviter.Connections(), 1)
	assert.Equal(t, psm.Completed, inviter.State())
}

func TestSendComplete_beforeResponse(t *testing.T) {
	setAutoAccept(t, false)
	s := invite(t)

	didex := try.To1(prot.With(s.env.Svc, s.x, didexchange.Key))
	_, err := didex.SendComplete(context.Background())
	assert.ErrorIs(t, err, didcomm.ErrPreconditionFailed)

	try.To1(didex.SendRequest(context.Background()))
	_, err = didex.SendComplete(context.Background())
	assert.ErrorIs(t, err, didcomm.ErrInvalidConnectionState)
}

func TestAwaitResponse_timeout(t *testing.T) {
	setAutoAccept(t, false)
	s := invite(t)
	ctx := context.Background()

	didex := try.To1(prot.With(s.env.Svc, s.x, didexchange.Key))
	try.To1(didex.SendRequest(ctx))
	_, err := didex.AwaitResponse(ctx, 20*time.Millisecond)
	assert.ErrorIs(t, err, didcomm.ErrTimeout)
}

func TestReceiveRequest_verification(t *testing.T) {
	setAutoAccept(t, true)

	tests := []struct {
		name  string
		build func(s *invited, conn *psm.Connection) (*didexchange1.Request, prot.Route)
	}{
		{"doc signed by other key", func(s *invited, conn *psm.Connection) (*didexchange1.Request, prot.Route) {
			other := try.To1(s.invitee.CreateDid(core.MethodKey, nil))
			a := try.To1(didexchange1.NewDIDDocAttach(s.invitee.DIDDoc(other), other.Verkey, s.invitee.Sign))
			return request(s, other, a), prot.RouteOf(conn, packager.Authcrypt)
		}},
		{"request DID isn't the doc's", func(s *invited, conn *psm.Connection) (*didexchange1.Request, prot.Route) {
			a := try.To1(didexchange1.NewDIDDocAttach(s.invitee.DIDDoc(conn.MyDID), conn.MyVerkey(), s.invitee.Sign))
			other := try.To1(s.invitee.CreateDid(core.MethodKey, nil))
			return request(s, other, a), prot.RouteOf(conn, packager.Authcrypt)
		}},
		{"sent to other key than invitation's", func(s *invited, conn *psm.Connection) (*didexchange1.Request, prot.Route) {
			a := try.To1(didexchange1.NewDIDDocAttach(s.invitee.DIDDoc(conn.MyDID), conn.MyVerkey(), s.invitee.Sign))
			alt := try.To1(s.inviter.CreateDid(core.MethodKey, nil))
			r := prot.RouteOf(conn, packager.Authcrypt)
			r.To = alt.Verkey
			return request(s, conn.MyDID, a), r
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := invite(t)
			conn := try.To1(mex.Require(s.x, prot.ConnectionKey))
			req, r := tt.build(s, conn)

			epm := try.To1(didcomm.NewJSON(req, didcomm.Outbound))
			err := s.env.Svc.Send(context.Background(), s.invitee, epm, r)
			assert.ErrorIs(t, err, didcomm.ErrVerification)
			assert.Empty(t, s.inviter.Connections())
		})
	}
}

func request(s *invited, d core.DID, a *aries.Attachment) *didexchange1.Request {
	id := utils.UUID()
	return &didexchange1.Request{
		Type:   pltype.DIDExchangeRequest,
		ID:     id,
		DID:    d.Qualified(),
		DIDDoc: a,
		Thread: &decorator.Thread{ID: id, PID: s.inv.ID},
		Label:  "mallory",
	}
}
