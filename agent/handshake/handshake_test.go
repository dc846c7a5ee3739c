package handshake_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/endp"
	"github.com/findy-network/findy-exchange/agent/handshake"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/prot/prottest"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/trans"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/protocol/basicmessage"
	"github.com/findy-network/findy-exchange/protocol/outofband"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const timeout = 5 * time.Second

func setAutoAccept(t *testing.T, yes bool) {
	old := utils.Settings.AutoAccept()
	utils.Settings.SetAutoAccept(yes)
	t.Cleanup(func() { utils.Settings.SetAutoAccept(old) })
}

func TestConnect(t *testing.T) {
	for _, autoAccept := range []bool{true, false} {
		name := "manual accept"
		if autoAccept {
			name = "auto accept"
		}
		t.Run(name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()
			setAutoAccept(t, autoAccept)

			env := prottest.New()
			alice := env.Wallet(t, "alice")
			bob := env.Wallet(t, "bob")

			r, err := handshake.Connect(context.Background(), env.Svc, alice, bob, timeout)
			assert.NoError(err)
			assert.Equal(r.Invitee.State(), psm.Active)
			assert.Equal(r.Inviter.State(), psm.Active)
			assert.Equal(r.Invitee.MyVerkey(), r.Inviter.TheirVerkey())
			assert.Equal(r.Invitee.TheirVerkey(), r.Inviter.MyVerkey())
			assert.Equal(r.Invitee.TheirLabel, "alice")
			assert.Equal(r.Inviter.TheirLabel, "bob")
			assert.Equal(r.Exchange.PendingFutures(), 0)

			assert.Equal(len(alice.Connections()), 1)
			assert.Equal(len(bob.Connections()), 1)
		})
	}
}

// TestConnect_thenMessage is the whole flow from the invitation to a basic
// message awaited by the inviter.
func TestConnect_thenMessage(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	setAutoAccept(t, true)

	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ctx := context.Background()

	r := try.To1(handshake.Connect(ctx, env.Svc, alice, bob, timeout))

	xa := env.Svc.ExchangeFor(alice, r.Inviter)
	recv := try.To1(prot.With(env.Svc, xa, basicmessage.Key))
	assert.NoError(recv.ExpectMessage())

	send := try.To1(prot.With(env.Svc, env.Svc.ExchangeFor(bob, r.Invitee), basicmessage.Key))
	try.To1(send.SendMessage(ctx, "Hello Alice!"))

	m := try.To1(recv.AwaitMessage(ctx, timeout))
	assert.Equal(try.To1(basicmessage.Content(m)), "Hello Alice!")
}

// TestConnect_messagesBothWays sends a basic message in each direction of
// the ACTIVE connection. The recipient's log gets exactly the one message.
func TestConnect_messagesBothWays(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	setAutoAccept(t, true)

	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ctx := context.Background()

	r := try.To1(handshake.Connect(ctx, env.Svc, alice, bob, timeout))
	assert.Equal(r.Inviter.State(), psm.Active)
	assert.Equal(r.Invitee.State(), psm.Active)
	xa := env.Svc.ExchangeFor(alice, r.Inviter)
	xb := env.Svc.ExchangeFor(bob, r.Invitee)

	tests := []struct {
		name     string
		from, to *mex.Exchange
		content  string
	}{
		{"bob to alice", xb, xa, "Hello Alice!"},
		{"alice to bob", xa, xb, "Hello Bob!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			before := len(received(tt.to))
			send := try.To1(prot.With(env.Svc, tt.from, basicmessage.Key))
			try.To1(send.SendMessage(ctx, tt.content))

			got := received(tt.to)
			assert.Equal(len(got), before+1)
			assert.Equal(try.To1(basicmessage.Content(got[len(got)-1])), tt.content)
		})
	}
}

// received returns the inbound basic messages of the exchange.
func received(x *mex.Exchange) (ms []*didcomm.EndpointMessage) {
	for _, m := range x.Messages() {
		if m.Type() == pltype.BasicMessageV1Message && m.Direction() == didcomm.Inbound {
			ms = append(ms, m)
		}
	}
	return ms
}

func TestAccept_overHTTP(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	setAutoAccept(t, true)

	srv := endp.NewServer("")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	srv.SetBase(ts.URL)

	router := trans.NewRouter()
	svc := prot.NewService(router, nil)
	wallet := func(name string) *ssi.Wallet {
		w := try.To1(ssi.NewWallet(name, ssi.NativeBackend{URL: srv.Addr(name).Address()}))
		srv.Mount(name, svc.Handler(w))
		return w
	}
	alice := wallet("alice")
	bob := wallet("bob")
	ctx := context.Background()

	x := svc.NewExchange()
	oob := try.To1(prot.With(svc, x, outofband.Key))
	try.To1(oob.CreateInvitation(ctx, alice, "Alice"))
	inv := try.To1(oob.Invitation())
	url := try.To1(inv.URL(srv.Addr("alice").Address()))

	r, err := handshake.Accept(ctx, svc, bob, url, timeout)
	assert.NoError(err)
	assert.Nil(r.Inviter)
	assert.Equal(r.Invitee.State(), psm.Active)
	assert.Equal(r.Invitee.TheirLabel, "Alice")

	xi, ok := svc.Exchanges().FindByVerkey(r.Invitee.TheirVerkey())
	assert.That(ok)
	inviter := try.To1(mex.Require(xi, prot.ConnectionKey))
	assert.Equal(inviter.State(), psm.Active)
	assert.Equal(inviter.TheirEndpoint, bob.EndpointURL())
}

func TestAccept_badInvitation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	env := prottest.New()
	bob := env.Wallet(t, "bob")

	_, err := handshake.Accept(context.Background(), env.Svc, bob, "https://example.org/?oob=bm90IGpzb24", timeout)
	assert.Error(err)
	assert.Equal(len(bob.Connections()), 0)
}

func TestAccept_inviterGone(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ctx := context.Background()

	oob := try.To1(prot.With(env.Svc, env.Svc.NewExchange(), outofband.Key))
	try.To1(oob.CreateInvitation(ctx, alice, ""))
	inv := try.To1(oob.Invitation())
	url := try.To1(inv.URL("https://example.org/"))
	env.Mem.Close(alice.EndpointURL())

	_, err := handshake.Accept(ctx, env.Svc, bob, url, timeout)
	assert.Error(err)
	conns := bob.Connections()
	assert.Equal(len(conns), 1)
	assert.Equal(conns[0].State(), psm.Request)
}
