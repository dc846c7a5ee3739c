package outofband_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/prot/prottest"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/core"
	"github.com/findy-network/findy-exchange/protocol/outofband"
	std "github.com/findy-network/findy-exchange/std/outofband"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvitation(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	ctx := context.Background()

	x := env.Svc.NewExchange()
	oob, err := prot.With(env.Svc, x, outofband.Key)
	require.NoError(t, err)
	_, err = oob.CreateInvitation(ctx, alice, "")
	require.NoError(t, err)

	inv, err := oob.Invitation()
	require.NoError(t, err)
	assert.Equal(t, pltype.OutOfBandV1Invitation, inv.Type)
	assert.Equal(t, "alice", inv.Label)
	assert.Equal(t, []string{pltype.DIDExchangeV1}, inv.HandshakeProtocols)
	require.Len(t, inv.Services, 1)
	assert.Equal(t, alice.EndpointURL(), inv.Services[0].ServiceEndpoint)
	require.NoError(t, outofband.Validate(inv))

	rec, err := mex.Require(x, prot.InvitationKey)
	require.NoError(t, err)
	assert.True(t, rec.Created)
	assert.True(t, alice.HasKey(rec.RecipientDID.Verkey))
	stored, err := alice.GetInvitation(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.RecipientDID, stored.RecipientDID)

	found, ok := env.Svc.Exchanges().FindByVerkey(rec.RecipientDID.Verkey)
	require.True(t, ok)
	assert.Same(t, x, found)

	_, err = oob.CreateInvitation(ctx, nil, "")
	assert.ErrorIs(t, err, didcomm.ErrPreconditionFailed)
}

func TestReceiveInvitation(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ctx := context.Background()

	xa := env.Svc.NewExchange()
	oob := try.To1(prot.With(env.Svc, xa, outofband.Key))
	try.To1(oob.CreateInvitation(ctx, alice, "Alice Inc"))
	inv := try.To1(oob.Invitation())
	url := try.To1(inv.URL("https://example.org/"))

	xb := env.Svc.NewExchange()
	_, err := outofband.AddInvitation(xb, url)
	require.NoError(t, err)
	oobB := try.To1(prot.With(env.Svc, xb, outofband.Key))
	_, err = oobB.ReceiveInvitation(ctx, bob)
	require.NoError(t, err)

	conn, err := mex.Require(xb, prot.ConnectionKey)
	require.NoError(t, err)
	assert.Equal(t, psm.Invited, conn.State())
	assert.Equal(t, "bob", conn.MyLabel)
	assert.Equal(t, "Alice Inc", conn.TheirLabel)
	assert.Equal(t, inv.ID, conn.InvitationID)
	assert.Equal(t, alice.EndpointURL(), conn.TheirEndpoint)
	rec := try.To1(mex.Require(xa, prot.InvitationKey))
	assert.Equal(t, rec.RecipientDID.Verkey, conn.TheirVerkey())
	assert.True(t, bob.HasKey(conn.MyVerkey()))

	got, err := bob.GetConnection(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, got.ID)

	found, ok := env.Svc.Exchanges().FindByVerkey(conn.MyVerkey())
	require.True(t, ok)
	assert.Same(t, xb, found)

	_, err = oobB.ReceiveInvitation(ctx, nil)
	assert.ErrorIs(t, err, didcomm.ErrPreconditionFailed)
}

func TestReceiveInvitation_noInvitation(t *testing.T) {
	env := prottest.New()
	bob := env.Wallet(t, "bob")

	oob := try.To1(prot.With(env.Svc, env.Svc.NewExchange(), outofband.Key))
	_, err := oob.ReceiveInvitation(context.Background(), bob)
	assert.ErrorIs(t, err, didcomm.ErrPreconditionFailed)
}

func TestInvokeMethod(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ctx := context.Background()

	oob := try.To1(prot.With(env.Svc, env.Svc.NewExchange(), outofband.Key))
	try.To1(oob.CreateInvitation(ctx, alice, ""))
	inv := try.To1(oob.Invitation())

	epm := try.To1(didcomm.NewJSON(inv, didcomm.Inbound))
	ok, err := env.Svc.Dispatch(ctx, bob, epm)
	require.NoError(t, err)
	assert.True(t, ok)

	conns := bob.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, psm.Invited, conns[0].State())
	assert.Equal(t, inv.ID, conns[0].InvitationID)
}

func TestValidate(t *testing.T) {
	valid := func() *std.Invitation {
		return &std.Invitation{
			Type:               pltype.OutOfBandV1Invitation,
			ID:                 "inv-1",
			HandshakeProtocols: []string{pltype.DIDExchangeV1},
			Services: []std.Service{{
				ID:              "#inline",
				RecipientKeys:   []string{"did:key:z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH"},
				ServiceEndpoint: "http://localhost:8080",
			}},
		}
	}
	tests := []struct {
		name    string
		modify  func(inv *std.Invitation)
		wantErr bool
		is      error
	}{
		{"valid", func(*std.Invitation) {}, false, nil},
		{"no id", func(inv *std.Invitation) { inv.ID = "" }, true, nil},
		{"wrong type", func(inv *std.Invitation) { inv.Type = pltype.TrustPingPing }, true, didcomm.ErrInvalidMessageType},
		{"no services", func(inv *std.Invitation) { inv.Services = nil }, true, nil},
		{"no keys", func(inv *std.Invitation) { inv.Services[0].RecipientKeys = nil }, true, nil},
		{"no endpoint", func(inv *std.Invitation) { inv.Services[0].ServiceEndpoint = "" }, true, nil},
		{"no DID exchange", func(inv *std.Invitation) { inv.HandshakeProtocols = []string{"https://didcomm.org/connections/1.0"} }, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := valid()
			tt.modify(inv)
			err := outofband.Validate(inv)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestRecipientDID(t *testing.T) {
	w, err := ssi.NewWallet("keys", ssi.NativeBackend{})
	require.NoError(t, err)
	d, err := w.CreateDid(core.MethodKey, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
	}{
		{"did:key", d.Qualified()},
		{"did:key with fragment", d.Qualified() + "#key-1"},
		{"raw verkey", d.Verkey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outofband.RecipientDID(tt.key)
			require.NoError(t, err)
			assert.Equal(t, d.Verkey, got.Verkey)
		})
	}

	_, err = outofband.RecipientDID("did:key:zBroken")
	assert.Error(t, err)
}

func TestAddInvitation_forms(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")

	oob := try.To1(prot.With(env.Svc, env.Svc.NewExchange(), outofband.Key))
	try.To1(oob.CreateInvitation(context.Background(), alice, ""))
	inv := try.To1(oob.Invitation())
	url := try.To1(inv.URL("https://example.org/invite"))
	js := try.To1(json.Marshal(inv))

	for name, s := range map[string]string{"url": url, "json": string(js)} {
		t.Run(name, func(t *testing.T) {
			x := env.Svc.NewExchange()
			got, err := outofband.AddInvitation(x, s)
			require.NoError(t, err)
			assert.Equal(t, inv.ID, got.ID)
			assert.Equal(t, 1, x.Len())
			assert.Equal(t, didcomm.Inbound, x.Last().Direction())
		})
	}

	_, err := outofband.AddInvitation(env.Svc.NewExchange(), "not an invitation")
	assert.Error(t, err)
}
