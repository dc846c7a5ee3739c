package prot_test

import (
	"context"
	"sync"
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
	"github.com/findy-network/findy-exchange/agent/trans/mock_trans"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 5 * time.Second

	testURI    = pltype.DIDComm + "/test/1.0"
	testSubURI = testURI + "/sub"
	testHello  = testURI + "/hello"
	testFail   = testURI + "/fail"
)

var (
	testKey    = prot.Key[*testProtocol]{URI: testURI}
	testSubKey = prot.Key[*testProtocol]{URI: testSubURI}
)

type testProtocol struct {
	prot.Base

	lk    sync.Mutex
	got   []*didcomm.EndpointMessage
	conns []*psm.Connection
	hold  chan struct{}
}

func init() {
	for _, uri := range []string{testURI, testSubURI} {
		uri := uri
		prot.AddCreator(uri, func(s *prot.Service, x *mex.Exchange) prot.Protocol {
			return &testProtocol{Base: prot.NewBase(uri, s, x)}
		})
	}
}

func (p *testProtocol) InvokeMethod(ctx context.Context, _ *ssi.Wallet, messageType string) (bool, error) {
	if messageType == testFail {
		return false, didcomm.InvalidMessageType(testHello, messageType)
	}
	if p.hold != nil {
		<-p.hold
	}
	m, err := p.Inbound(ctx, messageType)
	if err != nil {
		return false, err
	}
	conn, _ := p.InboundConnection(ctx)

	p.lk.Lock()
	defer p.lk.Unlock()
	p.got = append(p.got, m)
	p.conns = append(p.conns, conn)
	return true, nil
}

type hello struct {
	Type    string `json:"@type"`
	ID      string `json:"@id,omitempty"`
	Content string `json:"content"`
}

func TestService_GetProtocolKey(t *testing.T) {
	svc := prot.NewService(nil, nil)
	tests := []struct {
		name        string
		messageType string
		want        string
		wantOK      bool
	}{
		{"protocol URI", testURI, testURI, true},
		{"message type", testHello, testURI, true},
		{"longest match", testSubURI + "/ping", testSubURI, true},
		{"not a path prefix", testURI + "x/hello", "", false},
		{"unknown", "https://example.org/unknown/1.0/x", "", false},
		{"trust ping", pltype.TrustPingPing, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := svc.GetProtocolKey(tt.messageType)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_GetProtocol(t *testing.T) {
	svc := prot.NewService(nil, nil)
	x := svc.NewExchange()

	_, err := svc.GetProtocol("https://example.org/unknown/1.0", x)
	assert.ErrorIs(t, err, didcomm.ErrUnknownProtocol)

	p1, err := prot.With(svc, x, testKey)
	require.NoError(t, err)
	assert.Equal(t, testURI, x.ProtocolURI())
	assert.Equal(t, testURI, p1.ProtocolURI())

	sub, err := prot.With(svc, x, testSubKey)
	require.NoError(t, err)
	assert.Equal(t, testSubURI, x.ProtocolURI())
	assert.NotSame(t, p1, sub)

	p2, err := prot.With(svc, x, testKey)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, testURI, x.ProtocolURI())

	other, err := prot.With(svc, svc.NewExchange(), testKey)
	require.NoError(t, err)
	assert.NotSame(t, p1, other)
}

func TestService_Dispatch(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ab, ba := env.Pair(t, alice, bob, psm.Active)
	ctx := context.Background()

	send := func(content string, protection packager.Protection) {
		t.Helper()
		epm, err := didcomm.NewJSON(hello{Type: testHello, Content: content}, didcomm.Outbound)
		require.NoError(t, err)
		require.NoError(t, env.Svc.Send(ctx, alice, epm, prot.RouteOf(ab, protection)))
	}

	send("first", packager.Authcrypt)
	x, ok := env.Svc.Exchanges().FindByVerkey(ba.MyVerkey())
	require.True(t, ok)
	p, err := prot.With(env.Svc, x, testKey)
	require.NoError(t, err)
	require.Len(t, p.got, 1)
	m := p.got[0]
	assert.Equal(t, didcomm.Inbound, m.Direction())
	assert.Equal(t, ab.MyVerkey(), m.Header(didcomm.HeaderSenderKey))
	assert.Equal(t, ba.MyVerkey(), m.Header(didcomm.HeaderRecipientKey))
	assert.Equal(t, pltype.MediaTypeEncrypted, m.ContentType())
	assert.Same(t, ba, p.conns[0])
	w, ok := mex.Get(x, prot.WalletKey)
	require.True(t, ok)
	assert.Same(t, bob, w)

	send("second", packager.Authcrypt)
	x2, _ := env.Svc.Exchanges().FindByVerkey(ba.MyVerkey())
	assert.Same(t, x, x2)
	assert.Len(t, p.got, 2)
	assert.Equal(t, 2, x.Len())

	send("signed", packager.Signed)
	require.Len(t, p.got, 3)
	assert.Equal(t, ab.MyVerkey(), p.got[2].Header(didcomm.HeaderSenderKey))
	assert.Same(t, ba, p.conns[2])
}

func TestService_DispatchConcurrent(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ab, ba := env.Pair(t, alice, bob, psm.Active)
	ctx := context.Background()

	send := func(id string) error {
		epm, err := didcomm.NewJSON(hello{Type: testHello, ID: id, Content: id}, didcomm.Outbound)
		if err != nil {
			return err
		}
		return env.Svc.Send(ctx, alice, epm, prot.RouteOf(ab, packager.Authcrypt))
	}

	require.NoError(t, send("first"))
	x, ok := env.Svc.Exchanges().FindByVerkey(ba.MyVerkey())
	require.True(t, ok)
	p, err := prot.With(env.Svc, x, testKey)
	require.NoError(t, err)
	p.hold = make(chan struct{})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, id := range []string{"m-0", "m-1"} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- send(id)
		}()
	}
	// both messages are in the log before either handler reads its own
	require.Eventually(t, func() bool { return x.Len() == 3 }, timeout, time.Millisecond)
	close(p.hold)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	ids := make([]string, 0, len(p.got))
	for _, m := range p.got {
		ids = append(ids, m.ID())
	}
	assert.ElementsMatch(t, []string{"first", "m-0", "m-1"}, ids)
	for _, conn := range p.conns {
		assert.Same(t, ba, conn)
	}
}

func TestService_DispatchErrors(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ab, _ := env.Pair(t, alice, bob, psm.Active)
	ctx := context.Background()

	tests := []struct {
		name    string
		typ     string
		wantErr error
	}{
		{"unsupported", "https://example.org/unknown/1.0/x", didcomm.ErrUnsupportedMessageType},
		{"handler error", testFail, didcomm.ErrInvalidMessageType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			epm, err := didcomm.NewJSON(hello{Type: tt.typ}, didcomm.Outbound)
			require.NoError(t, err)
			err = env.Svc.Send(ctx, alice, epm, prot.RouteOf(ab, packager.Authcrypt))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	err := env.Svc.Receive(ctx, bob, []byte(`{"protected":"x","ciphertext":"y"}`), nil)
	assert.Error(t, err)
}

func TestService_SendPacksAndDispatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ab, _ := env.Pair(t, alice, bob, psm.Active)

	epm, err := didcomm.NewJSON(hello{Type: testHello, ID: "msg-1", Content: "secret"}, didcomm.Outbound)
	require.NoError(t, err)

	dispatcher := mock_trans.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().
		DispatchToEndpoint(gomock.Any(), bob.EndpointURL(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, packed *didcomm.EndpointMessage) error {
			assert.Equal(t, "msg-1", packed.ID())
			assert.Equal(t, testHello, packed.Type())
			assert.Equal(t, pltype.MediaTypeEncrypted, packed.ContentType())
			assert.NotContains(t, string(packed.Body()), "secret")
			return nil
		})

	svc := prot.NewService(dispatcher, nil)
	require.NoError(t, svc.Send(context.Background(), alice, epm, prot.RouteOf(ab, packager.Authcrypt)))
}

func TestService_ExchangeFor(t *testing.T) {
	env := prottest.New()
	alice := env.Wallet(t, "alice")
	bob := env.Wallet(t, "bob")
	ab, ba := env.Pair(t, alice, bob, psm.Active)

	x := env.Svc.ExchangeFor(alice, ab)
	conn, err := mex.Require(x, prot.ConnectionKey)
	require.NoError(t, err)
	assert.Same(t, ab, conn)
	assert.Same(t, x, env.Svc.ExchangeFor(alice, ab))

	y := env.Svc.ExchangeFor(bob, ba)
	assert.NotSame(t, x, y)
}
