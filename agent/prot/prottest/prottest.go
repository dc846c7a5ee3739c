// Package prottest offers an in process environment for the protocol tests:
// wallets served by one protocol service over the memory transport.
package prottest

import (
	"testing"

	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/trans"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/core"
	"github.com/stretchr/testify/require"
)

type Env struct {
	Mem *trans.Memory
	Svc *prot.Service
}

func New() *Env {
	mem := trans.NewMemory()
	return &Env{Mem: mem, Svc: prot.NewService(mem, nil)}
}

// Wallet creates the wallet and starts listening its memory endpoint.
func (e *Env) Wallet(t testing.TB, name string) *ssi.Wallet {
	t.Helper()
	url := e.Mem.URL(name)
	w, err := ssi.NewWallet(name, ssi.NativeBackend{URL: url})
	require.NoError(t, err)
	e.Mem.Listen(url, e.Svc.Handler(w))
	return w
}

// Pair creates the connections of the wallets to each other in the state
// without running the protocols.
func (e *Env) Pair(t testing.TB, a, b *ssi.Wallet, state psm.State) (ab, ba *psm.Connection) {
	t.Helper()
	da, err := a.CreateDid(core.MethodKey, nil)
	require.NoError(t, err)
	db, err := b.CreateDid(core.MethodKey, nil)
	require.NoError(t, err)

	ab = psm.NewConnection(psm.Record{
		ID:            utils.UUID(),
		State:         state,
		MyDID:         da,
		TheirDID:      db,
		TheirEndpoint: b.EndpointURL(),
		MyLabel:       a.Name(),
		TheirLabel:    b.Name(),
	})
	ba = psm.NewConnection(psm.Record{
		ID:            utils.UUID(),
		State:         state,
		MyDID:         db,
		TheirDID:      da,
		TheirEndpoint: a.EndpointURL(),
		MyLabel:       b.Name(),
		TheirLabel:    a.Name(),
	})
	require.NoError(t, a.AddConnection(ab))
	require.NoError(t, b.AddConnection(ba))
	return ab, ba
}
