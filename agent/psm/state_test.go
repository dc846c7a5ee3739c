package psm

import (
	"errors"
	"sync"
	"testing"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(s State) *Connection {
	return NewConnection(Record{
		ID:       "conn-1",
		State:    s,
		MyDID:    core.DID{Method: core.MethodKey, ID: "z6MkMy", Verkey: "myVerkey"},
		TheirDID: core.DID{Method: core.MethodKey, ID: "z6MkTheir", Verkey: "theirVerkey"},
	})
}

func TestState_Order(t *testing.T) {
	order := []State{Invited, Request, Response, Completed, Active}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
	assert.False(t, State(0).Valid())
	assert.False(t, State(Active+1).Valid())
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name string
		want State
		ok   bool
	}{
		{"INVITED", Invited, true},
		{"completed", Completed, true},
		{"Active", Active, true},
		{"gone", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.name)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), stateNames[got])
		})
	}
}

func TestConnection_SetState(t *testing.T) {
	c := newTestConn(Invited)

	require.NoError(t, c.SetState(Request))
	require.NoError(t, c.SetState(Request), "same state is a no-op")
	require.NoError(t, c.SetState(Completed))
	assert.Equal(t, Completed, c.State())

	err := c.SetState(Response)
	require.Error(t, err)
	assert.True(t, errors.Is(err, didcomm.ErrInvalidConnectionState))
	assert.Equal(t, Completed, c.State())

	require.NoError(t, c.SetState(Active))
	for _, s := range []State{Invited, Request, Response, Completed} {
		assert.ErrorIs(t, c.SetState(s), didcomm.ErrInvalidConnectionState)
	}
	require.NoError(t, c.SetState(Active))
	assert.Equal(t, Active, c.State())

	assert.ErrorIs(t, c.SetState(State(0)), didcomm.ErrInvalidConnectionState)
}

func TestConnection_Monotonic(t *testing.T) {
	c := newTestConn(Invited)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(s State) {
			defer wg.Done()
			prev := c.State()
			_ = c.SetState(s)
			assert.GreaterOrEqual(t, c.State(), prev)
		}(State(i%5) + Invited)
	}
	wg.Wait()
	assert.Equal(t, Active, c.State())
}

func TestConnection_Require(t *testing.T) {
	c := newTestConn(Request)

	assert.NoError(t, c.RequireState(Invited, Request))
	assert.ErrorIs(t, c.RequireState(Active), didcomm.ErrInvalidConnectionState)
	assert.ErrorIs(t, c.RequireAtLeast(Completed), didcomm.ErrInvalidConnectionState)
	assert.NoError(t, c.RequireAtLeast(Invited))

	assert.Equal(t, "myVerkey", c.MyVerkey())
	assert.Equal(t, "theirVerkey", c.TheirVerkey())
}

func TestConnection_MarshalJSON(t *testing.T) {
	c := newTestConn(Active)
	b, err := c.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"state":"ACTIVE"`)
	assert.Contains(t, string(b), `"id":"conn-1"`)
}
