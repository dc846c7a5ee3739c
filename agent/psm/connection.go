package psm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/core"
	"github.com/golang/glog"
)

// Connection is a pairwise relationship between our DID and theirs. The
// identity fields are set at creation and don't change. The state is guarded
// and moves only forward.
type Connection struct {
	ID            string
	MyDID         core.DID
	TheirDID      core.DID
	TheirEndpoint string
	MyLabel       string
	TheirLabel    string
	Alias         string
	InvitationID  string

	lk    sync.RWMutex
	state State
}

// Record is the serializable snapshot of the Connection.
type Record struct {
	ID            string   `json:"id"`
	State         State    `json:"-"`
	StateName     string   `json:"state"`
	MyDID         core.DID `json:"myDid"`
	TheirDID      core.DID `json:"theirDid"`
	TheirEndpoint string   `json:"theirEndpoint,omitempty"`
	MyLabel       string   `json:"myLabel,omitempty"`
	TheirLabel    string   `json:"theirLabel,omitempty"`
	Alias         string   `json:"alias,omitempty"`
	InvitationID  string   `json:"invitationId,omitempty"`
}

// NewConnection creates a connection in the given initial state.
func NewConnection(r Record) *Connection {
	return &Connection{
		ID:            r.ID,
		MyDID:         r.MyDID,
		TheirDID:      r.TheirDID,
		TheirEndpoint: r.TheirEndpoint,
		MyLabel:       r.MyLabel,
		TheirLabel:    r.TheirLabel,
		Alias:         r.Alias,
		InvitationID:  r.InvitationID,
		state:         r.State,
	}
}

func (c *Connection) State() State {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return c.state
}

// SetState moves the connection forward. Setting the current state again is
// a no-op, moving backwards fails with ErrInvalidConnectionState.
func (c *Connection) SetState(s State) error {
	c.lk.Lock()
	defer c.lk.Unlock()

	switch {
	case !s.Valid():
		return fmt.Errorf("%w: %s", didcomm.ErrInvalidConnectionState, s)
	case s == c.state:
		return nil
	case s < c.state:
		return fmt.Errorf("%w: %s cannot go back from %s to %s",
			didcomm.ErrInvalidConnectionState, c.ID, c.state, s)
	}
	glog.V(1).Infof("connection %s: %s -> %s", c.ID, c.state, s)
	c.state = s
	return nil
}

// RequireState fails with ErrInvalidConnectionState unless the connection is
// exactly in one of the states.
func (c *Connection) RequireState(states ...State) error {
	current := c.State()
	for _, s := range states {
		if s == current {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s, want %v",
		didcomm.ErrInvalidConnectionState, c.ID, current, states)
}

// RequireAtLeast fails with ErrInvalidConnectionState when the connection
// hasn't reached the state.
func (c *Connection) RequireAtLeast(s State) error {
	if current := c.State(); current < s {
		return fmt.Errorf("%w: %s is %s, want at least %s",
			didcomm.ErrInvalidConnectionState, c.ID, current, s)
	}
	return nil
}

func (c *Connection) MyVerkey() string {
	return c.MyDID.Verkey
}

func (c *Connection) TheirVerkey() string {
	return c.TheirDID.Verkey
}

// Record returns the snapshot of the current state of the connection.
func (c *Connection) Record() Record {
	s := c.State()
	return Record{
		ID:            c.ID,
		State:         s,
		StateName:     s.String(),
		MyDID:         c.MyDID,
		TheirDID:      c.TheirDID,
		TheirEndpoint: c.TheirEndpoint,
		MyLabel:       c.MyLabel,
		TheirLabel:    c.TheirLabel,
		Alias:         c.Alias,
		InvitationID:  c.InvitationID,
	}
}

func (c *Connection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Record())
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s[%s] %s <-> %s", c.ID, c.State(), c.MyDID, c.TheirDID)
}

// Invitation is the wallet's record of an out-of-band invitation it created
// or received.
type Invitation struct {
	ID           string
	RecipientDID core.DID
	Endpoint     string
	Label        string
	Created      bool // true when this wallet is the inviter
}

// KeyRecord is a wallet's DID with the seed of its key pair.
type KeyRecord struct {
	DID  core.DID
	Seed []byte
}
