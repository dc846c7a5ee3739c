package psm

import (
	"sort"
	"sync"

	"github.com/findy-network/findy-exchange/agent/didcomm"
)

// Store persists the connection and invitation records of a wallet.
type Store interface {
	SaveConnection(c *Connection) error
	GetConnection(id string) (*Connection, error)
	Connections() ([]*Connection, error)
	RmConnection(id string) error

	SaveInvitation(inv *Invitation) error
	GetInvitation(id string) (*Invitation, error)

	SaveKey(k *KeyRecord) error
	Keys() ([]*KeyRecord, error)

	Close() error
}

// MemStore is the in memory Store. It keeps the instances it's given.
type MemStore struct {
	lk          sync.RWMutex
	connections map[string]*Connection
	invitations map[string]*Invitation
	keys        map[string]*KeyRecord
}

func NewMemStore() *MemStore {
	return &MemStore{
		connections: make(map[string]*Connection),
		invitations: make(map[string]*Invitation),
		keys:        make(map[string]*KeyRecord),
	}
}

func (m *MemStore) SaveConnection(c *Connection) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.connections[c.ID] = c
	return nil
}

func (m *MemStore) GetConnection(id string) (*Connection, error) {
	m.lk.RLock()
	defer m.lk.RUnlock()
	c, ok := m.connections[id]
	if !ok {
		return nil, didcomm.PreconditionFailed("connection " + id)
	}
	return c, nil
}

// Connections returns the connections ordered by ID.
func (m *MemStore) Connections() ([]*Connection, error) {
	m.lk.RLock()
	defer m.lk.RUnlock()
	res := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *MemStore) RmConnection(id string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	delete(m.connections, id)
	return nil
}

func (m *MemStore) SaveInvitation(inv *Invitation) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.invitations[inv.ID] = inv
	return nil
}

func (m *MemStore) GetInvitation(id string) (*Invitation, error) {
	m.lk.RLock()
	defer m.lk.RUnlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil, didcomm.PreconditionFailed("invitation " + id)
	}
	return inv, nil
}

func (m *MemStore) SaveKey(k *KeyRecord) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.keys[k.DID.Verkey] = k
	return nil
}

func (m *MemStore) Keys() ([]*KeyRecord, error) {
	m.lk.RLock()
	defer m.lk.RUnlock()
	res := make([]*KeyRecord, 0, len(m.keys))
	for _, k := range m.keys {
		res = append(res, k)
	}
	return res, nil
}

func (m *MemStore) Close() error {
	return nil
}
