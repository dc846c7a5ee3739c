package ssi

import (
	"crypto/ed25519"
	"fmt"
	"sort"
	"sync"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/core"
	"github.com/findy-network/findy-exchange/std/did"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Wallet owns the DIDs and their keys, the connections and the invitations
// of one agent. It's safe for concurrent use.
type Wallet struct {
	id       string
	name     string
	backend  AgentBackend
	store    psm.Store
	resolver *Resolver

	lk          sync.RWMutex
	keys        map[string]*keyPair // by verkey
	connections map[string]*psm.Connection
	invitations map[string]*psm.Invitation
}

type Option func(w *Wallet)

// WithStore sets the persistent store of the wallet. The default is the
// memory store.
func WithStore(s psm.Store) Option {
	return func(w *Wallet) {
		w.store = s
	}
}

// WithResolver shares the resolver between the wallets.
func WithResolver(r *Resolver) Option {
	return func(w *Wallet) {
		w.resolver = r
	}
}

// NewWallet creates the wallet and loads the keys and connections from its
// store.
func NewWallet(name string, backend AgentBackend, opts ...Option) (w *Wallet, err error) {
	defer err2.Handle(&err, "new wallet %s", name)

	if backend == nil {
		backend = NativeBackend{}
	}
	w = &Wallet{
		id:          utils.UUID(),
		name:        name,
		backend:     backend,
		keys:        make(map[string]*keyPair),
		connections: make(map[string]*psm.Connection),
		invitations: make(map[string]*psm.Invitation),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.store == nil {
		w.store = psm.NewMemStore()
	}
	if w.resolver == nil {
		w.resolver = NewResolver()
	}

	for _, k := range try.To1(w.store.Keys()) {
		kp := try.To1(newKeyPair(k.DID.Method, k.Seed))
		w.keys[kp.did.Verkey] = kp
	}
	for _, c := range try.To1(w.store.Connections()) {
		w.connections[c.ID] = c
	}
	glog.V(1).Infof("wallet %s (%s) ready: %d keys, %d connections",
		name, backend.Type(), len(w.keys), len(w.connections))
	return w, nil
}

func (w *Wallet) ID() string {
	return w.id
}

func (w *Wallet) Name() string {
	return w.name
}

func (w *Wallet) Backend() AgentBackend {
	return w.backend
}

func (w *Wallet) EndpointURL() string {
	return w.backend.EndpointURL()
}

func (w *Wallet) Resolver() *Resolver {
	return w.resolver
}

func (w *Wallet) String() string {
	return fmt.Sprintf("%s[%s]", w.name, w.backend.Type())
}

// CreateDid creates a new DID of the method. The seed is optional, a nil
// seed gives a random key.
func (w *Wallet) CreateDid(method core.Method, seed []byte) (d core.DID, err error) {
	defer err2.Handle(&err, "wallet %s", w.name)

	kp := try.To1(newKeyPair(method, seed))
	try.To(w.store.SaveKey(&psm.KeyRecord{DID: kp.did, Seed: kp.seed}))

	w.lk.Lock()
	w.keys[kp.did.Verkey] = kp
	w.lk.Unlock()

	glog.V(1).Infoln(w.name, "created", kp.did)
	return kp.did, nil
}

// HasKey tells if the wallet owns the private key of the verkey.
func (w *Wallet) HasKey(verkey string) bool {
	w.lk.RLock()
	defer w.lk.RUnlock()
	_, ok := w.keys[verkey]
	return ok
}

// DID returns the wallet's DID of the verkey.
func (w *Wallet) DID(verkey string) (d core.DID, ok bool) {
	w.lk.RLock()
	defer w.lk.RUnlock()
	kp, ok := w.keys[verkey]
	if !ok {
		return d, false
	}
	return kp.did, true
}

// Sign signs the data with the private key of the verkey.
func (w *Wallet) Sign(verkey string, data []byte) ([]byte, error) {
	kp, err := w.keyPair(verkey)
	if err != nil {
		return nil, err
	}
	return kp.sign(data)
}

// PrivateKey returns the Ed25519 private key of the verkey.
func (w *Wallet) PrivateKey(verkey string) (ed25519.PrivateKey, error) {
	kp, err := w.keyPair(verkey)
	if err != nil {
		return nil, err
	}
	return kp.priv, nil
}

func (w *Wallet) keyPair(verkey string) (*keyPair, error) {
	w.lk.RLock()
	defer w.lk.RUnlock()
	kp, ok := w.keys[verkey]
	if !ok {
		return nil, didcomm.PreconditionFailed("key " + verkey + " in wallet " + w.name)
	}
	return kp, nil
}

// DIDDoc builds the DID document of our DID with our endpoint.
func (w *Wallet) DIDDoc(d core.DID) *did.Doc {
	return did.NewDoc(d, w.EndpointURL())
}

// ResolveDid resolves the document of the fully qualified DID. Our own DIDs
// resolve to the documents with our endpoint.
func (w *Wallet) ResolveDid(didStr string) (doc *did.Doc, err error) {
	w.lk.RLock()
	for _, kp := range w.keys {
		if kp.did.Qualified() == didStr {
			w.lk.RUnlock()
			return w.DIDDoc(kp.did), nil
		}
	}
	w.lk.RUnlock()

	return w.resolver.Resolve(didStr)
}

// AddConnection adds a new connection. The ID must be unique in the wallet.
func (w *Wallet) AddConnection(c *psm.Connection) (err error) {
	defer err2.Handle(&err, "add connection")

	w.lk.Lock()
	if _, exists := w.connections[c.ID]; exists {
		w.lk.Unlock()
		return fmt.Errorf("connection %s already exists", c.ID)
	}
	w.connections[c.ID] = c
	w.lk.Unlock()

	glog.V(1).Infoln(w.name, "add connection", c)
	return w.store.SaveConnection(c)
}

// SaveConnection persists the current state of the connection.
func (w *Wallet) SaveConnection(c *psm.Connection) error {
	w.lk.Lock()
	w.connections[c.ID] = c
	w.lk.Unlock()

	return w.store.SaveConnection(c)
}

func (w *Wallet) GetConnection(id string) (*psm.Connection, error) {
	w.lk.RLock()
	defer w.lk.RUnlock()
	c, ok := w.connections[id]
	if !ok {
		return nil, didcomm.PreconditionFailed("connection " + id)
	}
	return c, nil
}

// FindConnection returns the connection where our verkey is myVerkey.
func (w *Wallet) FindConnection(myVerkey string) (*psm.Connection, bool) {
	return w.findConnection(func(c *psm.Connection) bool {
		return c.MyVerkey() == myVerkey
	})
}

// FindConnectionPair returns the connection of the verkey pair.
func (w *Wallet) FindConnectionPair(myVerkey, theirVerkey string) (*psm.Connection, bool) {
	return w.findConnection(func(c *psm.Connection) bool {
		return c.MyVerkey() == myVerkey && c.TheirVerkey() == theirVerkey
	})
}

// FindTheirConnection returns the connection where their verkey is
// theirVerkey.
func (w *Wallet) FindTheirConnection(theirVerkey string) (*psm.Connection, bool) {
	return w.findConnection(func(c *psm.Connection) bool {
		return c.TheirVerkey() == theirVerkey
	})
}

func (w *Wallet) findConnection(match func(c *psm.Connection) bool) (*psm.Connection, bool) {
	for _, c := range w.Connections() {
		if match(c) {
			return c, true
		}
	}
	return nil, false
}

// Connections returns the connections ordered by ID.
func (w *Wallet) Connections() []*psm.Connection {
	w.lk.RLock()
	res := make([]*psm.Connection, 0, len(w.connections))
	for _, c := range w.connections {
		res = append(res, c)
	}
	w.lk.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// RemoveConnections removes all the connections of the wallet.
func (w *Wallet) RemoveConnections() (err error) {
	defer err2.Handle(&err, "remove connections")

	w.lk.Lock()
	ids := make([]string, 0, len(w.connections))
	for id := range w.connections {
		ids = append(ids, id)
	}
	w.connections = make(map[string]*psm.Connection)
	w.lk.Unlock()

	for _, id := range ids {
		try.To(w.store.RmConnection(id))
	}
	glog.V(1).Infoln(w.name, "removed", len(ids), "connections")
	return nil
}

func (w *Wallet) AddInvitation(inv *psm.Invitation) error {
	w.lk.Lock()
	w.invitations[inv.ID] = inv
	w.lk.Unlock()

	return w.store.SaveInvitation(inv)
}

// GetInvitation returns the invitation by its ID. It looks the store if the
// invitation isn't in memory.
func (w *Wallet) GetInvitation(id string) (*psm.Invitation, error) {
	w.lk.RLock()
	inv, ok := w.invitations[id]
	w.lk.RUnlock()
	if ok {
		return inv, nil
	}
	return w.store.GetInvitation(id)
}

func (w *Wallet) Close() error {
	return w.store.Close()
}
