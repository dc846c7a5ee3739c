/*
Package mex implements the message exchange, the conversation context of the
protocols. An Exchange has an append only message log, a typed attachment
store, the bound protocols, and the pending-response futures which the inbound
path completes and the protocol awaits.

A Registry lets the inbound path find the exchange of a conversation by the
local party's verification key, so that a message belonging to an already
started conversation is merged into it rather than starting a new one.
*/
package mex

import (
	"sync"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/golang/glog"
)

var precondition = didcomm.PreconditionFailed

// Exchange is safe for concurrent use. The owning conversation and the
// inbound delivery path both use it.
type Exchange struct {
	id  string
	reg *Registry

	lk          sync.RWMutex
	messages    []*didcomm.EndpointMessage
	attachments map[attachID]any
	protocolURI string
	protocols   map[string]any
	verkeys     []string
	futures     map[FutureKey]*future
	touched     time.Time
}

// New creates a new exchange. The reg can be nil in which case the exchange
// isn't findable by verkeys.
func New(reg *Registry) *Exchange {
	return &Exchange{
		id:          utils.UUID(),
		reg:         reg,
		attachments: make(map[attachID]any),
		protocols:   make(map[string]any),
		futures:     make(map[FutureKey]*future),
		touched:     time.Now(),
	}
}

func (x *Exchange) ID() string {
	return x.id
}

// AddMessage appends the message to the log. Messages are never removed or
// edited.
func (x *Exchange) AddMessage(m *didcomm.EndpointMessage) *Exchange {
	x.lk.Lock()
	defer x.lk.Unlock()

	glog.V(3).Infof("mex %s add %s", x.id, m)
	x.messages = append(x.messages, m)
	x.touched = time.Now()
	return x
}

// Last returns the most recently added message or nil.
func (x *Exchange) Last() *didcomm.EndpointMessage {
	x.lk.RLock()
	defer x.lk.RUnlock()
	if len(x.messages) == 0 {
		return nil
	}
	return x.messages[len(x.messages)-1]
}

// LastOfType returns the most recent message of the type or nil.
func (x *Exchange) LastOfType(t string) *didcomm.EndpointMessage {
	x.lk.RLock()
	defer x.lk.RUnlock()
	for i := len(x.messages) - 1; i >= 0; i-- {
		if x.messages[i].Type() == t {
			return x.messages[i]
		}
	}
	return nil
}

// Messages returns a copy of the log.
func (x *Exchange) Messages() []*didcomm.EndpointMessage {
	x.lk.RLock()
	defer x.lk.RUnlock()
	return append(x.messages[:0:0], x.messages...)
}

func (x *Exchange) Len() int {
	x.lk.RLock()
	defer x.lk.RUnlock()
	return len(x.messages)
}

// ProtocolURI returns the URI of the protocol bound last.
func (x *Exchange) ProtocolURI() string {
	x.lk.RLock()
	defer x.lk.RUnlock()
	return x.protocolURI
}

// Protocol returns the protocol instance bound to this exchange by URI.
func (x *Exchange) Protocol(uri string) (p any, ok bool) {
	x.lk.RLock()
	defer x.lk.RUnlock()
	p, ok = x.protocols[uri]
	return p, ok
}

// BindProtocol binds the protocol instance and makes it the current one.
func (x *Exchange) BindProtocol(uri string, p any) {
	x.lk.Lock()
	defer x.lk.Unlock()
	x.protocols[uri] = p
	x.protocolURI = uri
}

// SetCurrentProtocol sets currently active protocol of the already bound ones.
func (x *Exchange) SetCurrentProtocol(uri string) {
	x.lk.Lock()
	defer x.lk.Unlock()
	x.protocolURI = uri
}

// Associate registers the exchange by the local party's verkey.
func (x *Exchange) Associate(verkey string) {
	x.lk.Lock()
	found := false
	for _, vk := range x.verkeys {
		found = found || vk == verkey
	}
	if !found {
		x.verkeys = append(x.verkeys, verkey)
	}
	x.lk.Unlock()

	if x.reg != nil {
		x.reg.Register(verkey, x)
	}
}

// Verkeys returns the verkeys the exchange is associated with.
func (x *Exchange) Verkeys() []string {
	x.lk.RLock()
	defer x.lk.RUnlock()
	return append(x.verkeys[:0:0], x.verkeys...)
}

func (x *Exchange) lastTouched() time.Time {
	x.lk.RLock()
	defer x.lk.RUnlock()
	return x.touched
}
