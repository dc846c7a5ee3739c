package trans

import (
	"context"
	"fmt"
	"sync"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/golang/glog"
)

// MemScheme is the URL scheme of the in process endpoints.
const MemScheme = "mem"

// Memory is the in process transport. The delivery is synchronous: the
// dispatch returns when the receiving handler returns, with its error.
type Memory struct {
	lk       sync.RWMutex
	handlers map[string]Handler
}

func NewMemory() *Memory {
	return &Memory{handlers: make(map[string]Handler)}
}

// URL returns the endpoint URL of the name.
func (m *Memory) URL(name string) string {
	return MemScheme + "://" + name
}

// Listen registers the handler of the endpoint.
func (m *Memory) Listen(endpoint string, h Handler) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.handlers[endpoint] = h
}

// Close removes the endpoint.
func (m *Memory) Close(endpoint string) {
	m.lk.Lock()
	defer m.lk.Unlock()
	delete(m.handlers, endpoint)
}

func (m *Memory) DispatchToEndpoint(ctx context.Context, endpoint string, epm *didcomm.EndpointMessage) error {
	m.lk.RLock()
	h, ok := m.handlers[endpoint]
	m.lk.RUnlock()
	if !ok {
		return fmt.Errorf("no listener at %s", endpoint)
	}
	glog.V(5).Infof("mem deliver %s to %s", epm.ID(), endpoint)
	return h(ctx, epm.Body(), map[string]string{
		didcomm.HeaderContentType: epm.ContentType(),
	})
}
