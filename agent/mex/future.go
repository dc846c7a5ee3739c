package mex

import (
	"context"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/golang/glog"
)

// FutureKey is the correlation key of the pending-response future. CorrID is
// a thread ID or a connection ID depending on the protocol.
type FutureKey struct {
	Type   string
	CorrID string
}

func (k FutureKey) String() string {
	return k.Type + "/" + k.CorrID
}

type future struct {
	done     chan struct{}
	msg      *didcomm.EndpointMessage
	resolved bool
}

// PlaceFuture creates an unresolved future. Placing it again while the
// earlier is still unresolved is an error, only one waiter per correlation is
// supported. A resolved but never awaited future is replaced.
//
// Protocols must place the future before they dispatch the message whose
// response completes it.
func (x *Exchange) PlaceFuture(messageType, corrID string) error {
	key := FutureKey{Type: messageType, CorrID: corrID}

	x.lk.Lock()
	defer x.lk.Unlock()

	if f, ok := x.futures[key]; ok && !f.resolved {
		return &futureError{key: key}
	}
	x.futures[key] = &future{done: make(chan struct{})}
	glog.V(3).Infoln("place future:", key)
	return nil
}

// HasFuture tells if the future is placed and not yet consumed.
func (x *Exchange) HasFuture(messageType, corrID string) bool {
	x.lk.RLock()
	defer x.lk.RUnlock()
	_, ok := x.futures[FutureKey{Type: messageType, CorrID: corrID}]
	return ok
}

// CompleteFuture resolves the future with the message. Completing an absent
// or already resolved future is a no-op, which tolerates duplicate inbound
// delivery. It returns true if this call resolved the future.
func (x *Exchange) CompleteFuture(messageType, corrID string, m *didcomm.EndpointMessage) bool {
	key := FutureKey{Type: messageType, CorrID: corrID}

	x.lk.Lock()
	defer x.lk.Unlock()

	f, ok := x.futures[key]
	if !ok {
		glog.V(1).Infoln("no future to complete:", key)
		return false
	}
	if f.resolved {
		glog.V(1).Infoln("future already completed:", key)
		return false
	}
	f.msg = m
	f.resolved = true
	close(f.done)
	glog.V(3).Infoln("complete future:", key)
	return true
}

// RemoveFuture removes the future regardless of its state. Callers use it
// before they retry an operation which places the same future.
func (x *Exchange) RemoveFuture(messageType, corrID string) bool {
	key := FutureKey{Type: messageType, CorrID: corrID}

	x.lk.Lock()
	defer x.lk.Unlock()
	_, ok := x.futures[key]
	delete(x.futures, key)
	return ok
}

// PendingFutures returns the count of unresolved futures.
func (x *Exchange) PendingFutures() (n int) {
	x.lk.RLock()
	defer x.lk.RUnlock()
	for _, f := range x.futures {
		if !f.resolved {
			n++
		}
	}
	return n
}

// AwaitMessage blocks until the future resolves, the timeout passes or the ctx
// is done. The resolved future is consumed. On timeout the future stays
// placed and the await can be retried.
func (x *Exchange) AwaitMessage(
	ctx context.Context,
	messageType, corrID string,
	timeout time.Duration,
) (
	m *didcomm.EndpointMessage,
	err error,
) {
	key := FutureKey{Type: messageType, CorrID: corrID}

	x.lk.RLock()
	f, ok := x.futures[key]
	x.lk.RUnlock()
	if !ok {
		return nil, precondition("future " + key.String())
	}

	glog.V(1).Infoln("wait on future:", key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
	case <-timer.C:
		return nil, didcomm.Timeout(key.String())
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	x.lk.Lock()
	if x.futures[key] == f {
		delete(x.futures, key)
	}
	x.lk.Unlock()
	return f.msg, nil
}

type futureError struct {
	key FutureKey
}

func (e *futureError) Error() string {
	return didcomm.ErrFutureExists.Error() + ": " + e.key.String()
}

func (e *futureError) Unwrap() error {
	return didcomm.ErrFutureExists
}
