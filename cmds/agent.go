package cmds

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/findy-network/findy-exchange/agent/endp"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/trans"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Exchange registry pruning of the long running agents.
const (
	pruneIdle  = 30 * time.Minute
	pruneEvery = 5 * time.Minute
)

// Agent is the agent process of the commands: the protocol service with the
// transport router and the inbound endpoint server of the wallets. The
// mounted wallets are reachable in process through Mem as well.
type Agent struct {
	Server *endp.Server
	Mem    *trans.Memory
	Svc    *prot.Service
	Router *trans.Router

	host   string
	lk     sync.Mutex
	ln     net.Listener
	srv    *http.Server
	served chan error
}

// NewAgent creates the agent. The host is the public base URL of the
// endpoints, e.g. http://localhost:8090. An empty host is set from the
// listening address by Start.
func NewAgent(host string) *Agent {
	router := trans.NewRouter()
	mem := trans.NewMemory()
	router.Handle(trans.MemScheme, mem)
	return &Agent{
		Server: endp.NewServer(host),
		Mem:    mem,
		Svc:    prot.NewService(router, mex.NewRegistry()),
		Router: router,
		host:   host,
	}
}

// Endpoint returns the HTTP endpoint URL of the wallet name.
func (a *Agent) Endpoint(wallet string) string {
	return a.Server.Addr(wallet).Address()
}

// Mount starts serving the wallet's endpoints.
func (a *Agent) Mount(w *ssi.Wallet) {
	h := a.Svc.Handler(w)
	a.Server.Mount(w.Name(), h)
	a.Mem.Listen(a.Mem.URL(w.Name()), h)
}

// Start listens the address and serves in the background until Close. The
// exchange registry is pruned when prune is true.
func (a *Agent) Start(addr string, prune bool) (err error) {
	defer err2.Handle(&err, "start agent at %s", addr)

	ln := try.To1(net.Listen("tcp", addr))
	if prune {
		if err := a.Svc.Exchanges().StartPruning(pruneIdle, pruneEvery); err != nil {
			_ = ln.Close()
			return err
		}
	}
	srv := &http.Server{
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	served := make(chan error, 1)
	if a.host == "" {
		a.Server.SetBase("http://" + ln.Addr().String())
	}

	a.lk.Lock()
	a.ln, a.srv, a.served = ln, srv, served
	a.lk.Unlock()

	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			glog.Error("agent server:", err)
		}
		served <- err
	}()
	glog.V(1).Infoln("agent listening", ln.Addr())
	return nil
}

// Addr returns the listening address or nil if the agent isn't started.
func (a *Agent) Addr() net.Addr {
	a.lk.Lock()
	defer a.lk.Unlock()
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// Wait blocks until the server stops or the ctx is done.
func (a *Agent) Wait(ctx context.Context) error {
	a.lk.Lock()
	served := a.served
	a.lk.Unlock()
	if served == nil {
		return nil
	}
	select {
	case err := <-served:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Close stops the server and the pruning.
func (a *Agent) Close(ctx context.Context) error {
	a.Svc.Exchanges().Stop()

	a.lk.Lock()
	srv := a.srv
	a.srv = nil
	a.lk.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
