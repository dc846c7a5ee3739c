package mex

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Registry is the process wide exchange registry by the local party's
// verification key. It's injected to the services that need it. Entries are
// pruned only when pruning is started.
type Registry struct {
	lk       sync.RWMutex
	byVerkey map[string]*Exchange

	sched *gocron.Scheduler
}

func NewRegistry() *Registry {
	return &Registry{byVerkey: make(map[string]*Exchange)}
}

// New creates a new exchange which uses this registry.
func (r *Registry) New() *Exchange {
	return New(r)
}

// Register maps the verkey to the exchange. Exchange.Associate is the normal
// way to call it.
func (r *Registry) Register(verkey string, x *Exchange) {
	r.lk.Lock()
	defer r.lk.Unlock()

	if old, ok := r.byVerkey[verkey]; ok && old != x {
		glog.V(1).Infof("verkey %s moves from mex %s to %s", verkey, old.ID(), x.ID())
	}
	r.byVerkey[verkey] = x
}

func (r *Registry) FindByVerkey(verkey string) (x *Exchange, ok bool) {
	r.lk.RLock()
	defer r.lk.RUnlock()
	x, ok = r.byVerkey[verkey]
	return x, ok
}

func (r *Registry) Unregister(verkey string) {
	r.lk.Lock()
	defer r.lk.Unlock()
	delete(r.byVerkey, verkey)
}

func (r *Registry) Len() int {
	r.lk.RLock()
	defer r.lk.RUnlock()
	return len(r.byVerkey)
}

// Prune removes exchanges which have been idle longer than idle and have no
// pending futures. It returns the count of removed entries.
func (r *Registry) Prune(idle time.Duration) (count int) {
	limit := time.Now().Add(-idle)

	r.lk.Lock()
	defer r.lk.Unlock()
	for vk, x := range r.byVerkey {
		if x.PendingFutures() == 0 && x.lastTouched().Before(limit) {
			delete(r.byVerkey, vk)
			count++
		}
	}
	if count > 0 {
		glog.V(1).Infoln("pruned exchanges:", count)
	}
	return count
}

// StartPruning starts the background job which calls Prune every interval.
func (r *Registry) StartPruning(idle, every time.Duration) (err error) {
	defer err2.Handle(&err, "start pruning")

	r.lk.Lock()
	defer r.lk.Unlock()
	if r.sched != nil {
		return errors.New("pruning already started")
	}
	s := gocron.NewScheduler(time.UTC)
	try.To1(s.Every(every).Do(func() {
		r.Prune(idle)
	}))
	s.StartAsync()
	r.sched = s
	return nil
}

// Stop stops the pruning job if it's running.
func (r *Registry) Stop() {
	r.lk.Lock()
	s := r.sched
	r.sched = nil
	r.lk.Unlock()

	// the job takes the lock, and Stop waits the running job
	if s != nil {
		s.Stop()
	}
}
