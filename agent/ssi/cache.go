package ssi

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bluele/gcache"
	"github.com/findy-network/findy-exchange/std/did"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const resolverCacheSize = 256

// Resolver resolves DID documents. did:key documents are built from the DID
// itself, the others must be registered first, e.g. from a DID exchange. The
// results are kept in a LRU cache.
type Resolver struct {
	lk    sync.RWMutex
	docs  map[string]*did.Doc
	cache gcache.Cache
}

func NewResolver() *Resolver {
	r := &Resolver{docs: make(map[string]*did.Doc)}
	r.cache = gcache.New(resolverCacheSize).
		LRU().
		LoaderFunc(func(key interface{}) (interface{}, error) {
			return r.load(key.(string))
		}).
		Build()
	return r
}

// Register adds or replaces the document of the DID.
func (r *Resolver) Register(doc *did.Doc) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	r.lk.Lock()
	r.docs[doc.ID] = doc
	r.lk.Unlock()

	r.cache.Remove(doc.ID)
	glog.V(3).Infoln("resolver registered", doc.ID)
	return nil
}

// Resolve returns the document of the fully qualified DID.
func (r *Resolver) Resolve(didStr string) (doc *did.Doc, err error) {
	defer err2.Handle(&err, "resolve %s", didStr)

	v := try.To1(r.cache.Get(didStr))
	return v.(*did.Doc), nil
}

func (r *Resolver) load(didStr string) (*did.Doc, error) {
	r.lk.RLock()
	doc, ok := r.docs[didStr]
	r.lk.RUnlock()
	if ok {
		return doc, nil
	}
	if strings.HasPrefix(didStr, didKeyPrefix) {
		d, err := ParseKeyDID(didStr)
		if err != nil {
			return nil, err
		}
		return did.NewDoc(d, ""), nil
	}
	return nil, fmt.Errorf("DID document not found: %s", didStr)
}
