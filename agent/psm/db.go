package psm

import (
	"crypto/md5"
	"fmt"
	"sort"
	"sync"

	"github.com/findy-network/findy-common-go/crypto"
	"github.com/findy-network/findy-common-go/crypto/db"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/golang/glog"
	"github.com/lainio/err2"
)

const (
	bucketConnection byte = 0 + iota
	bucketInvitation
	bucketKey
)

var buckets = [][]byte{
	{bucketConnection},
	{bucketInvitation},
	{bucketKey},
}

// DB is the bolt backed Store. When it has a key the values are sealed with
// it and the keys are stored as hashes.
type DB struct {
	lk       sync.RWMutex
	filename string
	mgd      db.Handle
	cipher   *crypto.Cipher
}

// Open initializes the database of the filename. The file itself is opened
// at the first use. The key can be nil, otherwise it must be 32 bytes.
func Open(filename string, key []byte) (d *DB, err error) {
	defer err2.Handle(&err, "open %s", filename)

	d = &DB{filename: filename}
	if key != nil {
		if len(key) != 32 {
			return nil, fmt.Errorf("key length %d, want 32", len(key))
		}
		d.cipher = crypto.NewCipher(key)
	}
	d.mgd = db.New(db.Cfg{
		Filename:   filename,
		Buckets:    buckets,
		BackupName: filename + "_backup",
	})
	glog.V(1).Infoln("connection store:", filename, "sealed:", d.cipher != nil)
	return d, nil
}

func (d *DB) Close() (err error) {
	defer err2.Handle(&err, "close %s", d.filename)

	d.lk.Lock()
	defer d.lk.Unlock()

	if d.mgd == nil {
		glog.Warningf("connection store %s already closed", d.filename)
		return nil
	}
	err = d.mgd.Close()
	d.mgd = nil
	return err
}

func (d *DB) SaveConnection(c *Connection) error {
	return d.addData(bucketConnection, []byte(c.ID), dto.ToGOB(c.Record()))
}

func (d *DB) GetConnection(id string) (c *Connection, err error) {
	defer err2.Handle(&err, "get connection")

	var r Record
	found, err := d.get(bucketConnection, []byte(id), func(b []byte) {
		dto.FromGOB(b, &r)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, didcomm.PreconditionFailed("connection " + id)
	}
	return NewConnection(r), nil
}

// Connections returns all the stored connections ordered by ID.
func (d *DB) Connections() (res []*Connection, err error) {
	defer err2.Handle(&err, "list connections")

	d.lk.RLock()
	defer d.lk.RUnlock()

	_, err = d.mgd.GetAllValuesFromBucket(buckets[bucketConnection], d.decrypt,
		func(b []byte) []byte {
			var r Record
			dto.FromGOB(b, &r)
			res = append(res, NewConnection(r))
			return b
		})
	if err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (d *DB) RmConnection(id string) error {
	return d.rm(bucketConnection, []byte(id))
}

func (d *DB) SaveInvitation(inv *Invitation) error {
	return d.addData(bucketInvitation, []byte(inv.ID), dto.ToGOB(inv))
}

func (d *DB) GetInvitation(id string) (inv *Invitation, err error) {
	defer err2.Handle(&err, "get invitation")

	inv = &Invitation{}
	found, err := d.get(bucketInvitation, []byte(id), func(b []byte) {
		dto.FromGOB(b, inv)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, didcomm.PreconditionFailed("invitation " + id)
	}
	return inv, nil
}

func (d *DB) SaveKey(k *KeyRecord) error {
	return d.addData(bucketKey, []byte(k.DID.Verkey), dto.ToGOB(k))
}

func (d *DB) Keys() (res []*KeyRecord, err error) {
	defer err2.Handle(&err, "list keys")

	d.lk.RLock()
	defer d.lk.RUnlock()

	_, err = d.mgd.GetAllValuesFromBucket(buckets[bucketKey], d.decrypt,
		func(b []byte) []byte {
			k := &KeyRecord{}
			dto.FromGOB(b, k)
			res = append(res, k)
			return b
		})
	return res, err
}

func (d *DB) addData(bucketID byte, key, value []byte) error {
	d.lk.RLock()
	defer d.lk.RUnlock()

	return d.mgd.AddKeyValueToBucket(buckets[bucketID],
		&db.Data{
			Data: value,
			Read: d.encrypt,
		},
		&db.Data{
			Data: key,
			Read: d.hash,
		},
	)
}

// get executes a read transaction by a key and a bucket. Instead of returning
// the data, it uses lambda for the result transport to prevent cloning the byte
// slice.
func (d *DB) get(bucketID byte, key []byte, use func(b []byte)) (found bool, err error) {
	d.lk.RLock()
	defer d.lk.RUnlock()

	value := &db.Data{
		Write: d.decrypt,
		Use: func(b []byte) interface{} {
			use(b)
			return nil
		},
	}
	return d.mgd.GetKeyValueFromBucket(buckets[bucketID],
		&db.Data{
			Data: key,
			Read: d.hash,
		},
		value)
}

func (d *DB) rm(bucketID byte, key []byte) error {
	d.lk.RLock()
	defer d.lk.RUnlock()

	return d.mgd.RmKeyValueFromBucket(buckets[bucketID],
		&db.Data{
			Data: key,
			Read: d.hash,
		})
}

// hash makes the hash of the map key value, which keeps the index (DIDs,
// connection IDs) out of the file as plain text.
func (d *DB) hash(key []byte) (k []byte) {
	if d.cipher != nil {
		h := md5.Sum(key)
		return h[:]
	}
	return append(key[:0:0], key...)
}

func (d *DB) encrypt(value []byte) (k []byte) {
	if d.cipher != nil {
		return d.cipher.TryEncrypt(value)
	}
	return append(value[:0:0], value...)
}

func (d *DB) decrypt(value []byte) (k []byte) {
	if d.cipher != nil {
		return d.cipher.TryDecrypt(value)
	}
	return append(value[:0:0], value...)
}
