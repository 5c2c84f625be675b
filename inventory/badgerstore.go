package inventory

import (
	"bytes"
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/wire"
)

// BadgerStore is a durable Store backed by an embedded badger.DB,
// standing in for the spec's out-of-scope SQL adapter — the Store
// contract is identical either way, so the connection/network-handler
// code above it never knows which backend is in use. Keys are raw
// 32-byte IVs; values are the object's full wire encoding, decoded
// through the same obj.Factory used for objects freshly arrived off
// the wire.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if needed) a badger database at
// dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)

func (s *BadgerStore) forEachObject(fn func(o *obj.Object) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var o *obj.Object
			err := item.Value(func(val []byte) error {
				decoded, derr := obj.Decode(val)
				if derr != nil {
					return derr
				}
				o = decoded
				return nil
			})
			if err != nil {
				continue // skip entries that no longer decode cleanly
			}
			if err := fn(o); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) GetInventory(streams ...uint64) ([]wire.ShaHash, error) {
	now := time.Now()
	out := make([]wire.ShaHash, 0)
	err := s.forEachObject(func(o *obj.Object) error {
		if o.Expired(now) {
			return nil
		}
		if !matchesStream(streams, o.Header.Stream) {
			return nil
		}
		out = append(out, o.IV())
		return nil
	})
	return out, err
}

func (s *BadgerStore) GetMissing(offer []wire.ShaHash, streams ...uint64) ([]wire.ShaHash, error) {
	missing := make([]wire.ShaHash, 0, len(offer))
	for _, iv := range offer {
		_, ok, err := s.GetObject(iv)
		if err != nil {
			return nil, err
		}
		if ok {
			o, _, _ := s.GetObject(iv)
			if matchesStream(streams, o.Header.Stream) {
				continue
			}
		}
		missing = append(missing, iv)
	}
	return missing, nil
}

func (s *BadgerStore) GetObject(iv wire.ShaHash) (*obj.Object, bool, error) {
	var o *obj.Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(iv[:])
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, derr := obj.Decode(val)
			if derr != nil {
				return derr
			}
			o = decoded
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if o == nil || o.Expired(time.Now()) {
		return nil, false, nil
	}
	return o, true, nil
}

func (s *BadgerStore) GetObjects(stream uint64, version uint64, objectType int64) ([]*obj.Object, error) {
	now := time.Now()
	out := make([]*obj.Object, 0)
	err := s.forEachObject(func(o *obj.Object) error {
		if o.Expired(now) {
			return nil
		}
		if stream != 0 && o.Header.Stream != stream {
			return nil
		}
		if version != 0 && o.Header.Version != version {
			return nil
		}
		if objectType >= 0 && uint32(objectType) != o.Header.ObjectType {
			return nil
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func (s *BadgerStore) StoreObject(o *obj.Object) error {
	iv := o.IV()
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(iv[:]); err == nil {
			return nil // idempotent (§8)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		var buf bytes.Buffer
		if err := o.Encode(&buf); err != nil {
			return err
		}
		ttl := time.Until(time.Unix(o.Header.ExpiresTime, 0).Add(wire.InventoryGracePeriod))
		entry := badger.NewEntry(iv[:], buf.Bytes())
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) Cleanup() error {
	now := time.Now()
	var stale [][]byte
	err := s.forEachObject(func(o *obj.Object) error {
		if expiredWithGrace(o, now) {
			stale = append(stale, o.IV().Bytes())
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
