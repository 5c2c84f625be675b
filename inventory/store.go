// Package inventory implements the Inventory Store capability (§4.3):
// a content-addressed, deduplicating set of unexpired objects with
// stream/type/version filtering and time-based eviction. The SQL-backed
// persistence adapter described in spec.md §1 is explicitly out of
// scope; this package defines the narrow Store contract plus two
// concrete implementations a deployment can choose between.
package inventory

import (
	"time"

	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/wire"
)

// Store is the Inventory Store capability contract (§4.3).
type Store interface {
	// GetInventory returns all unexpired IVs in any of the given
	// streams. No streams means all streams.
	GetInventory(streams ...uint64) ([]wire.ShaHash, error)

	// GetMissing returns the subset of offer not locally known,
	// restricted to the given streams.
	GetMissing(offer []wire.ShaHash, streams ...uint64) ([]wire.ShaHash, error)

	// GetObject returns the object for iv, or ok=false if unknown.
	GetObject(iv wire.ShaHash) (o *obj.Object, ok bool, err error)

	// GetObjects returns objects matching the given filters. A zero
	// stream or version, or a negative objectType, acts as a wildcard
	// for that field.
	GetObjects(stream uint64, version uint64, objectType int64) ([]*obj.Object, error)

	// StoreObject idempotently inserts o, keyed by its IV. Storing an
	// IV already present is a silent no-op (§8 "Inventory
	// idempotence").
	StoreObject(o *obj.Object) error

	// Cleanup removes objects whose expires_time + 300s has passed
	// (§4.3, §8 "Eviction").
	Cleanup() error
}

// expiredWithGrace reports whether o should be evicted as of now,
// applying the 5-minute grace period that keeps a just-expired object
// from being immediately re-requested from peers still offering it.
func expiredWithGrace(o *obj.Object, now time.Time) bool {
	return time.Unix(o.Header.ExpiresTime, 0).Add(wire.InventoryGracePeriod).Before(now)
}
