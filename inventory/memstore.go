package inventory

import (
	"sync"
	"time"

	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/wire"
)

// MemStore is a concurrency-safe, map-backed Store, suitable for
// tests and small deployments. It mirrors the teacher's own
// mutex-guarded-map style (peer.knownInventory, peer.requestedObjects)
// rather than reaching for a lock-free structure the pack doesn't
// otherwise exercise.
type MemStore struct {
	mu      sync.RWMutex
	objects map[wire.ShaHash]*obj.Object
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[wire.ShaHash]*obj.Object)}
}

var _ Store = (*MemStore)(nil)

func matchesStream(streams []uint64, s uint64) bool {
	if len(streams) == 0 {
		return true
	}
	for _, want := range streams {
		if want == s {
			return true
		}
	}
	return false
}

func (m *MemStore) GetInventory(streams ...uint64) ([]wire.ShaHash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	out := make([]wire.ShaHash, 0, len(m.objects))
	for iv, o := range m.objects {
		if o.Expired(now) {
			continue
		}
		if !matchesStream(streams, o.Header.Stream) {
			continue
		}
		out = append(out, iv)
	}
	return out, nil
}

func (m *MemStore) GetMissing(offer []wire.ShaHash, streams ...uint64) ([]wire.ShaHash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	missing := make([]wire.ShaHash, 0, len(offer))
	for _, iv := range offer {
		if o, ok := m.objects[iv]; ok {
			if matchesStream(streams, o.Header.Stream) {
				continue
			}
		}
		missing = append(missing, iv)
	}
	return missing, nil
}

func (m *MemStore) GetObject(iv wire.ShaHash) (*obj.Object, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[iv]
	if !ok || o.Expired(time.Now()) {
		return nil, false, nil
	}
	return o, true, nil
}

func (m *MemStore) GetObjects(stream uint64, version uint64, objectType int64) ([]*obj.Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	out := make([]*obj.Object, 0)
	for _, o := range m.objects {
		if o.Expired(now) {
			continue
		}
		if stream != 0 && o.Header.Stream != stream {
			continue
		}
		if version != 0 && o.Header.Version != version {
			continue
		}
		if objectType >= 0 && uint32(objectType) != o.Header.ObjectType {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MemStore) StoreObject(o *obj.Object) error {
	iv := o.IV()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[iv]; exists {
		return nil // idempotent: duplicates silently ignored (§8)
	}
	m.objects[iv] = o
	return nil
}

func (m *MemStore) Cleanup() error {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for iv, o := range m.objects {
		if expiredWithGrace(o, now) {
			delete(m.objects, iv)
		}
	}
	return nil
}
