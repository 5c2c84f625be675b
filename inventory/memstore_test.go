package inventory

import (
	"testing"
	"time"

	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/wire"
	"github.com/stretchr/testify/require"
)

func newTestObject(t *testing.T, stream uint64, ttl time.Duration) *obj.Object {
	t.Helper()
	gp := obj.NewGetpubkey(3, stream, [20]byte{byte(stream)}, [32]byte{})
	return obj.New(gp, ttl, 0)
}

func TestMemStoreIdempotentStore(t *testing.T) {
	s := NewMemStore()
	o := newTestObject(t, 1, time.Hour)

	require.NoError(t, s.StoreObject(o))
	require.NoError(t, s.StoreObject(o))

	all, err := s.GetInventory()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMemStoreStreamFilter(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.StoreObject(newTestObject(t, 1, time.Hour)))
	require.NoError(t, s.StoreObject(newTestObject(t, 2, time.Hour)))

	stream1, err := s.GetInventory(1)
	require.NoError(t, err)
	require.Len(t, stream1, 1)

	all, err := s.GetInventory()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestMemStoreEviction(t *testing.T) {
	s := NewMemStore()
	o := newTestObject(t, 1, -time.Hour) // already expired
	require.NoError(t, s.StoreObject(o))

	// Force expiry to be well past the grace period.
	o.Header.ExpiresTime = time.Now().Add(-wire.InventoryGracePeriod - time.Minute).Unix()

	require.NoError(t, s.Cleanup())
	all, err := s.GetInventory()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestMemStoreGetMissing(t *testing.T) {
	s := NewMemStore()
	known := newTestObject(t, 1, time.Hour)
	require.NoError(t, s.StoreObject(known))

	unknownIV := wire.ShaHash{0xff}
	missing, err := s.GetMissing([]wire.ShaHash{known.IV(), unknownIV})
	require.NoError(t, err)
	require.Equal(t, []wire.ShaHash{unknownIV}, missing)
}
