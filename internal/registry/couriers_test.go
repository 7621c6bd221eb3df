package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"courier-dispatch/internal/domain"
)

func TestCouriers_ReserveIsCompareAndSwap(t *testing.T) {
	t.Parallel()

	c := NewCouriers()
	c.Upsert(domain.Courier{ID: 7, Location: &domain.Location{}})

	require.True(t, c.Reserve(7, 100))
	require.False(t, c.Reserve(7, 200), "busy courier must not be reserved twice")

	got, _ := c.Get(7)
	require.True(t, got.Busy)
	require.NotNil(t, got.CurrentDeliveryID)
	require.Equal(t, int64(100), *got.CurrentDeliveryID)
}

func TestCouriers_ReleaseRestoresInvariant(t *testing.T) {
	t.Parallel()

	c := NewCouriers()
	c.Upsert(domain.Courier{ID: 7, Location: &domain.Location{}})
	require.True(t, c.Reserve(7, 100))

	freed, ok := c.Release(7)
	require.True(t, ok)
	require.False(t, freed.Busy)
	require.Nil(t, freed.CurrentDeliveryID)

	_, ok = c.Release(8)
	require.False(t, ok)
}

func TestCouriers_CompleteCountsDelivery(t *testing.T) {
	t.Parallel()

	c := NewCouriers()
	c.Upsert(domain.Courier{ID: 7, Location: &domain.Location{}, DoneDeliveries: 2})
	require.True(t, c.Reserve(7, 100))

	require.True(t, c.Complete(7))
	got, _ := c.Get(7)
	require.False(t, got.Busy)
	require.Nil(t, got.CurrentDeliveryID)
	require.Equal(t, 3, got.DoneDeliveries)
}

func TestCouriers_MergeKeepsAbsentFields(t *testing.T) {
	t.Parallel()

	c := NewCouriers()
	c.Upsert(domain.Courier{ID: 3, Username: "bob", Balance: 42.5, Rank: 4.9})

	// a partial upsert carrying only id and location must not touch the rest
	c.Merge(domain.PartialCourier{
		ID:       3,
		Location: &domain.Location{Lat: 1, Lon: 2},
	})

	got, ok := c.Get(3)
	require.True(t, ok)
	require.Equal(t, "bob", got.Username)
	require.Equal(t, 42.5, got.Balance)
	require.Equal(t, 4.9, got.Rank)
	require.NotNil(t, got.Location)
	require.Equal(t, 1.0, got.Location.Lat)
}

func TestCouriers_MergeInsertsUnknownCourier(t *testing.T) {
	t.Parallel()

	c := NewCouriers()
	name := "alice"
	c.Merge(domain.PartialCourier{ID: 9, Username: &name})

	got, ok := c.Get(9)
	require.True(t, ok)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, 5.0, got.Rank, "fresh profile starts at default rank")
}

func TestCouriers_FreeRequiresLocation(t *testing.T) {
	t.Parallel()

	c := NewCouriers()
	c.Upsert(domain.Courier{ID: 1})
	c.Upsert(domain.Courier{ID: 2, Location: &domain.Location{}})
	c.Upsert(domain.Courier{ID: 3, Location: &domain.Location{}, Busy: true})

	free := c.Free()
	require.Len(t, free, 1)
	require.Equal(t, int64(2), free[0].ID)
	require.True(t, c.HasFree())
}
