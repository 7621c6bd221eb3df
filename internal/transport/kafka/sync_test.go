package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/registry"
	testlog "courier-dispatch/internal/testutil"
)

type wakerSpy struct{ calls int }

func (w *wakerSpy) CourierAvailable() { w.calls++ }

type syncFixture struct {
	sync     *Sync
	couriers *registry.Couriers
	cancels  *registry.CancelQueue
	waker    *wakerSpy
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	f := &syncFixture{
		couriers: registry.NewCouriers(),
		cancels:  registry.NewCancelQueue(),
		waker:    &wakerSpy{},
	}
	f.sync = NewSync(f.couriers, registry.NewDeliveries(), f.cancels, f.waker, testlog.New().Logger())
	return f
}

func (f *syncFixture) handle(t *testing.T, topic string, payload string) error {
	t.Helper()
	h, ok := f.sync.Routes()[topic]
	require.True(t, ok)
	return h(context.Background(), []byte(payload))
}

func TestSync_CourierProfileMergePreservesLocalFields(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)
	f.couriers.Upsert(domain.Courier{
		ID:       1,
		Username: "pat",
		Balance:  120.5,
		Rank:     4.8,
		Location: &domain.Location{Lat: 1, Lon: 2},
	})

	err := f.handle(t, TopicCourierProfile, `{"id":1,"first_name":"Pat"}`)
	require.NoError(t, err)

	c, ok := f.couriers.Get(1)
	require.True(t, ok)
	require.Equal(t, "Pat", c.FirstName)
	require.Equal(t, "pat", c.Username)
	require.Equal(t, 120.5, c.Balance)
	require.Equal(t, 4.8, c.Rank)
	require.NotNil(t, c.Location)
}

func TestSync_CourierProfileInsertsUnknownCourier(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)
	err := f.handle(t, TopicCourierProfile, `{"id":2,"username":"sam","location":{"lat":3,"lon":4}}`)
	require.NoError(t, err)

	c, ok := f.couriers.Get(2)
	require.True(t, ok)
	require.Equal(t, "sam", c.Username)
	require.Equal(t, 3.0, c.Location.Lat)
}

func TestSync_CourierProfileWakesOnFreeCourier(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)

	// a busy profile must not wake the dispatcher
	err := f.handle(t, TopicCourierProfile, `{"id":1,"busy":true,"location":{"lat":1,"lon":1}}`)
	require.NoError(t, err)
	require.Zero(t, f.waker.calls)

	// clearing busy makes the courier matchable
	err = f.handle(t, TopicCourierProfile, `{"id":1,"busy":false}`)
	require.NoError(t, err)
	require.Equal(t, 1, f.waker.calls)
}

func TestSync_CourierProfileWithoutLocationDoesNotWake(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)
	err := f.handle(t, TopicCourierProfile, `{"id":1,"username":"sam"}`)
	require.NoError(t, err)
	require.Zero(t, f.waker.calls)
}

func TestSync_DeliveryCreatedMergesPartial(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)
	deliveries := registry.NewDeliveries()
	f.sync = NewSync(f.couriers, deliveries, f.cancels, f.waker, testlog.New().Logger())

	err := f.handle(t, TopicDeliveryCreated,
		`{"id":7,"latitude":1.5,"longitude":2.5,"consumer_latitude":3.5,"consumer_longitude":4.5,"address":"12 Main St"}`)
	require.NoError(t, err)

	d, ok := deliveries.Get(7)
	require.True(t, ok)
	require.Equal(t, domain.StatusPending, d.Status)
	require.Equal(t, domain.Location{Lat: 1.5, Lon: 2.5}, d.Pickup)
	require.Equal(t, domain.Location{Lat: 3.5, Lon: 4.5}, d.Consumer)
	require.Equal(t, "12 Main St", d.Address)
}

func TestSync_DeliveryCancelEnqueues(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)
	err := f.handle(t, TopicDeliveryCancel, `{"id":7,"courier":3}`)
	require.NoError(t, err)

	require.Equal(t, 1, f.cancels.Len())
	entry := f.cancels.Snapshot()[0]
	require.Equal(t, int64(7), entry.ID)
	require.Equal(t, domain.StatusCancelled, entry.Status)
	require.NotNil(t, entry.CourierID)
	require.Equal(t, int64(3), *entry.CourierID)
}

func TestSync_RejectsMalformedAndIDLessPayloads(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(t)
	for topic := range f.sync.Routes() {
		require.Error(t, f.handle(t, topic, `{not json`), topic)
		require.Error(t, f.handle(t, topic, `{"username":"x"}`), topic)
	}
	require.Zero(t, f.cancels.Len())
}
