package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"courier-dispatch/internal/config"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/http/handlers"
	"courier-dispatch/internal/jobs"
	"courier-dispatch/internal/metrics"
	"courier-dispatch/internal/notifier"
	"courier-dispatch/internal/registry"
	"courier-dispatch/internal/service/cancel"
	"courier-dispatch/internal/service/dispatch"
	"courier-dispatch/internal/service/notify"
	"courier-dispatch/internal/service/speed"
	testlog "courier-dispatch/internal/testutil"
)

type apiFixture struct {
	server     *httptest.Server
	couriers   *registry.Couriers
	deliveries *registry.Deliveries
	cancels    *registry.CancelQueue
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := config.Dispatch{
		WorkingRangeKm:       5,
		MinWorkingRangeKm:    0.5,
		AvgSpeedKmh:          10,
		WaitingTimeHours:     0.05,
		ProximityToleranceKm: 0.2,
		MissThreshold:        5,
		NotifyDebounce:       69 * time.Second,
	}
	ticks := config.Ticks{
		Dispatch:     5 * time.Second,
		Notification: 10 * time.Second,
		Cancellation: 5 * time.Second,
		SpeedRefresh: 20 * time.Second,
	}

	log := testlog.New().Logger()
	m := metrics.NewNop()
	f := &apiFixture{
		couriers:   registry.NewCouriers(),
		deliveries: registry.NewDeliveries(),
		cancels:    registry.NewCancelQueue(),
	}

	calc := geo.NewCalculator(cfg)
	engine := dispatch.NewEngine(
		f.couriers, f.deliveries, calc, dispatch.NewAdmission(cfg.MissThreshold),
		dispatch.NopBus{}, cfg, log, m,
	)
	monitor := notify.NewMonitor(f.deliveries, f.couriers, calc, cfg, log, m)
	reconciler := cancel.NewReconciler(f.deliveries, f.couriers, f.cancels, engine.Admission(), log, m)
	speedProvider := speed.NewProvider(f.deliveries, calc, log, m)
	manager := jobs.NewManager(engine, monitor, reconciler, speedProvider, notifier.NewLogNotifier(log), ticks, log)

	h := New(
		handlers.New(),
		handlers.NewCourierHandler(engine, f.couriers),
		handlers.NewDeliveryHandler(engine, f.deliveries),
		handlers.NewTickHandler(manager),
		log,
	)
	f.server = httptest.NewServer(h)
	t.Cleanup(f.server.Close)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_Ping(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.do(t, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_UnknownRoute(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CourierLifecycle(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/courier", map[string]any{"id": 1, "username": "pat"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/courier/1/location", map[string]float64{"lat": 0, "lon": 0})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/courier/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c domain.Courier
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&c))
	require.Equal(t, "pat", c.Username)
	require.NotNil(t, c.Location)

	resp = f.do(t, http.MethodDelete, "/courier/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/courier/1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_RegisterRejectsBadBody(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/courier", map[string]any{"id": 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/courier", map[string]any{"id": 1, "bogus": true})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_DispatchTickAssignsDelivery(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/courier", map[string]any{"id": 1})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/courier/1/location", map[string]float64{"lat": 0, "lon": 0})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	f.deliveries.Upsert(domain.Delivery{
		ID:       10,
		Status:   domain.StatusPending,
		Pickup:   domain.Location{Lat: 0, Lon: 0.001},
		Consumer: domain.Location{Lat: 0, Lon: 0.002},
	})

	resp = f.do(t, http.MethodPost, "/ticks/dispatch", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/delivery/10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d domain.Delivery
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	require.Equal(t, domain.StatusAssigned, d.Status)
	require.NotNil(t, d.CourierID)

	resp = f.do(t, http.MethodGet, "/courier/1/delivery", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var carried domain.Delivery
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&carried))
	require.Equal(t, int64(10), carried.ID)

	// the courier stands at the pickup, so proximity holds
	resp = f.do(t, http.MethodGet, "/courier/1/proximity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prox map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prox))
	require.True(t, prox["on_point"])

	resp = f.do(t, http.MethodPost, "/courier/1/pickup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/courier/1/location", map[string]float64{"lat": 0, "lon": 0.002})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/courier/1/close", map[string]int{"status": int(domain.StatusDelivered)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	c, ok := f.couriers.Get(1)
	require.True(t, ok)
	require.False(t, c.Busy)
	require.Equal(t, 1, c.DoneDeliveries)
}

func TestAPI_CloseFarFromConsumerConflicts(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	courierID := int64(1)
	deliveryID := int64(10)
	f.couriers.Upsert(domain.Courier{
		ID: 1, Busy: true, CurrentDeliveryID: &deliveryID,
		Location: &domain.Location{Lat: 0, Lon: 0},
	})
	f.deliveries.Upsert(domain.Delivery{
		ID: 10, Status: domain.StatusPickedUp, CourierID: &courierID,
		Consumer: domain.Location{Lat: 1, Lon: 1},
	})

	resp := f.do(t, http.MethodPost, "/courier/1/close", map[string]int{"status": int(domain.StatusDelivered)})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_DeliveriesListFilter(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.deliveries.Upsert(domain.Delivery{ID: 1, Status: domain.StatusPending})
	f.deliveries.Upsert(domain.Delivery{ID: 2, Status: domain.StatusDelivered})

	resp := f.do(t, http.MethodGet, "/deliveries?status=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Delivery
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].ID)

	resp = f.do(t, http.MethodGet, "/deliveries?status=42", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_WorkingRange(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/working-range", map[string]float64{"delta_km": 1.5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 6.5, body["working_range_km"])

	resp = f.do(t, http.MethodPost, "/working-range", map[string]float64{"delta_km": -100})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CancellationTick(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	courierID := int64(1)
	f.couriers.Upsert(domain.Courier{ID: 1, Busy: true})
	f.deliveries.Upsert(domain.Delivery{ID: 10, CourierID: &courierID})
	f.cancels.Put(domain.Delivery{ID: 10})

	resp := f.do(t, http.MethodPost, "/ticks/cancellation", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	_, ok := f.deliveries.Get(10)
	require.False(t, ok)
	c, _ := f.couriers.Get(1)
	require.False(t, c.Busy)
}

func TestAPI_SpeedTick(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	started := time.Now().Add(-time.Hour)
	completed := time.Now()
	f.deliveries.Upsert(domain.Delivery{
		ID: 1, Status: domain.StatusDelivered, Distance: 7,
		StartedAt: started, CompletedAt: &completed,
	})

	resp := f.do(t, http.MethodPost, "/ticks/speed", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	_, ok := f.deliveries.Get(1)
	require.False(t, ok)
}
