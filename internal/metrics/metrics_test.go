package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTimer_ObserveStore(t *testing.T) {
	before := testutil.CollectAndCount(StoreDuration)

	err := StartTimer().ObserveStore("orders", "test_find", nil)
	assert.NoError(t, err)

	boom := errors.New("boom")
	err = StartTimer().ObserveStore("orders", "test_find", boom)
	assert.Equal(t, boom, err)

	assert.Equal(t, before+2, testutil.CollectAndCount(StoreDuration))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/metrics-test/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics-test/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	got := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/metrics-test/{id}", "418"))
	assert.Equal(t, float64(1), got)
}

func TestHandler(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "animeshop_")
}
