package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/sites/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.CollectAndCount(requestDuration)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sites/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.CollectAndCount(requestDuration))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(AmountCharged)
	AmountCharged.Add(8000)
	assert.Equal(t, before+8000, testutil.ToFloat64(AmountCharged))

	TicketsOpened.WithLabelValues("CAR").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(TicketsOpened.WithLabelValues("CAR")), 1.0)
}
