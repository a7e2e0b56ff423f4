package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHTTP_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHTTP)
	r.Get("/api/pets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/pets/{id}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pets/abc", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/pets/{id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesDomainCounters(t *testing.T) {
	RecordSubmitted()
	RecordReview("Approved")
	RecordCascade(2)
	RecordNotificationFailure("rejection")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, name := range []string{
		"pet_adoption_applications_submitted_total",
		"pet_adoption_applications_reviewed_total",
		"pet_adoption_applications_cascade_rejected_total",
		"pet_adoption_notifications_failures_total",
	} {
		assert.True(t, strings.Contains(string(body), name), "missing %s", name)
	}
}
