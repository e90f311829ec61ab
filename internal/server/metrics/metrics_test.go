package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := New()

	r.CustodyOp("encrypt", OutcomeOK)
	r.CustodyOp("encrypt", OutcomeOK)
	r.CustodyOp("decrypt", OutcomeError)
	r.Transfer(OutcomeNoEvent)
	r.Relayed(OutcomeOK)
	r.Notified(OutcomeSkipped)
	r.WalletCreated()
	r.RelayCursor(42)
	r.HTTPRequest(http.MethodGet, "/wallet/balance/:address", http.StatusOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.custodyOps.WithLabelValues("encrypt", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.custodyOps.WithLabelValues("decrypt", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transfers.WithLabelValues(OutcomeNoEvent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.relayed.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.walletsCreated))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.relayCursor))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/wallet/balance/:address", "200")))
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.CustodyOp("encrypt", OutcomeOK)
		r.Transfer(OutcomeOK)
		r.Relayed(OutcomeOK)
		r.Notified(OutcomeOK)
		r.WalletCreated()
		r.RelayCursor(1)
		r.HTTPRequest(http.MethodGet, "/", http.StatusOK)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.Transfer(OutcomeReverted)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `tipkeeper_transfers_total{outcome="reverted"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
