package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAdjustment(t *testing.T) {
	before := testutil.ToFloat64(AdjustmentsApplied.WithLabelValues("early-bird", "discount"))

	RecordAdjustment("early-bird", false)
	RecordAdjustment("early-bird", false)
	RecordAdjustment("demand", true)

	assert.Equal(t, before+2, testutil.ToFloat64(AdjustmentsApplied.WithLabelValues("early-bird", "discount")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(AdjustmentsApplied.WithLabelValues("demand", "surcharge")), 1.0)
}

func TestRecordEventPublished(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("quote.calculated", "error"))

	RecordEventPublished("quote.calculated", errors.New("broker down"))

	assert.Equal(t, before+1, testutil.ToFloat64(EventsPublished.WithLabelValues("quote.calculated", "error")))
}

func TestHandler_ServesMetricsAndHealth(t *testing.T) {
	RecordQuote("default", "ok", 20, time.Millisecond)
	RecordHTTPRequest(http.MethodPost, "/v1/quotes", http.StatusOK, time.Millisecond)

	srv := httptest.NewServer(Handler(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pricing_quotes_total")
	assert.Contains(t, string(body), `http_requests_total{method="POST",route="/v1/quotes",status="200"}`)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
