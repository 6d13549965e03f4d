package monitoring

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScan(t *testing.T) {
	before := testutil.ToFloat64(scansTotal.WithLabelValues("p6mm", "ok"))
	ObserveScan("p6mm", "ok", 3*time.Millisecond)
	ObserveScan("p6mm", "ok", 4*time.Millisecond)
	after := testutil.ToFloat64(scansTotal.WithLabelValues("p6mm", "ok"))
	assert.Equal(t, before+2, after)
}

func TestObservePairs_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(pairsFound.WithLabelValues("x"))
	ObservePairs("x", 0)
	assert.Equal(t, before, testutil.ToFloat64(pairsFound.WithLabelValues("x")))

	ObservePairs("x", 28)
	assert.Equal(t, before+28, testutil.ToFloat64(pairsFound.WithLabelValues("x")))
}

func TestHandler(t *testing.T) {
	ObserveAdvisory("degenerate_operation")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "sympol2d_advisories_total"))
}
