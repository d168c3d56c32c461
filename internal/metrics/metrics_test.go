package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temirov/codeecho/internal/commands"
	"github.com/temirov/codeecho/internal/types"
)

var _ commands.Recorder = ExportRecorder{}

func TestExportRecorder(t *testing.T) {
	fetchedBefore := testutil.ToFloat64(filesFetchedTotal)
	bytesBefore := testutil.ToFloat64(bytesFetchedTotal)
	skippedBefore := testutil.ToFloat64(filesSkippedTotal.WithLabelValues(types.SkipReasonBinary))
	tokensBefore := testutil.ToFloat64(tokensEstimatedTotal)

	recorder := ExportRecorder{}
	recorder.FileFetched(10)
	recorder.FileFetched(5)
	recorder.FileSkipped(types.SkipReasonBinary)
	recorder.TokensEstimated(4)

	assert.Equal(t, fetchedBefore+2, testutil.ToFloat64(filesFetchedTotal))
	assert.Equal(t, bytesBefore+15, testutil.ToFloat64(bytesFetchedTotal))
	assert.Equal(t, skippedBefore+1, testutil.ToFloat64(filesSkippedTotal.WithLabelValues(types.SkipReasonBinary)))
	assert.Equal(t, tokensBefore+4, testutil.ToFloat64(tokensEstimatedTotal))
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(exportsTotal.WithLabelValues("export", "error"))
	RecordOperation("export", false)
	assert.Equal(t, before+1, testutil.ToFloat64(exportsTotal.WithLabelValues("export", "error")))
}

func TestHandlerExposesRecordedRequests(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/fetchRepo", http.StatusOK, 15*time.Millisecond)

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.True(t, strings.Contains(body, `codeecho_http_requests_total{method="GET",path="/api/fetchRepo",status="200"}`))
	assert.Contains(t, body, "codeecho_http_request_duration_seconds_bucket")
}
