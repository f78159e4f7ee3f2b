package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsByLabel(t *testing.T) {
	c := NewCollector("topicgraph")

	c.ObserveMutation("node.create", nil)
	c.ObserveMutation("node.create", nil)
	c.ObserveMutation("node.create", errors.New("boom"))
	c.LedgerTransition("ADDED_NODE")
	c.LedgerFailure("POSTED")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Mutations.WithLabelValues("node.create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Mutations.WithLabelValues("node.create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LedgerTransitions.WithLabelValues("ADDED_NODE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LedgerFailures.WithLabelValues("POSTED")))
}

func TestHandlerExposesOwnRegistry(t *testing.T) {
	c := NewCollector("topicgraph")
	c.ObserveHTTP(http.MethodGet, "/api/topics", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `topicgraph_http_requests_total{method="GET",route="/api/topics",status="200"} 1`))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveMutation("topic.create", nil)
		c.LedgerTransition("CREATED_TOPIC")
		c.LedgerFailure("CREATED_TOPIC")
		c.LedgerRetry("CREATED_TOPIC")
		c.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
	assert.Nil(t, c.Registry())
}
