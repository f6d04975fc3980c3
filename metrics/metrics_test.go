package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndependentRegistries(t *testing.T) {
	assert := require.New(t)

	first := New()
	second := New()

	first.UploadsTotal.WithLabelValues(StatusSuccess).Inc()
	first.QueriesTotal.WithLabelValues(SurfaceGraphQL, ResultNoDocuments).Inc()
	first.IndexedChunks.Set(12)

	body := scrape(t, assert, first)
	assert.Contains(body, `uploads_total{status="success"} 1`)
	assert.Contains(body, `queries_total{result="no_documents",surface="graphql"} 1`)
	assert.Contains(body, "indexed_chunks 12")

	assert.NotContains(scrape(t, assert, second), `uploads_total{status="success"}`)
}

func scrape(t *testing.T, assert *require.Assertions, m *Metrics) string {
	t.Helper()
	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	assert.NoError(err)
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.NoError(err)
	return string(body)
}
