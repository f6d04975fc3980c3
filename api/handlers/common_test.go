// Common test helpers
package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/db/filestore"
	"github.com/meghashyamc/docquery/db/kvdb"
	"github.com/meghashyamc/docquery/llm"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
	"github.com/meghashyamc/docquery/services/index"
	"github.com/meghashyamc/docquery/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	rawBody          string
	expectedStatus   int
	expectedResponse map[string]any
}

type testServer struct {
	router  *gin.Engine
	service *index.Service
	store   *filestore.Store
	cfg     *config.Config
	metrics *metrics.Metrics
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {

	t.Setenv("ENV", "test")

	cfg, err := config.Load()
	assert.NoError(err, "could not load config")

	tempDir := t.TempDir()
	cfg.Set(config.KeyDataDir, filepath.Join(tempDir, "data"))
	cfg.Set(config.KeyKVDBPath, filepath.Join(tempDir, "catalog.db"))

	testLogger := logger.Discard()

	store, err := filestore.New(testLogger, cfg)
	assert.NoError(err, "could not create file store")

	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	m := metrics.New()
	service := index.New(testLogger, cfg, store, kvDB, llm.NewExtractive(), m)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupUpload(router, testLogger, service, validator, cfg.GetMaxUploadBytes())
	SetupQuery(router, testLogger, service, validator, m)
	SetupIndexStatus(router, service)
	assert.NoError(SetupGraphQL(router, testLogger, service, m))

	t.Cleanup(func() {
		service.Close()
		err := kvDB.Close()
		assert.NoError(err, "could not close kv database")
	})

	return &testServer{router: router, service: service, store: store, cfg: cfg, metrics: m}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any, rawBody string) *httptest.ResponseRecorder {

	w := httptest.NewRecorder()

	var body []byte
	if requestBodyMap != nil {
		jsonBody, err := json.Marshal(requestBodyMap)
		assert.NoError(err)
		body = jsonBody
	} else if rawBody != "" {
		body = []byte(rawBody)
	}

	var req *http.Request
	var err error
	if len(body) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(body))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

// makeTestUploadRequest posts a multipart form with one file under field.
func makeTestUploadRequest(router *gin.Engine, assert *require.Assertions, field string, filename string, content []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		assert.NoError(err)
		_, err = part.Write(content)
		assert.NoError(err)
	} else {
		assert.NoError(writer.WriteField("comment", "no file attached"))
	}
	assert.NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/upload", body)
	assert.NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(assert *require.Assertions, w *httptest.ResponseRecorder) map[string]any {
	var responseMap map[string]any
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &responseMap), "response was %s", w.Body.String())
	return responseMap
}
