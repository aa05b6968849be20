package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelchat/internal/catalog"
	"travelchat/internal/config"
	"travelchat/internal/model"
	"travelchat/internal/repository"
	"travelchat/internal/service"
)

const testManifest = `
version: 1
numeric: [bed_count, pricing/rate/amount]
labels:
  bed_count: Bed Count
  pricing/rate/amount: Price
projection:
  - {source: name, name: name}
  - {source: pricing/rate/amount, name: price}
  - {source: bed_count, name: bed_count}
`

type staticDataset struct{ snap *repository.Snapshot }

func (d *staticDataset) Get(ctx context.Context) (*repository.Snapshot, error) { return d.snap, nil }
func (d *staticDataset) Loaded() bool                                          { return true }

func newTestRouter(t *testing.T, predicate string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := catalog.ParseManifest([]byte(testManifest))
	require.NoError(t, err)
	header := []string{"name", "bed_count", "pricing/rate/amount"}
	rows := []model.Row{
		{model.Text("Bangkok <Riverside> & Spa — ริมน้ำ"), model.Number(2, "2"), model.Number(800, "800")},
		{model.Text("Cabin"), model.Number(1, "1"), model.Number(500, "500")},
		{model.Text("Villa"), model.Number(3, "3"), model.Absent()},
	}
	dataset := &staticDataset{snap: &repository.Snapshot{
		Schema: catalog.NewSchema(m, header),
		Table:  model.NewTable(header, rows),
	}}

	translator := service.StaticTranslator(service.TranslatorFunc(
		func(ctx context.Context, in service.TranslationInput) (string, error) { return predicate, nil }))
	chat := NewChatHandler(service.NewChatService(dataset, translator, time.Second))

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedMethods: "GET,POST,OPTIONS"},
	}
	return NewRouter(cfg, chat, dataset, BuildInfo{Version: "test"})
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestChat_Validation(t *testing.T) {
	router := newTestRouter(t, "bed_count > 1")

	bodies := []string{
		`{}`,
		`{"query": ""}`,
		`{"query": "   "}`,
		`{"query": 5}`,
		`not json`,
		``,
	}
	for _, body := range bodies {
		w := post(router, "/chat", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.JSONEq(t,
			`{"filters":[],"listings":[],"error":{"type":"validation_error","message":"Missing required field: query"}}`,
			w.Body.String(), "body %q", body)
	}
}

func TestChat_FirstCall(t *testing.T) {
	router := newTestRouter(t, "unused")

	w := post(router, "/chat", `{"query":"firstcall"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Filters  []string         `json:"filters"`
		Listings []map[string]any `json:"listings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{}, resp.Filters)
	assert.Len(t, resp.Listings, 3)
	assert.Equal(t, "", resp.Listings[2]["price"])
}

func TestChat_FilteredResponseIsUnescapedAndOrdered(t *testing.T) {
	router := newTestRouter(t, "bed_count >= 2 AND pricing/rate/amount < 1000")

	w := post(router, "/api/v1/chat", `{"query":"two beds under 1000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `"Bangkok <Riverside> & Spa — ริมน้ำ"`)
	assert.NotContains(t, body, `\u003c`)
	assert.Equal(t,
		`{"filters":["Bed Count","Price"],"listings":[{"name":"Bangkok <Riverside> & Spa — ริมน้ำ","price":800,"bed_count":2}]}`,
		strings.TrimSpace(body))
}

func TestChat_CompileErrorStatus(t *testing.T) {
	router := newTestRouter(t, "df.to_csv('/tmp/x')")

	w := post(router, "/chat", `{"query":"dump everything"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "query_execution_error", resp.Error.Type)
	assert.Empty(t, resp.Filters)
	assert.Empty(t, resp.Listings)
}

func TestHealthAndVersion(t *testing.T) {
	router := newTestRouter(t, "unused")

	for _, path := range []string{"/health", "/version"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"version":"test"`)
	}
}
