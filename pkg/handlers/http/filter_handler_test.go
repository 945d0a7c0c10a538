package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-search/contentguard/pkg/blocklist"
	"github.com/flight-search/contentguard/pkg/pipeline"
	"github.com/flight-search/contentguard/pkg/policy"
	"github.com/flight-search/contentguard/pkg/scorer"
	"github.com/flight-search/contentguard/pkg/types"
)

const handlerPolicies = `
hotlines:
  crisis_lifeline: "Call or text 988."
categories:
  self_harm:
    block_threshold: 70
    priority: 95
    message: "You are not alone."
    hotline: crisis_lifeline
  drugs:
    block_threshold: 80
    priority: 90
    message: "Blocked: drugs."
`

const handlerRules = `
rules:
  - pattern: "kill myself"
    match: exact
    category: self_harm
    severity: 90
  - pattern: "buy drugs"
    match: exact
    category: drugs
    severity: 85
`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFilterApp(t *testing.T) *fiber.App {
	t.Helper()
	table, err := policy.Parse([]byte(handlerPolicies))
	require.NoError(t, err)

	store := blocklist.NewStore(table.CategoryNames())
	_, err = store.Load(strings.NewReader(handlerRules))
	require.NoError(t, err)

	logger := testLogger()
	sc := scorer.New(nil, table, scorer.Config{}, logger)
	p := pipeline.New(store, nil, sc, policy.NewRouter(table), nil, pipeline.Config{}, logger)

	app := fiber.New()
	app.Post("/v1/filter", NewFilterHandler(logger, p).Handle)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *stdhttp.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(stdhttp.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestFilterHandler_AllowedQuery(t *testing.T) {
	app := newFilterApp(t)

	resp := postJSON(t, app, "/v1/filter", types.SearchRequest{
		Query:    "science homework",
		Language: "en",
		Results: []types.ResultItem{
			{Title: "Photosynthesis basics", URL: "https://bio.example"},
		},
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var filtered types.FilteredResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&filtered))
	assert.Equal(t, types.ActionAllow, filtered.QueryDecision.Action)
	assert.Len(t, filtered.Results, 1)
	assert.Equal(t, 0, filtered.Dropped)
}

func TestFilterHandler_BlockedQuery(t *testing.T) {
	app := newFilterApp(t)

	resp := postJSON(t, app, "/v1/filter", types.SearchRequest{
		Query:    "how to kill myself",
		Language: "en",
		Results: []types.ResultItem{
			{Title: "should never be scored", URL: "https://whatever.example"},
		},
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var filtered types.FilteredResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&filtered))
	assert.Equal(t, types.ActionBlock, filtered.QueryDecision.Action)
	assert.Equal(t, "You are not alone.", filtered.QueryDecision.Message)
	assert.Equal(t, "crisis_lifeline", filtered.ResourceRef)
	assert.Empty(t, filtered.Results)
}

func TestFilterHandler_DropsBlockedResults(t *testing.T) {
	app := newFilterApp(t)

	resp := postJSON(t, app, "/v1/filter", types.SearchRequest{
		Query:    "shopping",
		Language: "en",
		Results: []types.ResultItem{
			{Title: "Grocery coupons", URL: "https://shop.example"},
			{Title: "Buy drugs online", URL: "https://shady.example"},
		},
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var filtered types.FilteredResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&filtered))
	assert.Equal(t, 1, filtered.Dropped)
	require.Len(t, filtered.Results, 1)
	assert.Equal(t, "Grocery coupons", filtered.Results[0].Item.Title)
}

func TestFilterHandler_RejectsInvalidPayload(t *testing.T) {
	app := newFilterApp(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/v1/filter", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, ErrInvalidJsonPayload, body["error"])
}
