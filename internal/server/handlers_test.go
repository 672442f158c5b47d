package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partpilot/server/internal/agent/model"
)

type fakeRunner struct {
	state *model.ConversationState
	err   error
	last  model.QueryInput
	calls int
}

func (f *fakeRunner) Chat(_ context.Context, in model.QueryInput) (*model.ConversationState, error) {
	f.last = in
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	st := f.state
	if st == nil {
		st = model.NewConversationState(in.ConversationID)
		st.FinalResponse = "Happy to help."
	}
	if st.ConversationID == "" {
		st.ConversationID = in.ConversationID
	}
	return st, nil
}

type fakeCatalog struct {
	parts     map[string]*model.Part
	guides    map[string]*model.InstallationGuide
	results   []model.Part
	searchErr error

	lastQuery    string
	lastCategory string
	lastLimit    int
}

func (f *fakeCatalog) SearchParts(_ context.Context, query, category string, limit int) ([]model.Part, error) {
	f.lastQuery = query
	f.lastCategory = category
	f.lastLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeCatalog) GetPart(_ context.Context, partNumber string) (*model.Part, error) {
	return f.parts[partNumber], nil
}

func (f *fakeCatalog) GetInstallationGuide(_ context.Context, partNumber string) (*model.InstallationGuide, error) {
	return f.guides[partNumber], nil
}

func (f *fakeCatalog) GetCompatibility(_ context.Context, _, _ string) (*model.CompatibilityFact, error) {
	return nil, nil
}

func newTestHandler(runner *fakeRunner, catalog *fakeCatalog) http.Handler {
	if catalog.parts == nil {
		catalog.parts = map[string]*model.Part{}
	}
	if catalog.guides == nil {
		catalog.guides = map[string]*model.InstallationGuide{}
	}
	srv := New(Config{
		Addr:        ":0",
		ServiceName: "partpilot",
		Environment: "test",
	}, runner, catalog, NewHealth())
	return srv.http.Handler
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), v))
}

func TestChatReturnsTurnResult(t *testing.T) {
	state := model.NewConversationState("conv-42")
	state.FinalResponse = "I found your ice maker."
	state.Intent = model.IntentDiagnoseIssue
	state.Confidence = 0.9
	state.ApplianceType = "refrigerator"
	state.Brand = "Whirlpool"
	state.Symptoms = []string{"not making ice"}
	state.RecommendedParts = []model.RecommendedPart{{
		Part:           model.Part{PartNumber: "PS11701542", Name: "Ice Maker Assembly", Price: 89.99},
		RelevanceScore: 0.95,
	}}
	runner := &fakeRunner{state: state}

	rec := do(t, newTestHandler(runner, &fakeCatalog{}), http.MethodPost, "/chat",
		`{"message": "my fridge stopped making ice", "conversation_id": "conv-42"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ChatResponse
	decode(t, rec, &resp)
	assert.Equal(t, "I found your ice maker.", resp.Message)
	assert.Equal(t, "conv-42", resp.ConversationID)
	assert.Equal(t, "diagnose_issue", resp.Intent)
	require.Len(t, resp.RecommendedParts, 1)
	assert.Equal(t, "PS11701542", resp.RecommendedParts[0].PartNumber)
	assert.Equal(t, 0.9, resp.Metadata.Confidence)
	assert.Equal(t, "refrigerator", resp.Metadata.ApplianceType)
	assert.Equal(t, "Whirlpool", resp.Metadata.Brand)
	assert.Equal(t, []string{"not making ice"}, resp.Metadata.Symptoms)

	assert.Equal(t, "conv-42", runner.last.ConversationID)
	assert.Equal(t, "my fridge stopped making ice", runner.last.Query)
}

func TestChatGeneratesConversationID(t *testing.T) {
	runner := &fakeRunner{}

	rec := do(t, newTestHandler(runner, &fakeCatalog{}), http.MethodPost, "/chat",
		`{"message": "hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, runner.last.ConversationID)

	var resp ChatResponse
	decode(t, rec, &resp)
	assert.Equal(t, runner.last.ConversationID, resp.ConversationID)
	// Slot keys stay present even when nothing was extracted.
	assert.NotNil(t, resp.RecommendedParts)
	assert.NotNil(t, resp.Metadata.Symptoms)
}

func TestChatRequiresMessage(t *testing.T) {
	runner := &fakeRunner{}

	rec := do(t, newTestHandler(runner, &fakeCatalog{}), http.MethodPost, "/chat",
		`{"message": "   "}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "message is required", body.Error)
	assert.Zero(t, runner.calls)
}

func TestChatRejectsMalformedBody(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodPost, "/chat",
		`{"message": `)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "invalid request body", body.Error)
}

func TestChatPipelineFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("model unavailable")}

	rec := do(t, newTestHandler(runner, &fakeCatalog{}), http.MethodPost, "/chat",
		`{"message": "help"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "agent execution failed", body.Error)
}

func TestSearchRequiresQuery(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet, "/products/search", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "q is required", body.Error)
}

func TestSearchPassesFilters(t *testing.T) {
	catalog := &fakeCatalog{results: []model.Part{{PartNumber: "PS11701542", Name: "Ice Maker Assembly"}}}

	rec := do(t, newTestHandler(&fakeRunner{}, catalog), http.MethodGet,
		"/products/search?q=ice+maker&category=Refrigerator&limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ice maker", catalog.lastQuery)
	assert.Equal(t, "Refrigerator", catalog.lastCategory)
	assert.Equal(t, 5, catalog.lastLimit)

	var parts []model.Part
	decode(t, rec, &parts)
	require.Len(t, parts, 1)
	assert.Equal(t, "PS11701542", parts[0].PartNumber)
}

func TestSearchClampsLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 10},
		{"abc", 10},
		{"0", 10},
		{"-3", 10},
		{"50", 50},
		{"500", 50},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseLimit(tc.raw), "limit=%q", tc.raw)
	}
}

func TestSearchEmptyResultIsArray(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet,
		"/products/search?q=flux+capacitor", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestSearchCatalogFailure(t *testing.T) {
	catalog := &fakeCatalog{searchErr: errors.New("disk gone")}

	rec := do(t, newTestHandler(&fakeRunner{}, catalog), http.MethodGet,
		"/products/search?q=ice", "")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "catalog operation failed", body.Error)
}

func TestGetProduct(t *testing.T) {
	catalog := &fakeCatalog{parts: map[string]*model.Part{
		"PS11701542": {PartNumber: "PS11701542", Name: "Ice Maker Assembly", Price: 89.99, InStock: true},
	}}

	rec := do(t, newTestHandler(&fakeRunner{}, catalog), http.MethodGet, "/products/PS11701542", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var part model.Part
	decode(t, rec, &part)
	assert.Equal(t, "Ice Maker Assembly", part.Name)
	assert.True(t, part.InStock)
}

func TestGetProductNotFound(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet, "/products/PS00000000", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Product not found", body.Error)
}

func TestGetInstallationGuide(t *testing.T) {
	catalog := &fakeCatalog{guides: map[string]*model.InstallationGuide{
		"PS11701542": {PartNumber: "PS11701542", Difficulty: "easy", EstimatedTimeMinutes: 30},
	}}

	rec := do(t, newTestHandler(&fakeRunner{}, catalog), http.MethodGet,
		"/products/PS11701542/installation", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var guide model.InstallationGuide
	decode(t, rec, &guide)
	assert.Equal(t, "easy", guide.Difficulty)
	assert.Equal(t, 30, guide.EstimatedTimeMinutes)
}

func TestGetInstallationGuideNotFound(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet,
		"/products/PS00000000/installation", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Installation guide not found", body.Error)
}

func TestRootStatus(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body statusBody
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "partpilot", body.Service)
	assert.Equal(t, "test", body.Environment)
}

func TestCORSPreflight(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodOptions, "/chat", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSHeadersOnResponses(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet, "/", "")

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsExposed(t *testing.T) {
	rec := do(t, newTestHandler(&fakeRunner{}, &fakeCatalog{}), http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
}
