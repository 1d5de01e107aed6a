package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercabridge/internal/catalog"
	"mercabridge/internal/envelope"
)

type fakeService struct {
	env     envelope.Envelope
	panics  bool
	calls   int
	lastReq catalog.Request
}

func (f *fakeService) Handle(_ context.Context, req catalog.Request) envelope.Envelope {
	f.calls++
	f.lastReq = req
	if f.panics {
		panic("boom")
	}
	return f.env
}

func serve(t *testing.T, svc Service, opts Options, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(svc, zerolog.Nop(), opts).ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") != "" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := serve(t, &fakeService{}, Options{}, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()

	NewRouter(&fakeService{}, zerolog.Nop(), Options{}).ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestSearch(t *testing.T) {
	svc := &fakeService{env: envelope.Success([]string{"a"})}

	rec, body := serve(t, svc, Options{}, http.MethodGet, "/search?q=leche&postcode=08001&limit=5")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, catalog.Request{Action: catalog.ActionSearch, Query: "leche", Postcode: "08001", Limit: 5}, svc.lastReq)
}

func TestSearch_MissingQuery(t *testing.T) {
	svc := &fakeService{}

	rec, body := serve(t, svc, Options{}, http.MethodGet, "/search?q=%20")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "error": catalog.ErrMissingQuery.Error()}, body)
	assert.Zero(t, svc.calls)
}

func TestDetail_MissingID(t *testing.T) {
	svc := &fakeService{}

	rec, body := serve(t, svc, Options{}, http.MethodGet, "/detail")

	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, catalog.ErrMissingID.Error(), body["error"])
	assert.Zero(t, svc.calls)
}

func TestDetail_NotFoundIsOK(t *testing.T) {
	svc := &fakeService{env: envelope.Failure(catalog.ErrNotFound.Error(), "")}

	rec, body := serve(t, svc, Options{}, http.MethodGet, "/detail?id=42")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "error": "product not found"}, body)
	assert.Equal(t, "42", svc.lastReq.Query)
}

func TestNew_InvalidLimit(t *testing.T) {
	svc := &fakeService{}

	rec, body := serve(t, svc, Options{}, http.MethodGet, "/new?limit=ten")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errInvalidLimit.Error(), body["error"])
	assert.Zero(t, svc.calls)
}

func TestPrices(t *testing.T) {
	svc := &fakeService{env: envelope.Success([]string{})}

	rec, _ := serve(t, svc, Options{}, http.MethodGet, "/prices?id=4241&limit=3")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.ActionHistory, svc.lastReq.Action)
	assert.Equal(t, 3, svc.lastReq.Limit)
}

func TestMethodNotAllowed(t *testing.T) {
	svc := &fakeService{}

	rec, body := serve(t, svc, Options{}, http.MethodPost, "/search?q=leche")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Zero(t, svc.calls)
}

func TestPanicRecovery(t *testing.T) {
	rec, body := serve(t, &fakeService{panics: true}, Options{ExposeDetails: true}, http.MethodGet, "/new")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], envelope.GenericFailure)
	assert.NotEmpty(t, body["details"])
}

func TestDetailsHiddenWhenNotExposed(t *testing.T) {
	svc := &fakeService{env: envelope.Failure("upstream failed", "trace")}

	_, body := serve(t, svc, Options{ExposeDetails: false}, http.MethodGet, "/new")

	assert.NotContains(t, body, "details")
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	rec := httptest.NewRecorder()

	NewRouter(&fakeService{}, zerolog.Nop(), Options{Metrics: metrics}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestUnknownPath(t *testing.T) {
	svc := &fakeService{}

	rec, body := serve(t, svc, Options{}, http.MethodGet, "/basket")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "error": "no route for /basket"}, body)
	assert.Zero(t, svc.calls)
}
